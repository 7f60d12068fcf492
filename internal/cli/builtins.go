package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/calvinalkan/typing/pkg/typing"
	"github.com/calvinalkan/typing/pkg/vault"
)

// ArchiveFolder is where the archive action moves notes.
const ArchiveFolder = "Archive"

var errMethodArgs = errors.New("wrong number of method arguments")

// builtinCallbacks are the callbacks type specs can reference from the CLI.
//
//	hook "log"        logs the event and note path
//	action "archive"  moves the note below Archive/, keeping its folder
//	method "title"    returns the note title
//	method "field"    returns the value of the named field
func builtinCallbacks() *typing.Callbacks {
	return typing.NewCallbacks().
		Hook("log", logHook).
		Action("archive", archiveAction).
		Method("title", func(_ context.Context, n *typing.Note, args ...string) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("%w: title takes none", errMethodArgs)
			}

			return n.Title(), nil
		}).
		Method("field", func(ctx context.Context, n *typing.Note, args ...string) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%w: field takes a field name", errMethodArgs)
			}

			v, _ := n.Field(ctx, args[0])

			return v, nil
		})
}

func logHook(_ context.Context, hc *typing.HookContext) error {
	switch {
	case hc.Rename != nil && hc.Note != nil:
		logger.Info(fmt.Sprintf("%s: %s -> %s", hc.Event, hc.Rename.PrevPath, hc.Note.Path()))
	case hc.Note != nil:
		logger.Info(fmt.Sprintf("%s: %s", hc.Event, hc.Note.Path()))
	default:
		logger.Info(fmt.Sprintf("%s: new %s", hc.Event, hc.Type))
	}

	return nil
}

func archiveAction(ctx context.Context, n *typing.Note) error {
	return n.Rename(ctx, typing.WithFolder(vault.Join(ArchiveFolder, n.Folder())))
}
