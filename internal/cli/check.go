package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/typing"
)

// CheckCmd returns the check command.
func CheckCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("check", flag.ContinueOnError),
		Usage: "check",
		Short: "Validate the types file and every typed note",
		Long: `Build the type graph from the types file, then read every note in the
folders of createable types and report fields that cannot be parsed. The
path index, when enabled, is rebuilt first.

Configuration errors fail the command; unreadable fields are warnings.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execCheck(ctx, io, a)
		},
	}
}

func execCheck(ctx context.Context, io *IO, a *app) error {
	err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", a.cfg.TypesFile, err)
	}

	if a.index != nil {
		_, err = a.index.Rebuild(ctx)
		if err != nil {
			return err
		}
	}

	g := a.ws.Graph()
	checked := 0

	for _, t := range g.Types() {
		if !t.Createable() {
			continue
		}

		notes, err := a.ws.AllNotes(ctx, t, false)
		if err != nil {
			return err
		}

		for _, n := range notes {
			checked++

			checkNote(ctx, io, n)
		}
	}

	io.Println(fmt.Sprintf("%d types, %d notes checked", g.Len(), checked))

	return nil
}

func checkNote(ctx context.Context, io *IO, n *typing.Note) {
	for _, f := range n.Type().Fields() {
		l := n.Lookup(ctx, f.Name)
		if l.Status == fields.Failed {
			io.Warn(fmt.Sprintf("%s: %v", n.Path(), l.Err), "fix the field by hand or overwrite it with set")
		}
	}

	if n.Type().Prefix() != nil && n.Prefix() == "" {
		io.Warn(n.Path()+": filename has no "+n.Type().Prefix().Pattern()+" prefix", "rename it with --prefix")
	}
}

// ReindexCmd returns the reindex command.
func ReindexCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("reindex", flag.ContinueOnError),
		Usage: "reindex",
		Short: "Rebuild the path index from the vault",
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, _ []string) error {
			if a.index == nil {
				return errIndexDisabled
			}

			n, err := a.index.Rebuild(ctx)
			if err != nil {
				return err
			}

			io.Println(fmt.Sprintf("indexed %d documents", n))

			return nil
		}),
	}
}

// WatchCmd returns the watch command.
func WatchCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("watch", flag.ContinueOnError),
		Usage: "watch",
		Short: "Reload the types file on change until interrupted",
		Long: `Watch the types file and rebuild the type graph whenever it changes.

A broken file is logged and the previous graph stays active.`,
		Exec: a.withWorkspace(func(ctx context.Context, io *IO, _ []string) error {
			load := func(ctx context.Context) ([]typing.Spec, error) {
				return a.loadSpecs(ctx, a.store)
			}

			stop, err := a.ws.WatchConfig(ctx, a.cfg.TypesFile, load)
			if err != nil {
				return err
			}

			defer func() { _ = stop() }()

			io.Println("watching " + a.cfg.TypesFile)

			<-ctx.Done()

			return nil
		}),
	}
}
