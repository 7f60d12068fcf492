package typing

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/vault"
)

var headerCodec = fields.Header{}

// Note is a handle on one document and the type it resolved to.
//
// A Note is a view: it holds no document content, every field access reads
// storage. The type is fixed at construction and is not re-resolved when
// the workspace publishes a new graph. Notes are not safe for concurrent
// mutation: [Note.Rename] updates the path in place.
type Note struct {
	ws   *Workspace
	path string
	typ  *Type
}

// Path returns the vault-relative document path.
func (n *Note) Path() string { return n.path }

// Type returns the resolved type, or nil for an untyped note.
func (n *Note) Type() *Type { return n.typ }

// Typed reports whether the note resolved to a type.
func (n *Note) Typed() bool { return n.typ != nil }

// Workspace returns the workspace the note belongs to.
func (n *Note) Workspace() *Workspace { return n.ws }

// Folder returns the folder part of the path ("" at the vault root).
func (n *Note) Folder() string { return vault.Parent(n.path) }

// Filename returns the last path element, including the extension.
func (n *Note) Filename() string { return path.Base(n.path) }

// Fullname returns the filename without its extension.
func (n *Note) Fullname() string {
	name := n.Filename()

	return strings.TrimSuffix(name, path.Ext(name))
}

// Extension returns the extension without the dot, or "".
func (n *Note) Extension() string {
	return strings.TrimPrefix(path.Ext(n.Filename()), ".")
}

// Prefix returns the filename prefix under the type's prefix pattern.
func (n *Note) Prefix() string {
	if n.typ == nil {
		return ""
	}

	return n.typ.Prefix().Parse(n.Fullname()).Prefix
}

// Title returns the fullname without its prefix.
func (n *Note) Title() string {
	if n.typ == nil {
		return n.Fullname()
	}

	return n.typ.Prefix().Parse(n.Fullname()).Name
}

// Text returns the raw document text.
func (n *Note) Text(ctx context.Context) (string, error) {
	return n.ws.cfg.Storage.Read(ctx, n.path)
}

func (n *Note) accessor() *fields.Document {
	return fields.NewDocument(n.ws.cfg.Storage, n.path, n.typ.Selector(), fields.WithNotFound(vault.IsNotFound))
}

// Lookup reads a schema field with its explicit status. Untyped notes and
// fields outside the schema are [fields.Absent].
func (n *Note) Lookup(ctx context.Context, name string) fields.Lookup {
	if n.typ == nil {
		return fields.Lookup{Status: fields.Absent}
	}

	if _, ok := n.typ.Field(name); !ok {
		return fields.Lookup{Status: fields.Absent}
	}

	return n.accessor().Get(ctx, name)
}

// Field returns the value of a schema field. A field that cannot be read
// is reported absent; the failure is logged and does not affect other
// fields.
func (n *Note) Field(ctx context.Context, name string) (string, bool) {
	l := n.Lookup(ctx, name)
	if l.Status == fields.Failed {
		logger.Verbose(fmt.Sprintf("%s: field %s treated as absent: %v", n.path, name, l.Err))
	}

	return l.Value, l.OK()
}

// SetField writes a schema field, touching no other text.
func (n *Note) SetField(ctx context.Context, name, value string) error {
	if n.typ == nil {
		return fmt.Errorf("%w: %s", ErrUntyped, n.path)
	}

	if _, ok := n.typ.Field(name); !ok {
		return fmt.Errorf("%w: %q of type %s", ErrUnknownField, name, n.typ.Name())
	}

	return n.accessor().Set(ctx, name, value)
}

// RunAction runs the named action of the note's type.
func (n *Note) RunAction(ctx context.Context, name string) error {
	if n.typ == nil {
		return fmt.Errorf("%w: %s", ErrUntyped, n.path)
	}

	a, ok := n.typ.Action(name)
	if !ok {
		return fmt.Errorf("%w: %q of type %s", ErrUnknownAction, name, n.typ.Name())
	}

	return a.fn(ctx, n)
}

// CallMethod calls the named method of the note's type.
func (n *Note) CallMethod(ctx context.Context, name string, args ...string) (any, error) {
	if n.typ == nil {
		return nil, fmt.Errorf("%w: %s", ErrUntyped, n.path)
	}

	m, ok := n.typ.Method(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q of type %s", ErrUnknownMethod, name, n.typ.Name())
	}

	return m.fn(ctx, n, args...)
}

// Super returns the same document viewed as an ancestor type. An empty
// name selects the only parent. Untyped notes are returned unchanged.
func (n *Note) Super(name string) (*Note, error) {
	if n.typ == nil {
		return n, nil
	}

	if name == "" {
		parents := n.typ.ParentNames()
		if len(parents) != 1 {
			return nil, &ResolutionError{
				Type: n.typ.Name(),
				Err:  fmt.Errorf("%w: %d parents, name one explicitly", ErrAmbiguousParent, len(parents)),
			}
		}

		name = parents[0]
	}

	super := n.typ.Graph().Get(name)
	if super == nil {
		return nil, &ResolutionError{Type: n.typ.Name(), Target: name, Err: ErrNoSuchType}
	}

	if !IsInstance(n.typ, super) {
		return nil, &ResolutionError{Type: n.typ.Name(), Target: name, Err: ErrNotAncestor}
	}

	return &Note{ws: n.ws, path: n.path, typ: super}, nil
}

// Relations returns the link relations of the note, or nil when untyped.
func (n *Note) Relations() *Relations {
	if n.typ == nil {
		return nil
	}

	return &Relations{note: n}
}

func (n *Note) runHook(ctx context.Context, hc *HookContext) error {
	if n.typ == nil {
		return nil
	}

	ran, err := n.typ.Hooks().Run(ctx, hc)
	if err != nil {
		logger.Warning(fmt.Sprintf("%s: hook %s failed: %v", n.path, hc.Event, err))

		return &HookError{Hook: hc.Event, Path: n.path, Err: err}
	}

	if ran {
		logger.Verbose(fmt.Sprintf("%s: hook %s ran", n.path, hc.Event))
	}

	return nil
}

func filterMarkdown(paths []string) []string {
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		if strings.EqualFold(path.Ext(p), ".md") {
			out = append(out, p)
		}
	}

	sort.Strings(out)

	return out
}
