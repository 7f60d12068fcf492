package typing

import (
	"context"

	"github.com/calvinalkan/typing/pkg/vault"
)

// RenameOption sets one component of a rename target. Components not set
// keep the note's current value.
type RenameOption func(*renameTarget)

type renameTarget struct {
	title, prefix, extension, folder, filename, path *string
}

// WithTitle sets the new title.
func WithTitle(title string) RenameOption {
	return func(r *renameTarget) { r.title = &title }
}

// WithPrefix sets the new filename prefix. An empty prefix removes it.
func WithPrefix(prefix string) RenameOption {
	return func(r *renameTarget) { r.prefix = &prefix }
}

// WithExtension sets the new extension, without the dot.
func WithExtension(ext string) RenameOption {
	return func(r *renameTarget) { r.extension = &ext }
}

// WithFolder moves the note to folder ("" is the vault root).
func WithFolder(folder string) RenameOption {
	return func(r *renameTarget) { r.folder = &folder }
}

// WithFilename sets the whole filename, overriding title, prefix and
// extension.
func WithFilename(filename string) RenameOption {
	return func(r *renameTarget) { r.filename = &filename }
}

// WithPath sets the whole target path, overriding every other component.
func WithPath(p string) RenameOption {
	return func(r *renameTarget) { r.path = &p }
}

func or(v *string, fallback string) string {
	if v != nil {
		return *v
	}

	return fallback
}

// target computes the destination path of a rename.
func (n *Note) target(opts []RenameOption) (string, error) {
	var r renameTarget
	for _, opt := range opts {
		opt(&r)
	}

	if r.path != nil {
		return vault.Clean(*r.path)
	}

	filename := or(r.filename, "")
	if r.filename == nil {
		filename = n.typ.Prefix().Compose(or(r.prefix, n.Prefix()), or(r.title, n.Title()))
		if filename == "" {
			return "", ErrTitleRequired
		}

		if ext := or(r.extension, n.Extension()); ext != "" {
			filename += "." + ext
		}
	}

	return vault.Clean(vault.Join(or(r.folder, n.Folder()), filename))
}

// Rename moves the document. The storage move happens first; only when it
// succeeds is the note's path updated and the on_rename hook fired with the
// previous path, filename, fullname and title. If the hook fails the rename
// stands and a [*HookError] is returned. Renaming to the current path is a
// no-op and fires nothing.
func (n *Note) Rename(ctx context.Context, opts ...RenameOption) error {
	to, err := n.target(opts)
	if err != nil {
		return &vault.Error{Op: "rename", Path: n.path, Err: err}
	}

	if to == n.path {
		return nil
	}

	ev := &RenameEvent{
		PrevPath:     n.path,
		PrevFilename: n.Filename(),
		PrevFullname: n.Fullname(),
		PrevTitle:    n.Title(),
	}

	err = n.ws.cfg.Storage.Rename(ctx, n.path, to)
	if err != nil {
		return err
	}

	n.path = to
	n.ws.move(ctx, ev.PrevPath, to)

	return n.runHook(ctx, &HookContext{
		Event:     HookOnRename,
		Type:      n.typ,
		Note:      n,
		Rename:    ev,
		Workspace: n.ws,
	})
}
