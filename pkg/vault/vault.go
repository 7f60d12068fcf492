// Package vault defines the document storage contract and its
// implementations.
//
// Paths are vault-relative and slash-separated ("Books/Foo.md"); the empty
// string names the vault root. Implementations:
//   - [Dir]: documents on disk under a root directory
//   - [Memory]: documents in process memory
//
// All errors returned by implementations are [*Error] values wrapping one of
// the sentinels below or an underlying OS error.
package vault

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrExists      = errors.New("already exists")
	ErrNotFolder   = errors.New("not a folder")
	ErrIsFolder    = errors.New("is a folder")
	ErrInvalidPath = errors.New("invalid path")
)

// Entry is one child of a folder.
type Entry struct {
	Path   string
	Folder bool
}

// Name returns the last path element.
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// Storage is the document store consumed by the typing core.
//
// Implementations must be safe for concurrent use. They provide no
// per-document locking: concurrent writers to one path are last-write-wins.
type Storage interface {
	// Read returns the text of the document at p.
	Read(ctx context.Context, p string) (string, error)

	// Write replaces the document at p, creating parent folders as needed.
	Write(ctx context.Context, p, text string) error

	// Rename moves a document. Fails with [ErrExists] if to is taken and
	// with [ErrNotFound] if from is missing.
	Rename(ctx context.Context, from, to string) error

	// Exists reports whether a document or folder exists at p.
	Exists(ctx context.Context, p string) (bool, error)

	// ListChildren returns the direct children of folder, sorted by path.
	ListChildren(ctx context.Context, folder string) ([]Entry, error)

	// Watch calls onChange whenever the document at p is written, created,
	// renamed, or removed. The returned stop function ends the watch.
	Watch(ctx context.Context, p string, onChange func(p string)) (stop func() error, err error)
}

// Error carries the operation and path of a failed storage call.
//
//	rename: already exists (op=rename path=Books/Foo.md)
type Error struct {
	Op   string
	Path string
	Err  error
}

// Error formats as "<op>: <cause> (path=P)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}

	if e.Path != "" {
		b.WriteString(" (path=")
		b.WriteString(e.Path)
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// IsNotFound reports whether err means a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Clean normalizes a vault-relative path. Returns [ErrInvalidPath] for
// absolute paths and paths escaping the root.
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", nil
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}

	return cleaned, nil
}

// Parent returns the folder part of p ("" for root-level documents).
func Parent(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}

	return d
}

// Join joins a folder and a name; an empty folder yields name.
func Join(folder, name string) string {
	if folder == "" {
		return name
	}

	return path.Join(folder, name)
}
