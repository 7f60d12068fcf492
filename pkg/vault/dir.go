package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"
	"github.com/untillpro/goutils/logger"
)

// Dir implements [Storage] on a directory tree.
//
// Writes are atomic (temp file + rename), so readers never observe a
// partially written document. Watch is backed by fsnotify on the document's
// parent directory, which also catches editors that replace files.
type Dir struct {
	root string
}

// NewDir returns storage rooted at root, which must be an existing directory.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Op: "open", Path: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Op: "open", Path: root, Err: ErrNotFound}
		}

		return nil, &Error{Op: "open", Path: root, Err: err}
	}

	if !info.IsDir() {
		return nil, &Error{Op: "open", Path: root, Err: ErrNotFolder}
	}

	return &Dir{root: abs}, nil
}

// Root returns the absolute root directory.
func (d *Dir) Root() string { return d.root }

// Abs maps a vault path to its absolute filesystem path.
func (d *Dir) Abs(p string) (string, error) {
	rel, err := Clean(p)
	if err != nil {
		return "", err
	}

	return filepath.Join(d.root, filepath.FromSlash(rel)), nil
}

func (d *Dir) resolve(ctx context.Context, op, p string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", &Error{Op: op, Path: p, Err: err}
	}

	rel, err := Clean(p)
	if err != nil {
		return "", "", &Error{Op: op, Path: p, Err: err}
	}

	return rel, filepath.Join(d.root, filepath.FromSlash(rel)), nil
}

// Read implements [Storage].
func (d *Dir) Read(ctx context.Context, p string) (string, error) {
	rel, abs, err := d.resolve(ctx, "read", p)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &Error{Op: "read", Path: rel, Err: classify(abs, err)}
	}

	return string(data), nil
}

// Write implements [Storage].
func (d *Dir) Write(ctx context.Context, p, text string) error {
	rel, abs, err := d.resolve(ctx, "write", p)
	if err != nil {
		return err
	}

	if rel == "" {
		return &Error{Op: "write", Path: p, Err: ErrIsFolder}
	}

	err = os.MkdirAll(filepath.Dir(abs), 0o755)
	if err != nil {
		return &Error{Op: "write", Path: rel, Err: err}
	}

	err = atomic.WriteFile(abs, strings.NewReader(text))
	if err != nil {
		return &Error{Op: "write", Path: rel, Err: err}
	}

	return nil
}

// Rename implements [Storage].
func (d *Dir) Rename(ctx context.Context, from, to string) error {
	fromRel, fromAbs, err := d.resolve(ctx, "rename", from)
	if err != nil {
		return err
	}

	toRel, toAbs, err := d.resolve(ctx, "rename", to)
	if err != nil {
		return err
	}

	if fromRel == toRel {
		return nil
	}

	_, err = os.Lstat(fromAbs)
	if err != nil {
		return &Error{Op: "rename", Path: fromRel, Err: classify(fromAbs, err)}
	}

	_, err = os.Lstat(toAbs)
	if err == nil {
		return &Error{Op: "rename", Path: toRel, Err: ErrExists}
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return &Error{Op: "rename", Path: toRel, Err: err}
	}

	err = os.MkdirAll(filepath.Dir(toAbs), 0o755)
	if err != nil {
		return &Error{Op: "rename", Path: toRel, Err: err}
	}

	err = os.Rename(fromAbs, toAbs)
	if err != nil {
		return &Error{Op: "rename", Path: fromRel, Err: err}
	}

	return nil
}

// Exists implements [Storage].
func (d *Dir) Exists(ctx context.Context, p string) (bool, error) {
	rel, abs, err := d.resolve(ctx, "stat", p)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(abs)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, &Error{Op: "stat", Path: rel, Err: err}
}

// ListChildren implements [Storage].
func (d *Dir) ListChildren(ctx context.Context, folder string) ([]Entry, error) {
	rel, abs, err := d.resolve(ctx, "list", folder)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Op: "list", Path: rel, Err: ErrNotFound}
		}

		info, statErr := os.Stat(abs)
		if statErr == nil && !info.IsDir() {
			return nil, &Error{Op: "list", Path: rel, Err: ErrNotFolder}
		}

		return nil, &Error{Op: "list", Path: rel, Err: err}
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{Path: Join(rel, de.Name()), Folder: de.IsDir()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return entries, nil
}

// Watch implements [Storage]. The watch ends when stop is called or ctx is
// done, whichever comes first.
func (d *Dir) Watch(ctx context.Context, p string, onChange func(p string)) (func() error, error) {
	rel, abs, err := d.resolve(ctx, "watch", p)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &Error{Op: "watch", Path: rel, Err: err}
	}

	err = watcher.Add(filepath.Dir(abs))
	if err != nil {
		_ = watcher.Close()

		return nil, &Error{Op: "watch", Path: rel, Err: classify(filepath.Dir(abs), err)}
	}

	var once sync.Once

	stop := func() error {
		var closeErr error

		once.Do(func() { closeErr = watcher.Close() })

		return closeErr
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = stop()

				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(ev.Name) != abs {
					continue
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}

				onChange(rel)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}

				logger.Error(fmt.Sprintf("watch %s: %v", rel, werr))
			}
		}
	}()

	return stop, nil
}

// classify maps OS errors onto the package sentinels, keeping the cause.
func classify(abs string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}

	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return ErrIsFolder
	}

	return err
}

// Compile-time interface check.
var _ Storage = (*Dir)(nil)
