package vault

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory implements [Storage] in process memory. Folders exist implicitly
// while they contain documents. Watch callbacks run synchronously on the
// writing goroutine after the change is visible.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]string
	watchers map[string]map[int]func(string)
	nextID   int
}

// NewMemory returns an empty store, optionally seeded with documents.
func NewMemory(seed map[string]string) *Memory {
	m := &Memory{
		docs:     make(map[string]string, len(seed)),
		watchers: make(map[string]map[int]func(string)),
	}

	for p, text := range seed {
		rel, err := Clean(p)
		if err != nil || rel == "" {
			panic("vault: invalid seed path " + p)
		}

		m.docs[rel] = text
	}

	return m
}

func (m *Memory) check(ctx context.Context, op, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: op, Path: p, Err: err}
	}

	rel, err := Clean(p)
	if err != nil {
		return "", &Error{Op: op, Path: p, Err: err}
	}

	return rel, nil
}

// isFolderLocked reports whether any document lives below rel.
func (m *Memory) isFolderLocked(rel string) bool {
	if rel == "" {
		return true
	}

	prefix := rel + "/"
	for p := range m.docs {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	return false
}

// Read implements [Storage].
func (m *Memory) Read(ctx context.Context, p string) (string, error) {
	rel, err := m.check(ctx, "read", p)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	text, ok := m.docs[rel]
	if !ok {
		if m.isFolderLocked(rel) {
			return "", &Error{Op: "read", Path: rel, Err: ErrIsFolder}
		}

		return "", &Error{Op: "read", Path: rel, Err: ErrNotFound}
	}

	return text, nil
}

// Write implements [Storage].
func (m *Memory) Write(ctx context.Context, p, text string) error {
	rel, err := m.check(ctx, "write", p)
	if err != nil {
		return err
	}

	m.mu.Lock()

	if rel == "" || m.isFolderLocked(rel) {
		m.mu.Unlock()

		return &Error{Op: "write", Path: rel, Err: ErrIsFolder}
	}

	m.docs[rel] = text
	callbacks := m.callbacksLocked(rel)
	m.mu.Unlock()

	notify(callbacks, rel)

	return nil
}

// Rename implements [Storage].
func (m *Memory) Rename(ctx context.Context, from, to string) error {
	fromRel, err := m.check(ctx, "rename", from)
	if err != nil {
		return err
	}

	toRel, err := m.check(ctx, "rename", to)
	if err != nil {
		return err
	}

	if fromRel == toRel {
		return nil
	}

	m.mu.Lock()

	text, ok := m.docs[fromRel]
	if !ok {
		m.mu.Unlock()

		return &Error{Op: "rename", Path: fromRel, Err: ErrNotFound}
	}

	if _, taken := m.docs[toRel]; taken || m.isFolderLocked(toRel) {
		m.mu.Unlock()

		return &Error{Op: "rename", Path: toRel, Err: ErrExists}
	}

	delete(m.docs, fromRel)
	m.docs[toRel] = text

	fromCallbacks := m.callbacksLocked(fromRel)
	toCallbacks := m.callbacksLocked(toRel)
	m.mu.Unlock()

	notify(fromCallbacks, fromRel)
	notify(toCallbacks, toRel)

	return nil
}

// Exists implements [Storage].
func (m *Memory) Exists(ctx context.Context, p string) (bool, error) {
	rel, err := m.check(ctx, "stat", p)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.docs[rel]

	return ok || m.isFolderLocked(rel), nil
}

// ListChildren implements [Storage].
func (m *Memory) ListChildren(ctx context.Context, folder string) ([]Entry, error) {
	rel, err := m.check(ctx, "list", folder)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, isDoc := m.docs[rel]; isDoc {
		return nil, &Error{Op: "list", Path: rel, Err: ErrNotFolder}
	}

	if !m.isFolderLocked(rel) {
		return nil, &Error{Op: "list", Path: rel, Err: ErrNotFound}
	}

	prefix := ""
	if rel != "" {
		prefix = rel + "/"
	}

	seen := make(map[string]bool)

	var entries []Entry

	for p := range m.docs {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}

		name, _, nested := strings.Cut(rest, "/")
		child := Join(rel, name)

		if seen[child] {
			continue
		}

		seen[child] = true
		entries = append(entries, Entry{Path: child, Folder: nested})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return entries, nil
}

// Watch implements [Storage].
func (m *Memory) Watch(ctx context.Context, p string, onChange func(string)) (func() error, error) {
	rel, err := m.check(ctx, "watch", p)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	if m.watchers[rel] == nil {
		m.watchers[rel] = make(map[int]func(string))
	}

	m.watchers[rel][id] = onChange

	var once sync.Once

	return func() error {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			delete(m.watchers[rel], id)
		})

		return nil
	}, nil
}

// Snapshot returns a copy of all documents.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.docs))
	for p, text := range m.docs {
		out[p] = text
	}

	return out
}

func (m *Memory) callbacksLocked(rel string) []func(string) {
	byID := m.watchers[rel]
	if len(byID) == 0 {
		return nil
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	out := make([]func(string), 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}

	return out
}

func notify(callbacks []func(string), p string) {
	for _, cb := range callbacks {
		cb(p)
	}
}

// Compile-time interface check.
var _ Storage = (*Memory)(nil)
