package typing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/typing/pkg/typing"
	"github.com/calvinalkan/typing/pkg/vault"
)

// recordingStore counts mutations on top of an in-memory vault and can be
// told to fail them.
type recordingStore struct {
	*vault.Memory

	mu        sync.Mutex
	writes    []string
	renames   [][2]string
	failWrite map[string]error
	failMove  error
}

func newRecordingStore(seed map[string]string) *recordingStore {
	return &recordingStore{Memory: vault.NewMemory(seed), failWrite: map[string]error{}}
}

func (s *recordingStore) Write(ctx context.Context, p, text string) error {
	s.mu.Lock()
	err := s.failWrite[p]
	s.writes = append(s.writes, p)
	s.mu.Unlock()

	if err != nil {
		return &vault.Error{Op: "write", Path: p, Err: err}
	}

	return s.Memory.Write(ctx, p, text)
}

func (s *recordingStore) Rename(ctx context.Context, from, to string) error {
	s.mu.Lock()
	err := s.failMove
	s.renames = append(s.renames, [2]string{from, to})
	s.mu.Unlock()

	if err != nil {
		return &vault.Error{Op: "rename", Path: to, Err: err}
	}

	return s.Memory.Rename(ctx, from, to)
}

func (s *recordingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.writes)
}

func (s *recordingStore) renameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.renames)
}

func (s *recordingStore) text(t *testing.T, p string) string {
	t.Helper()

	text, err := s.Memory.Read(context.Background(), p)
	require.NoError(t, err)

	return text
}

type fixture struct {
	ws    *typing.Workspace
	store *recordingStore
	cb    *typing.Callbacks
}

type fixtureOption func(*typing.Config)

func withDefaultType(name string) fixtureOption {
	return func(c *typing.Config) { c.DefaultType = name }
}

func withIndex(ix typing.Index) fixtureOption {
	return func(c *typing.Config) { c.Index = ix }
}

func newFixture(t *testing.T, specs []typing.Spec, seed map[string]string, cb *typing.Callbacks, opts ...fixtureOption) *fixture {
	t.Helper()

	if cb == nil {
		cb = typing.NewCallbacks()
	}

	store := newRecordingStore(seed)
	cfg := typing.Config{
		Storage:   store,
		Callbacks: cb,
		Now:       func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) },
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	ws, err := typing.New(cfg)
	require.NoError(t, err)

	_, err = ws.Reload(specs)
	require.NoError(t, err)

	return &fixture{ws: ws, store: store, cb: cb}
}

func (f *fixture) note(t *testing.T, p string, opts ...typing.NoteOption) *typing.Note {
	t.Helper()

	n, err := f.ws.Note(t.Context(), p, opts...)
	require.NoError(t, err)

	return n
}

func bookSpecs() []typing.Spec {
	return []typing.Spec{
		{Name: "Media", Fields: []typing.FieldSpec{{Name: "tags"}}},
		{
			Name:    "Book",
			Parents: []string{"Media"},
			Folder:  "Books",
			Prefix:  &typing.PrefixSpec{Pattern: `P\d+`},
			Fields:  []typing.FieldSpec{{Name: "author"}, {Name: "year"}},
		},
	}
}

func names(types []*typing.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.Name())
	}

	return out
}

func fieldNames(t *typing.Type) []string {
	var out []string
	for _, f := range t.Fields() {
		out = append(out, f.Name)
	}

	return out
}

func ptr[T any](v T) *T { return &v }
