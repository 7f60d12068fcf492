package fields_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/typing/pkg/fields"
	"github.com/calvinalkan/typing/pkg/vault"
)

// countingStore counts writes on top of an in-memory vault.
type countingStore struct {
	*vault.Memory
	writes  int
	readErr error
}

func (s *countingStore) Read(ctx context.Context, p string) (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}

	return s.Memory.Read(ctx, p)
}

func (s *countingStore) Write(ctx context.Context, p, text string) error {
	s.writes++

	return s.Memory.Write(ctx, p, text)
}

func Test_Document_GetSet_When_DocumentStored(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := &countingStore{Memory: vault.NewMemory(map[string]string{
		"Books/Foo.md": "---\nauthor: X\n---\nyear:: 1969\n",
	})}

	doc := fields.NewDocument(store, "Books/Foo.md", nil, fields.WithNotFound(vault.IsNotFound))
	assert.Equal(t, "Books/Foo.md", doc.Path())

	got := doc.Get(ctx, "author")
	assert.True(t, got.OK())
	assert.Equal(t, "X", got.Value)

	assert.Equal(t, fields.Absent, doc.Get(ctx, "missing").Status)

	require.NoError(t, doc.Set(ctx, "year", "1970"))
	require.NoError(t, doc.Set(ctx, "year", "1970"))
	assert.Equal(t, 1, store.writes, "unchanged value must not be written again")

	text, err := store.Memory.Read(ctx, "Books/Foo.md")
	require.NoError(t, err)
	assert.Equal(t, "---\nauthor: X\n---\nyear:: 1970\n", text)
}

func Test_Document_DegradesToAbsent_When_DocumentMissing(t *testing.T) {
	t.Parallel()

	store := vault.NewMemory(nil)

	doc := fields.NewDocument(store, "gone.md", nil, fields.WithNotFound(vault.IsNotFound))
	got := doc.Get(t.Context(), "k")
	assert.Equal(t, fields.Absent, got.Status)
	require.NoError(t, got.Err)

	// Without the predicate a missing document is a per-field failure.
	got = fields.NewDocument(store, "gone.md", nil).Get(t.Context(), "k")
	assert.Equal(t, fields.Failed, got.Status)
	require.ErrorIs(t, got.Err, vault.ErrNotFound)
	assert.True(t, fields.IsAccessError(got.Err))

	err := doc.Set(t.Context(), "k", "v")
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func Test_Document_IsolatesBadField_When_OneValueMalformed(t *testing.T) {
	t.Parallel()

	store := vault.NewMemory(map[string]string{
		"a.md": "---\nbad: \"open\ngood: fine\n---\n",
	})
	doc := fields.NewDocument(store, "a.md", nil)

	bad := doc.Get(t.Context(), "bad")
	assert.Equal(t, fields.Failed, bad.Status)
	require.ErrorIs(t, bad.Err, fields.ErrMalformedValue)

	var fe *fields.Error
	require.ErrorAs(t, bad.Err, &fe)
	assert.Equal(t, "bad", fe.Field)
	assert.Equal(t, "a.md", fe.Path)

	good := doc.Get(t.Context(), "good")
	assert.True(t, good.OK())
	assert.Equal(t, "fine", good.Value)
}

func Test_Document_ReportsFailure_When_StoreReadFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	store := &countingStore{Memory: vault.NewMemory(nil), readErr: boom}

	got := fields.NewDocument(store, "a.md", nil, fields.WithNotFound(vault.IsNotFound)).Get(t.Context(), "k")
	assert.Equal(t, fields.Failed, got.Status)
	require.ErrorIs(t, got.Err, boom)
	assert.Equal(t, "failed", got.Status.String())
}

func Test_Buffer_UsesSelector_When_FieldHasKind(t *testing.T) {
	t.Parallel()

	sel := fields.Selector(func(name string) fields.Codec {
		if name == "rating" {
			return fields.Inline{}
		}

		return nil
	})

	buf := fields.NewBuffer("# Title\n", sel)
	require.NoError(t, buf.Set(t.Context(), "rating", "5"))
	require.NoError(t, buf.Set(t.Context(), "author", "X"))

	assert.Equal(t, "---\nauthor: X\n---\nrating:: 5\n# Title\n", buf.Text())
	assert.Equal(t, "5", buf.Get(t.Context(), "rating").Value)
	assert.Equal(t, "X", buf.Get(t.Context(), "author").Value)

	err := buf.Set(t.Context(), "rating", "two\nlines")
	require.ErrorIs(t, err, fields.ErrUnrepresentable)
}

func Test_Select_ReturnsBuffer_When_PathMissing(t *testing.T) {
	t.Parallel()

	store := vault.NewMemory(map[string]string{"a.md": "k:: v\n"})

	acc, err := fields.Select(t.Context(), store, "a.md", nil)
	require.NoError(t, err)
	assert.IsType(t, &fields.Document{}, acc)
	assert.Equal(t, "v", acc.Get(t.Context(), "k").Value)

	acc, err = fields.Select(t.Context(), store, "new.md", nil)
	require.NoError(t, err)
	assert.IsType(t, &fields.Buffer{}, acc)
	assert.Equal(t, fields.Absent, acc.Get(t.Context(), "k").Status)
}
