package vault_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/typing/pkg/vault"
)

// storages returns each implementation over the same seed documents.
func storages(t *testing.T, seed map[string]string) map[string]vault.Storage {
	t.Helper()

	root := t.TempDir()
	for p, text := range seed {
		abs := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(text), 0o644))
	}

	dir, err := vault.NewDir(root)
	require.NoError(t, err)

	return map[string]vault.Storage{
		"dir":    dir,
		"memory": vault.NewMemory(seed),
	}
}

func Test_Storage_ReadWrite_When_DocumentExists(t *testing.T) {
	t.Parallel()

	for name, s := range storages(t, map[string]string{"Books/Foo.md": "foo"}) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			text, err := s.Read(ctx, "Books/Foo.md")
			require.NoError(t, err)
			assert.Equal(t, "foo", text)

			require.NoError(t, s.Write(ctx, "Books/Deep/Bar.md", "bar"))

			text, err = s.Read(ctx, "./Books/Deep/../Deep/Bar.md")
			require.NoError(t, err)
			assert.Equal(t, "bar", text)

			_, err = s.Read(ctx, "Books/Missing.md")
			require.ErrorIs(t, err, vault.ErrNotFound)
			assert.True(t, vault.IsNotFound(err))

			var verr *vault.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "read", verr.Op)
			assert.Equal(t, "Books/Missing.md", verr.Path)

			_, err = s.Read(ctx, "Books")
			require.ErrorIs(t, err, vault.ErrIsFolder)
		})
	}
}

func Test_Storage_RejectsPath_When_EscapingRoot(t *testing.T) {
	t.Parallel()

	for name, s := range storages(t, nil) {
		t.Run(name, func(t *testing.T) {
			for _, p := range []string{"../x.md", "/abs.md", "a/../../x.md"} {
				_, err := s.Read(t.Context(), p)
				require.ErrorIs(t, err, vault.ErrInvalidPath, p)
			}
		})
	}
}

func Test_Storage_Rename_When_TargetFreeOrTaken(t *testing.T) {
	t.Parallel()

	seed := map[string]string{"a.md": "A", "b.md": "B"}

	for name, s := range storages(t, seed) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			err := s.Rename(ctx, "a.md", "b.md")
			require.ErrorIs(t, err, vault.ErrExists)

			err = s.Rename(ctx, "missing.md", "c.md")
			require.ErrorIs(t, err, vault.ErrNotFound)

			require.NoError(t, s.Rename(ctx, "a.md", "Sub/c.md"))

			ok, err := s.Exists(ctx, "a.md")
			require.NoError(t, err)
			assert.False(t, ok)

			text, err := s.Read(ctx, "Sub/c.md")
			require.NoError(t, err)
			assert.Equal(t, "A", text)

			require.NoError(t, s.Rename(ctx, "b.md", "b.md"))
		})
	}
}

func Test_Storage_ListChildren_Sorted(t *testing.T) {
	t.Parallel()

	seed := map[string]string{
		"z.md":           "",
		"Books/b.md":     "",
		"Books/a.md":     "",
		"Books/Sub/c.md": "",
	}

	for name, s := range storages(t, seed) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			got, err := s.ListChildren(ctx, "Books")
			require.NoError(t, err)

			want := []vault.Entry{
				{Path: "Books/Sub", Folder: true},
				{Path: "Books/a.md"},
				{Path: "Books/b.md"},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("children mismatch (-want +got):\n%s", diff)
			}

			root, err := s.ListChildren(ctx, "")
			require.NoError(t, err)
			require.Len(t, root, 2)
			assert.Equal(t, "Books", root[0].Name())

			_, err = s.ListChildren(ctx, "z.md")
			require.ErrorIs(t, err, vault.ErrNotFolder)

			_, err = s.ListChildren(ctx, "Nope")
			require.ErrorIs(t, err, vault.ErrNotFound)
		})
	}
}

func Test_Memory_Watch_FiresOnWriteAndRename(t *testing.T) {
	t.Parallel()

	m := vault.NewMemory(map[string]string{"cfg.json": "{}"})

	var calls atomic.Int32

	stop, err := m.Watch(t.Context(), "cfg.json", func(p string) {
		assert.Equal(t, "cfg.json", p)
		calls.Add(1)
	})
	require.NoError(t, err)

	require.NoError(t, m.Write(t.Context(), "cfg.json", `{"a":1}`))
	require.NoError(t, m.Write(t.Context(), "other.json", `{}`))
	require.NoError(t, m.Rename(t.Context(), "cfg.json", "moved.json"))
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, stop())
	require.NoError(t, stop())
	require.NoError(t, m.Write(t.Context(), "cfg.json", `{}`))
	assert.Equal(t, int32(2), calls.Load())
}

func Test_Dir_Watch_FiresOnWrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d, err := vault.NewDir(root)
	require.NoError(t, err)

	require.NoError(t, d.Write(t.Context(), "cfg.json", "{}"))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var calls atomic.Int32

	stop, err := d.Watch(ctx, "cfg.json", func(string) { calls.Add(1) })
	require.NoError(t, err)

	defer func() { _ = stop() }()

	require.NoError(t, d.Write(t.Context(), "sibling.json", "{}"))
	require.NoError(t, d.Write(t.Context(), "cfg.json", `{"a":1}`))

	require.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
}

func Test_NewDir_Fails_When_RootIsNotADirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := vault.NewDir(file)
	require.ErrorIs(t, err, vault.ErrNotFolder)

	_, err = vault.NewDir(filepath.Join(root, "missing"))
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func Test_Clean_Parent_Join(t *testing.T) {
	t.Parallel()

	p, err := vault.Clean(`Books\Foo.md`)
	require.NoError(t, err)
	assert.Equal(t, "Books/Foo.md", p)

	p, err = vault.Clean(".")
	require.NoError(t, err)
	assert.Empty(t, p)

	assert.Equal(t, "Books", vault.Parent("Books/Foo.md"))
	assert.Empty(t, vault.Parent("Foo.md"))
	assert.Equal(t, "Foo.md", vault.Join("", "Foo.md"))
	assert.Equal(t, "A/B/Foo.md", vault.Join("A/B", "Foo.md"))
}
