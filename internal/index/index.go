// Package index keeps a derived SQLite table of vault document paths so
// folder listings do not have to walk storage.
//
// The table is a cache: it can always be rebuilt from storage with
// [Index.Rebuild], and [Open] rebuilds it whenever the schema version on disk
// does not match.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/calvinalkan/typing/pkg/typing"
	"github.com/calvinalkan/typing/pkg/vault"
)

const schemaVersion = 1

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("index closed")

// Index is a SQLite-backed [typing.Index] that also tracks creates and
// renames.
type Index struct {
	storage vault.Storage
	sql     *sql.DB
}

var (
	_ typing.Index        = (*Index)(nil)
	_ typing.IndexUpdater = (*Index)(nil)
)

// Open opens or creates the index database at path for storage.
// If the schema version is missing or mismatched, it rebuilds from storage.
func Open(ctx context.Context, path string, storage vault.Storage) (*Index, error) {
	if ctx == nil {
		return nil, errors.New("open index: context is nil")
	}

	if storage == nil {
		return nil, errors.New("open index: storage is nil")
	}

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return nil, fmt.Errorf("open index: create directory: %w", err)
	}

	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	ix := &Index{storage: storage, sql: db}

	version, err := userVersion(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("open index: %w", err)
	}

	if version != schemaVersion {
		_, err = ix.Rebuild(ctx)
		if err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("open index: %w", err)
		}
	}

	return ix, nil
}

// Close releases the SQLite handle opened by Open.
func (ix *Index) Close() error {
	if ix == nil || ix.sql == nil {
		return nil
	}

	err := ix.sql.Close()
	ix.sql = nil

	if err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}

	return nil
}

// Rebuild drops the table and refills it by walking storage. Folders whose
// name starts with a dot are skipped. Returns the number of documents
// indexed.
func (ix *Index) Rebuild(ctx context.Context) (int, error) {
	if ix.sql == nil {
		return 0, ErrClosed
	}

	paths, err := scan(ctx, ix.storage, "")
	if err != nil {
		return 0, fmt.Errorf("scan vault: %w", err)
	}

	tx, err := ix.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild txn: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	err = createSchema(ctx, tx)
	if err != nil {
		return 0, err
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO documents (path, folder) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}

	defer func() { _ = insert.Close() }()

	for _, p := range paths {
		_, err = insert.ExecContext(ctx, p, vault.Parent(p))
		if err != nil {
			return 0, fmt.Errorf("insert index row for %s: %w", p, err)
		}
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	if err != nil {
		return 0, fmt.Errorf("set user_version: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("commit rebuild txn: %w", err)
	}

	committed = true

	return len(paths), nil
}

// PathsIn returns the indexed paths directly inside any of folders, sorted.
func (ix *Index) PathsIn(ctx context.Context, folders []string) ([]string, error) {
	if ix.sql == nil {
		return nil, ErrClosed
	}

	if len(folders) == 0 {
		return nil, nil
	}

	args := make([]any, len(folders))
	for i, f := range folders {
		args[i] = f
	}

	query := "SELECT path FROM documents WHERE folder IN (?" +
		strings.Repeat(", ?", len(folders)-1) + ") ORDER BY path"

	rows, err := ix.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []string

	for rows.Next() {
		var p string

		err = rows.Scan(&p)
		if err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}

	return out, nil
}

// Track records a new document.
func (ix *Index) Track(ctx context.Context, p string) error {
	if ix.sql == nil {
		return ErrClosed
	}

	_, err := ix.sql.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (path, folder) VALUES (?, ?)`, p, vault.Parent(p))
	if err != nil {
		return fmt.Errorf("track %s: %w", p, err)
	}

	return nil
}

// Move records a rename. An untracked source is tracked under its new path.
func (ix *Index) Move(ctx context.Context, from, to string) error {
	if ix.sql == nil {
		return ErrClosed
	}

	tx, err := ix.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move txn: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, from)
	if err != nil {
		return fmt.Errorf("move %s: %w", from, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (path, folder) VALUES (?, ?)`, to, vault.Parent(to))
	if err != nil {
		return fmt.Errorf("move %s: %w", to, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit move txn: %w", err)
	}

	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len(ctx context.Context) (int, error) {
	if ix.sql == nil {
		return 0, ErrClosed
	}

	var n int

	err := ix.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}

	return n, nil
}

func scan(ctx context.Context, storage vault.Storage, folder string) ([]string, error) {
	entries, err := storage.ListChildren(ctx, folder)
	if err != nil {
		return nil, err
	}

	var out []string

	for _, e := range entries {
		if !e.Folder {
			out = append(out, e.Path)

			continue
		}

		if strings.HasPrefix(e.Name(), ".") {
			continue
		}

		sub, err := scan(ctx, storage, e.Path)
		if err != nil {
			return nil, err
		}

		out = append(out, sub...)
	}

	return out, nil
}
