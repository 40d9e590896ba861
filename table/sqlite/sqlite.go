// Package sqlite provides a core.Backend persisting every table in a single
// SQLite database through the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/hupe1980/entitymesh/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	registry TEXT NOT NULL,
	type     TEXT NOT NULL,
	id       TEXT NOT NULL,
	data     TEXT NOT NULL,
	PRIMARY KEY (registry, type, id)
);`

// Backend implements core.Backend on one *sql.DB.
type Backend struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

var _ core.Backend = (*Backend)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Backend{db: db}, nil
}

// Table returns the rows of (regName, t).
func (b *Backend) Table(_ context.Context, regName string, t core.EntryType) (core.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, core.ErrBackendClosed
	}
	return &Table{db: b.db, reg: regName, typ: string(t)}, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// Table is the slice of the records table for one registry and type.
// Scan yields rows in insertion order.
type Table struct {
	db  *sql.DB
	reg string
	typ string
}

var _ core.Table = (*Table)(nil)

func (t *Table) Get(ctx context.Context, id string) (core.Record, bool, error) {
	var data string
	err := t.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE registry = ? AND type = ? AND id = ?`,
		t.reg, t.typ, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s/%s: %w", t.typ, id, err)
	}
	rec, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *Table) Put(ctx context.Context, id string, rec core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", id, err)
	}
	_, err = t.db.ExecContext(ctx,
		`INSERT INTO records (registry, type, id, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT (registry, type, id) DO UPDATE SET data = excluded.data`,
		t.reg, t.typ, id, string(data))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", t.typ, id, err)
	}
	return nil
}

func (t *Table) Delete(ctx context.Context, id string) (core.Record, bool, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM records WHERE registry = ? AND type = ? AND id = ?`,
		t.reg, t.typ, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s/%s: %w", t.typ, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE registry = ? AND type = ? AND id = ?`,
		t.reg, t.typ, id); err != nil {
		return nil, false, fmt.Errorf("delete %s/%s: %w", t.typ, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	rec, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *Table) Has(ctx context.Context, id string) (bool, error) {
	var n int
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM records WHERE registry = ? AND type = ? AND id = ?`,
		t.reg, t.typ, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count %s/%s: %w", t.typ, id, err)
	}
	return n > 0, nil
}

func (t *Table) Scan(ctx context.Context, fn func(id string, rec core.Record) bool) error {
	// Rows are buffered so fn may call back into the database.
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, data FROM records WHERE registry = ? AND type = ? ORDER BY rowid`,
		t.reg, t.typ)
	if err != nil {
		return fmt.Errorf("scan %s: %w", t.typ, err)
	}

	type row struct{ id, data string }
	var buf []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.data); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan %s: %w", t.typ, err)
		}
		buf = append(buf, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("scan %s: %w", t.typ, err)
	}
	_ = rows.Close()

	for _, r := range buf {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := decode(r.data)
		if err != nil {
			return err
		}
		if !fn(r.id, rec) {
			return nil
		}
	}
	return nil
}

func decode(data string) (core.Record, error) {
	var rec core.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if rec == nil {
		rec = core.Record{}
	}
	return rec, nil
}
