// Package pgstore is a PostgreSQL-backed storage.Backend. PostgreSQL ships
// its own xid8/pg_snapshot machinery, but nothing in database/sql or
// lib/pq exposes it at the row level we need, so this package emulates
// xid allocation and in-flight tracking explicitly with an ordinary
// counter table and a transactions table (spec §9, Open Question OQ-1).
// The SQL shape (driver registration, migration runner, one struct per
// table) mirrors the teacher's internal/storage/sqlite package.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// Backend is a PostgreSQL implementation of storage.Backend.
type Backend struct {
	db *sql.DB
}

// Open connects to dsn (a postgres:// URL), verifies connectivity, and
// runs the schema migration. The caller must Close the returned Backend.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running schema migration: %w", err)
	}
	return &Backend{db: db}, nil
}

// Close implements storage.Backend.
func (b *Backend) Close() error { return b.db.Close() }

// CurrentSnapshot implements storage.Backend, reading outside any
// application transaction: callers that need a stable read across
// several queries should go through Begin instead.
func (b *Backend) CurrentSnapshot(ctx context.Context) (xtypes.Snapshot, error) {
	return readSnapshot(ctx, b.db)
}

// Begin implements storage.Backend, opening a serializable SQL
// transaction so concurrent Allocate calls never observe each other's
// uncommitted counter increments.
func (b *Backend) Begin(ctx context.Context) (storage.Tx, error) {
	sqlTx, err := b.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &tx{backend: b, sqlTx: sqlTx}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting read helpers
// run against either a standalone connection or an open transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readSnapshot(ctx context.Context, q querier) (xtypes.Snapshot, error) {
	snap := xtypes.Snapshot{Xmin: 1}
	if err := q.QueryRowContext(ctx, `SELECT next_xid FROM ligature_xid_counter WHERE id = 1`).Scan(&snap.Xmax); err != nil {
		return xtypes.Snapshot{}, fmt.Errorf("reading xid counter: %w", err)
	}
	rows, err := q.QueryContext(ctx, `SELECT xid FROM ligature_transactions WHERE status = 'in_progress'`)
	if err != nil {
		return xtypes.Snapshot{}, fmt.Errorf("reading in-flight transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var xid xtypes.XID
		if err := rows.Scan(&xid); err != nil {
			return xtypes.Snapshot{}, err
		}
		snap.InFlight = append(snap.InFlight, xid)
	}
	return snap, rows.Err()
}
