// Package statedb is the durable storage collaborator: a SQLite file
// holding the serialized engine state, an append-only click log, and
// named cursors. The engine itself never touches SQL.
package statedb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database backing clickpulse state.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS state (
	  id INTEGER PRIMARY KEY CHECK (id=1),
	  blob TEXT NOT NULL,
	  saved_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS clicks (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  count INTEGER NOT NULL,
	  ok INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clicks_ts ON clicks(ts);
	CREATE TABLE IF NOT EXISTS cursors (
	  name TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	`)
	return err
}

// SaveState upserts the serialized engine state. A single statement,
// so a crash mid-save never leaves a torn blob.
func (d *DB) SaveState(ctx context.Context, blob []byte) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO state(id, blob, saved_at) VALUES(1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET blob=excluded.blob, saved_at=excluded.saved_at`,
		string(blob), time.Now().UTC().UnixMilli())
	return err
}

// LoadState returns the stored blob, or ok=false when nothing has been
// saved yet. An absent state is not an error.
func (d *DB) LoadState(ctx context.Context) ([]byte, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT blob FROM state WHERE id=1`)
	var blob string
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(blob), true, nil
}

// Click is one row of the append-only click log.
type Click struct {
	TS    time.Time
	Count int
	OK    bool
}

// PutClick appends one click event to the log.
func (d *DB) PutClick(ctx context.Context, ts time.Time, count int, ok bool) error {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO clicks(ts, count, ok) VALUES(?,?,?)`,
		ts.UTC().UnixMilli(), count, okInt)
	return err
}

// LoadClicksRange returns click events with ts in [start, end) ordered
// ascending.
func (d *DB) LoadClicksRange(ctx context.Context, start, end time.Time) ([]Click, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT ts, count, ok FROM clicks WHERE ts>=? AND ts<? ORDER BY ts`,
		start.UTC().UnixMilli(), end.UTC().UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Click
	for rows.Next() {
		var ts int64
		var count, okInt int
		if err := rows.Scan(&ts, &count, &okInt); err != nil {
			return nil, err
		}
		out = append(out, Click{TS: time.UnixMilli(ts).UTC(), Count: count, OK: okInt != 0})
	}
	return out, rows.Err()
}

// CountClicksWithin sums click counts with ts in [start, end).
func (d *DB) CountClicksWithin(ctx context.Context, start, end time.Time) (int, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0) FROM clicks WHERE ts>=? AND ts<?`,
		start.UTC().UnixMilli(), end.UTC().UnixMilli())
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SaveCursor upserts a named cursor value.
func (d *DB) SaveCursor(ctx context.Context, name, value string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO cursors(name, value) VALUES(?,?)
		 ON CONFLICT(name) DO UPDATE SET value=excluded.value`, name, value)
	return err
}

// LoadCursor returns the value of a named cursor, empty when unset.
func (d *DB) LoadCursor(ctx context.Context, name string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE name=?`, name)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}
