// Package storetest builds scenario databases for tests.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"crisis-replay/internal/store"
)

// DB is a writable scenario database under construction.
type DB struct {
	t    testing.TB
	db   *sql.DB
	Path string
}

// New creates an empty scenario database with the full schema in a
// temporary directory.
func New(t testing.TB) *DB {
	t.Helper()
	return NewAt(t, filepath.Join(t.TempDir(), "fund_crisis.db"), store.Schema)
}

// NewAt creates a database at path and executes schema on it.
func NewAt(t testing.TB, path, schema string) *DB {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to open fixture database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if schema != "" {
		if _, err := db.Exec(schema); err != nil {
			t.Fatalf("Failed to create fixture schema: %v", err)
		}
	}

	return &DB{t: t, db: db, Path: path}
}

// Exec runs an arbitrary statement against the fixture.
func (d *DB) Exec(query string, args ...any) *DB {
	d.t.Helper()
	if _, err := d.db.Exec(query, args...); err != nil {
		d.t.Fatalf("Fixture statement failed: %v\n%s", err, query)
	}
	return d
}

// Fund registers a fund.
func (d *DB) Fund(code, name string) *DB {
	d.t.Helper()
	return d.Exec(`INSERT INTO funds (fund_code, fund_name) VALUES (?, ?)`, code, name)
}

// NAV inserts one fund_nav row. growth may be a float, a percent string or nil.
func (d *DB) NAV(code, date string, unitNAV, accNAV, growth any) *DB {
	d.t.Helper()
	return d.Exec(`
		INSERT INTO fund_nav (fund_code, date, unit_nav, acc_nav, daily_growth, status_purchase, status_redeem)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, code, date, unitNAV, accNAV, growth, "开放申购", "开放赎回")
}

// NAVDays inserts one NAV row per date with a constant unit NAV.
func (d *DB) NAVDays(code string, nav float64, dates ...string) *DB {
	d.t.Helper()
	for _, date := range dates {
		d.NAV(code, date, nav, nav, 0.0)
	}
	return d
}

// Index registers an index.
func (d *DB) Index(code, name string) *DB {
	d.t.Helper()
	return d.Exec(`INSERT INTO indices (index_code, index_name) VALUES (?, ?)`, code, name)
}

// IndexRow inserts one index_data row.
func (d *DB) IndexRow(code, date string, closeValue, openValue any, volume, changePct string) *DB {
	d.t.Helper()
	return d.Exec(`
		INSERT INTO index_data (index_code, date, close, open, high, low, volume, change_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, code, date, closeValue, openValue, closeValue, openValue, volume, changePct)
}

// Close closes the fixture connection so the file can be opened read-only.
func (d *DB) Close() string {
	d.t.Helper()
	if err := d.db.Close(); err != nil {
		d.t.Fatalf("Failed to close fixture database: %v", err)
	}
	return d.Path
}
