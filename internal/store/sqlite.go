package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "crisis-replay/internal/errors"
)

// SQLiteStore implements ScenarioStore on a read-only SQLite connection.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens the database at dbPath read-only. A missing file is
// reported as ErrStoreUnavailable; it is never created.
func OpenSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, apperrors.NewStoreError("open", dbPath, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}
	if info.IsDir() {
		return nil, apperrors.NewStoreError("open", dbPath, fmt.Errorf("%w: is a directory", apperrors.ErrStoreUnavailable))
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStoreError("open", dbPath, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}

	// The loader issues its queries one after another.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStoreError("ping", dbPath, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Instruments
// ============================================================================

// ListFunds returns every fund ordered by code.
func (s *SQLiteStore) ListFunds(ctx context.Context) ([]Instrument, error) {
	return s.listInstruments(ctx, "funds", `SELECT fund_code, fund_name FROM funds ORDER BY fund_code`)
}

// ListIndices returns every index ordered by code.
func (s *SQLiteStore) ListIndices(ctx context.Context) ([]Instrument, error) {
	return s.listInstruments(ctx, "indices", `SELECT index_code, index_name FROM indices ORDER BY index_code`)
}

func (s *SQLiteStore) listInstruments(ctx context.Context, table, query string) ([]Instrument, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewStoreError("list "+table, s.path, err)
	}
	defer rows.Close()

	var instruments []Instrument
	for rows.Next() {
		var code string
		var name sql.NullString
		if err := rows.Scan(&code, &name); err != nil {
			return nil, apperrors.NewStoreError("scan "+table, s.path, err)
		}
		instruments = append(instruments, Instrument{Code: code, Name: name.String})
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("iterate "+table, s.path, err)
	}

	return instruments, nil
}

// ============================================================================
// Series
// ============================================================================

// FundNAV returns the NAV rows of one fund ordered by date.
func (s *SQLiteStore) FundNAV(ctx context.Context, code string) ([]NAVRow, error) {
	if err := s.requireTable(ctx, "fund_nav"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, unit_nav, acc_nav, daily_growth, status_purchase, status_redeem
		FROM fund_nav
		WHERE fund_code = ?
		ORDER BY date ASC
	`, code)
	if err != nil {
		return nil, apperrors.NewStoreError("query fund_nav", s.path, err)
	}
	defer rows.Close()

	var navs []NAVRow
	for rows.Next() {
		var r NAVRow
		var date any
		if err := rows.Scan(&date, &r.UnitNAV, &r.AccNAV, &r.DailyGrowth, &r.StatusPurchase, &r.StatusRedeem); err != nil {
			return nil, apperrors.NewStoreError("scan fund_nav", s.path, err)
		}
		r.Date = dateText(date)
		navs = append(navs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("iterate fund_nav", s.path, err)
	}

	return navs, nil
}

// IndexData returns the rows of one index ordered by date.
func (s *SQLiteStore) IndexData(ctx context.Context, code string) ([]IndexRow, error) {
	if err := s.requireTable(ctx, "index_data"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, close, open, high, low, volume, change_pct
		FROM index_data
		WHERE index_code = ?
		ORDER BY date ASC
	`, code)
	if err != nil {
		return nil, apperrors.NewStoreError("query index_data", s.path, err)
	}
	defer rows.Close()

	var data []IndexRow
	for rows.Next() {
		var r IndexRow
		var date any
		if err := rows.Scan(&date, &r.Close, &r.Open, &r.High, &r.Low, &r.Volume, &r.ChangePct); err != nil {
			return nil, apperrors.NewStoreError("scan index_data", s.path, err)
		}
		r.Date = dateText(date)
		data = append(data, r)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("iterate index_data", s.path, err)
	}

	return data, nil
}

// ============================================================================
// Helpers
// ============================================================================

// HasTable reports whether the named table exists.
func (s *SQLiteStore) HasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?
	`, name).Scan(&n)
	if err != nil {
		return false, apperrors.NewStoreError("lookup table "+name, s.path, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) requireTable(ctx context.Context, name string) error {
	ok, err := s.HasTable(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewStoreError("lookup table "+name, s.path, fmt.Errorf("%w: %s", apperrors.ErrTableMissing, name))
	}
	return nil
}

// dateText renders a scanned date column as text. Drivers may return TEXT
// columns as string or []byte and typed date columns as time.Time.
func dateText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
