// Package store provides read-only access to a scenario's relational store.
package store

import (
	"context"
	"database/sql"
)

// ScenarioStore defines the read-only queries the scenario loader needs.
type ScenarioStore interface {
	// Instruments
	ListFunds(ctx context.Context) ([]Instrument, error)
	ListIndices(ctx context.Context) ([]Instrument, error)

	// Series, ordered ascending by date
	FundNAV(ctx context.Context, code string) ([]NAVRow, error)
	IndexData(ctx context.Context, code string) ([]IndexRow, error)

	// Lifecycle
	Close() error
}

// Instrument is one row of the funds or indices table.
type Instrument struct {
	Code string
	Name string
}

// NAVRow is one raw fund_nav row. Numeric columns are returned as stored
// (float64, int64, string or nil) and coerced by the loader.
type NAVRow struct {
	Date           string
	UnitNAV        any
	AccNAV         any
	DailyGrowth    any
	StatusPurchase sql.NullString
	StatusRedeem   sql.NullString
}

// IndexRow is one raw index_data row.
type IndexRow struct {
	Date      string
	Close     any
	Open      any
	High      any
	Low       any
	Volume    any
	ChangePct any
}

// Schema is the layout of a scenario store. The loader only reads it; the
// conversion tooling and test fixtures create it.
const Schema = `
CREATE TABLE IF NOT EXISTS funds (
	fund_code TEXT PRIMARY KEY,
	fund_name TEXT
);

CREATE TABLE IF NOT EXISTS fund_nav (
	fund_code TEXT,
	date TEXT,
	unit_nav REAL,
	acc_nav REAL,
	daily_growth REAL,
	status_purchase TEXT,
	status_redeem TEXT,
	PRIMARY KEY (fund_code, date),
	FOREIGN KEY (fund_code) REFERENCES funds(fund_code)
);

CREATE TABLE IF NOT EXISTS indices (
	index_code TEXT PRIMARY KEY,
	index_name TEXT
);

CREATE TABLE IF NOT EXISTS index_data (
	index_code TEXT,
	date TEXT,
	close REAL,
	open REAL,
	high REAL,
	low REAL,
	volume TEXT,
	change_pct TEXT,
	PRIMARY KEY (index_code, date),
	FOREIGN KEY (index_code) REFERENCES indices(index_code)
);
`
