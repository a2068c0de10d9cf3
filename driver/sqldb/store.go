// Package sqldb keeps end-of-day prices in a SQL database and reads them back
// through the driver.Driver interface. SQLite and Postgres are supported.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/jantrader/market"
)

const Schema = `
CREATE TABLE IF NOT EXISTS eod_prices (
	symbol TEXT NOT NULL,
	day TEXT NOT NULL,
	open DOUBLE PRECISION NOT NULL,
	high DOUBLE PRECISION NOT NULL,
	low DOUBLE PRECISION NOT NULL,
	close DOUBLE PRECISION NOT NULL,
	adj_close DOUBLE PRECISION NOT NULL,
	volume BIGINT NOT NULL,
	PRIMARY KEY (symbol, day)
);
`

const upsertPrice = `
INSERT INTO eod_prices (symbol, day, open, high, low, close, adj_close, volume)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (symbol, day) DO UPDATE SET
	open = excluded.open,
	high = excluded.high,
	low = excluded.low,
	close = excluded.close,
	adj_close = excluded.adj_close,
	volume = excluded.volume`

const selectPrices = `
SELECT day, open, high, low, close, adj_close, volume
FROM eod_prices WHERE symbol = ? ORDER BY day`

var ErrNoSymbol = errors.New("sqldb: symbol is required")

type dialect int

const (
	sqlite dialect = iota
	postgres
)

// Store is a price database.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite opens (creating if needed) the SQLite database at path.
func NewSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return newStore(db, sqlite)
}

// NewPostgres connects to the Postgres database at dsn.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return newStore(db, postgres)
}

func newStore(db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if _, err := db.ExecContext(context.Background(), Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqldb: create schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders as $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Import validates recs and upserts them under symbol in one transaction.
// It returns the number of records written.
func (s *Store) Import(ctx context.Context, symbol string, recs []market.DayPrice) (int, error) {
	if symbol == "" {
		return 0, ErrNoSymbol
	}
	for _, p := range recs {
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("sqldb: import %s: %w", symbol, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertPrice))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, p := range recs {
		_, err := stmt.ExecContext(ctx, symbol, p.Date.String(),
			p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume)
		if err != nil {
			return 0, fmt.Errorf("sqldb: import %s %s: %w", symbol, p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Symbols lists the stored symbols in ascending order.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM eod_prices ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Count returns how many records are stored for symbol.
func (s *Store) Count(ctx context.Context, symbol string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM eod_prices WHERE symbol = ?`), symbol).Scan(&n)
	return n, err
}

// Driver returns a new driver reading from this store. The source passed to
// its Open is the symbol.
func (s *Store) Driver() *Driver {
	return &Driver{store: s}
}
