package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rustyeddy/jantrader/driver"
	"github.com/rustyeddy/jantrader/market"
)

// Driver streams one symbol's rows ordered by day.
type Driver struct {
	store *Store

	symbol string
	rows   *sql.Rows
	record int
	eof    bool
}

var _ driver.Driver = (*Driver)(nil)

func (d *Driver) Open(ctx context.Context, symbol string) error {
	_ = d.Close()

	if symbol == "" {
		return ErrNoSymbol
	}
	rows, err := d.store.db.QueryContext(ctx, d.store.rebind(selectPrices), symbol)
	if err != nil {
		return fmt.Errorf("sqldb: query %s: %w", symbol, err)
	}
	d.symbol = symbol
	d.rows = rows
	return nil
}

func (d *Driver) Next() (market.DayPrice, bool, error) {
	if d.rows == nil || d.eof {
		return market.DayPrice{}, false, nil
	}

	if !d.rows.Next() {
		d.eof = true
		if err := d.rows.Err(); err != nil {
			return market.DayPrice{}, false, &driver.ParseError{Source: d.symbol, Record: d.record + 1, Err: err}
		}
		return market.DayPrice{}, false, nil
	}
	d.record++

	var (
		day string
		p   market.DayPrice
	)
	if err := d.rows.Scan(&day, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume); err != nil {
		return market.DayPrice{}, false, &driver.ParseError{Source: d.symbol, Record: d.record, Err: err}
	}

	date, err := market.ParseDate(day)
	if err != nil {
		return market.DayPrice{}, false, &driver.ParseError{Source: d.symbol, Record: d.record, Field: "day", Err: err}
	}
	p.Date = date

	if err := p.Validate(); err != nil {
		return market.DayPrice{}, false, &driver.ParseError{Source: d.symbol, Record: d.record, Err: err}
	}
	return p, true, nil
}

func (d *Driver) EOF() bool { return d.eof }

func (d *Driver) Close() error {
	var err error
	if d.rows != nil {
		err = d.rows.Close()
	}
	d.symbol = ""
	d.rows = nil
	d.record = 0
	d.eof = false
	return err
}
