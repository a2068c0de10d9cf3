package driver

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rustyeddy/jantrader/market"
)

// YahooDriver reads Yahoo Finance style CSV:
//
//	Date,Open,High,Low,Close,Volume,Adj Close
//
// A header row is optional. When present its column names decide the field
// order, so the newer "...,Close,Adj Close,Volume" layout also works and a
// missing Adj Close column falls back to Close. Files ending in .gz or .xz
// are decompressed on the fly. Rows may come in any date order.
type YahooDriver struct {
	name string
	rc   io.ReadCloser
	r    *csv.Reader

	cols     yahooColumns
	sawFirst bool
	record   int
	eof      bool
}

var _ Driver = (*YahooDriver)(nil)

type yahooColumns struct {
	date, open, high, low, close, volume, adj int

	n int // fields per row
}

var yahooClassic = yahooColumns{date: 0, open: 1, high: 2, low: 3, close: 4, volume: 5, adj: 6, n: 7}

func NewYahooDriver() *YahooDriver { return &YahooDriver{} }

func (d *YahooDriver) Open(ctx context.Context, path string) error {
	_ = d.Close()

	rc, err := openFile(path)
	if err != nil {
		return fmt.Errorf("yahoo: open %s: %w", path, err)
	}
	d.attach(path, rc)
	return nil
}

// attach starts reading rc as a source called name.
func (d *YahooDriver) attach(name string, rc io.ReadCloser) {
	d.name = name
	d.rc = rc
	d.r = csv.NewReader(rc)
	d.r.FieldsPerRecord = -1
	d.r.TrimLeadingSpace = true
	d.cols = yahooClassic
	d.sawFirst = false
	d.record = 0
	d.eof = false
}

func (d *YahooDriver) Next() (market.DayPrice, bool, error) {
	if d.r == nil || d.eof {
		return market.DayPrice{}, false, nil
	}

	for {
		row, err := d.r.Read()
		if err == io.EOF {
			d.eof = true
			return market.DayPrice{}, false, nil
		}
		if err != nil {
			pe := &ParseError{Source: d.name, Record: d.record + 1, Err: err}
			var ce *csv.ParseError
			if errors.As(err, &ce) {
				pe.Line = ce.Line
			}
			return market.DayPrice{}, false, pe
		}
		line, _ := d.r.FieldPos(0)

		// Allow a single header row
		if !d.sawFirst {
			d.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				cols, err := yahooHeader(row)
				if err != nil {
					return market.DayPrice{}, false, &ParseError{Source: d.name, Line: line, Err: err}
				}
				d.cols = cols
				continue
			}
		}

		d.record++
		p, field, err := d.cols.parse(row)
		if err != nil {
			return market.DayPrice{}, false, &ParseError{
				Source: d.name,
				Line:   line,
				Record: d.record,
				Field:  field,
				Err:    err,
			}
		}
		return p, true, nil
	}
}

func (d *YahooDriver) EOF() bool { return d.eof }

func (d *YahooDriver) Close() error {
	var err error
	if d.rc != nil {
		err = d.rc.Close()
	}
	*d = YahooDriver{}
	return err
}

func yahooHeader(row []string) (yahooColumns, error) {
	c := yahooColumns{date: -1, open: -1, high: -1, low: -1, close: -1, volume: -1, adj: -1, n: len(row)}
	for i, name := range row {
		key := strings.ToLower(strings.Join(strings.Fields(name), ""))
		key = strings.ReplaceAll(key, "_", "")
		switch key {
		case "date":
			c.date = i
		case "open":
			c.open = i
		case "high":
			c.high = i
		case "low":
			c.low = i
		case "close":
			c.close = i
		case "volume":
			c.volume = i
		case "adjclose":
			c.adj = i
		default:
			return c, fmt.Errorf("unknown column %q", strings.TrimSpace(name))
		}
	}
	if c.date < 0 || c.close < 0 {
		return c, fmt.Errorf("header needs Date and Close columns")
	}
	return c, nil
}

// parse converts one row. On failure it names the offending field.
func (c yahooColumns) parse(row []string) (market.DayPrice, string, error) {
	if len(row) != c.n {
		return market.DayPrice{}, "", fmt.Errorf("expected %d fields, got %d", c.n, len(row))
	}

	var (
		p   market.DayPrice
		err error
	)

	p.Date, err = market.ParseDate(row[c.date])
	if err != nil {
		return market.DayPrice{}, "date", err
	}

	prices := []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"open", c.open, &p.Open},
		{"high", c.high, &p.High},
		{"low", c.low, &p.Low},
		{"close", c.close, &p.Close},
		{"adjclose", c.adj, &p.AdjClose},
	}
	for _, f := range prices {
		if f.idx < 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[f.idx]), 64)
		if err != nil {
			return market.DayPrice{}, f.name, fmt.Errorf("bad %s %q", f.name, row[f.idx])
		}
		*f.dst = v
	}

	if c.volume >= 0 {
		p.Volume, err = parseVolume(row[c.volume])
		if err != nil {
			return market.DayPrice{}, "volume", err
		}
	}

	p.FillFromClose()
	if err := p.Validate(); err != nil {
		return market.DayPrice{}, "", err
	}
	return p, "", nil
}

func parseVolume(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("bad volume %q", s)
	}
	return int64(f), nil
}
