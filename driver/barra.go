package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rustyeddy/jantrader/market"
)

// BarraDriver reads two column "date close" files. The first line is always
// a header and is skipped. Fields are separated by any run of spaces,
// commas or tabs. Open, high, low and adjusted close are set from close.
type BarraDriver struct {
	name string
	rc   io.ReadCloser
	sc   *bufio.Scanner

	line   int
	record int
	eof    bool
}

var _ Driver = (*BarraDriver)(nil)

func NewBarraDriver() *BarraDriver { return &BarraDriver{} }

func (d *BarraDriver) Open(ctx context.Context, path string) error {
	_ = d.Close()

	rc, err := openFile(path)
	if err != nil {
		return fmt.Errorf("barra: open %s: %w", path, err)
	}
	d.name = path
	d.rc = rc
	d.sc = bufio.NewScanner(rc)
	d.sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// First line is the header
	if !d.sc.Scan() {
		d.eof = true
		if err := d.sc.Err(); err != nil {
			_ = d.Close()
			return fmt.Errorf("barra: read %s: %w", path, err)
		}
		return nil
	}
	d.line = 1
	return nil
}

func (d *BarraDriver) Next() (market.DayPrice, bool, error) {
	if d.sc == nil || d.eof {
		return market.DayPrice{}, false, nil
	}

	for {
		if !d.sc.Scan() {
			d.eof = true
			if err := d.sc.Err(); err != nil {
				return market.DayPrice{}, false, &ParseError{Source: d.name, Line: d.line + 1, Record: d.record + 1, Err: err}
			}
			return market.DayPrice{}, false, nil
		}
		d.line++

		fields := strings.FieldsFunc(d.sc.Text(), isBarraSep)
		if len(fields) == 0 {
			continue
		}
		d.record++

		p, field, err := parseBarra(fields)
		if err != nil {
			return market.DayPrice{}, false, &ParseError{
				Source: d.name,
				Line:   d.line,
				Record: d.record,
				Field:  field,
				Err:    err,
			}
		}
		return p, true, nil
	}
}

func (d *BarraDriver) EOF() bool { return d.eof }

func (d *BarraDriver) Close() error {
	var err error
	if d.rc != nil {
		err = d.rc.Close()
	}
	*d = BarraDriver{}
	return err
}

func isBarraSep(r rune) bool {
	switch r {
	case ' ', ',', '\t', '\r', '\n':
		return true
	}
	return false
}

func parseBarra(fields []string) (market.DayPrice, string, error) {
	var p market.DayPrice

	for i, field := range fields {
		switch i {
		case 0:
			d, err := market.ParseDate(field)
			if err != nil {
				return market.DayPrice{}, "date", fmt.Errorf("invalid key: %w", err)
			}
			p.Date = d
		case 1:
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return market.DayPrice{}, "close", fmt.Errorf("bad close %q", field)
			}
			p.Close = v
		default:
			return market.DayPrice{}, "", fmt.Errorf("unknown field %q", field)
		}
	}
	if len(fields) < 2 {
		return market.DayPrice{}, "close", fmt.Errorf("missing close")
	}

	p.FillFromClose()
	if err := p.Validate(); err != nil {
		return market.DayPrice{}, "", err
	}
	return p, "", nil
}
