// Package alpaca reads daily bars from the Alpaca market data API.
package alpaca

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/jantrader/driver"
	"github.com/rustyeddy/jantrader/market"
)

// BarsClient is the part of *marketdata.Client the driver uses.
type BarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

var _ BarsClient = (*marketdata.Client)(nil)

var ErrNoClient = errors.New("alpaca: client is required")

// Driver fetches a symbol's daily bars between Start and End when opened.
// Bars are requested twice: raw for open/high/low/close/volume and fully
// adjusted for AdjClose. A bar missing from the adjusted set keeps its raw
// close.
type Driver struct {
	Client BarsClient
	Start  time.Time
	End    time.Time

	symbol string
	recs   []market.DayPrice
	pos    int
	open   bool
}

var _ driver.Driver = (*Driver)(nil)

// New builds a driver over a fresh marketdata client. Empty credentials let
// the client read APCA_API_KEY_ID and APCA_API_SECRET_KEY itself.
func New(opts marketdata.ClientOpts) *Driver {
	return &Driver{Client: marketdata.NewClient(opts)}
}

func (d *Driver) Open(ctx context.Context, symbol string) error {
	_ = d.Close()

	if d.Client == nil {
		return ErrNoClient
	}
	if symbol == "" {
		return fmt.Errorf("alpaca: symbol is required")
	}

	raw, err := d.bars(ctx, symbol, marketdata.Raw)
	if err != nil {
		return err
	}
	adj, err := d.bars(ctx, symbol, marketdata.All)
	if err != nil {
		return err
	}

	adjusted := make(map[market.Date]float64, len(adj))
	for _, b := range adj {
		adjusted[market.DateOf(b.Timestamp)] = b.Close
	}

	recs := make([]market.DayPrice, 0, len(raw))
	for _, b := range raw {
		p := market.DayPrice{
			Date:   market.DateOf(b.Timestamp),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		}
		if v, ok := adjusted[p.Date]; ok {
			p.AdjClose = v
		}
		recs = append(recs, p)
	}

	log.Debug().
		Str("symbol", symbol).
		Int("bars", len(raw)).
		Int("adjusted", len(adj)).
		Msg("alpaca bars fetched")

	d.symbol = symbol
	d.recs = recs
	d.open = true
	return nil
}

func (d *Driver) bars(ctx context.Context, symbol string, adj marketdata.Adjustment) ([]marketdata.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := d.Client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: adj,
		Start:      d.Start,
		End:        d.End,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca: bars %s: %w", symbol, err)
	}
	return bars, nil
}

func (d *Driver) Next() (market.DayPrice, bool, error) {
	if !d.open || d.EOF() {
		return market.DayPrice{}, false, nil
	}
	p := d.recs[d.pos]
	d.pos++

	p.FillFromClose()
	if err := p.Validate(); err != nil {
		return market.DayPrice{}, false, &driver.ParseError{Source: d.symbol, Record: d.pos, Err: err}
	}
	return p, true, nil
}

func (d *Driver) EOF() bool { return d.pos >= len(d.recs) }

func (d *Driver) Close() error {
	d.symbol = ""
	d.recs = nil
	d.pos = 0
	d.open = false
	return nil
}
