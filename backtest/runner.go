package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/jantrader/driver"
	"github.com/rustyeddy/jantrader/factors"
	"github.com/rustyeddy/jantrader/market"
	"github.com/rustyeddy/jantrader/series"
)

// Source names an instrument and where its prices come from.
type Source struct {
	Symbol   string
	Driver   driver.Driver
	Location string // path, URL or symbol handed to Driver.Open
}

func (s Source) validate(role string) error {
	if s.Symbol == "" {
		return fmt.Errorf("backtest: %s Symbol is required", role)
	}
	if s.Driver == nil {
		return fmt.Errorf("backtest: %s Driver is required", role)
	}
	if s.Location == "" {
		return fmt.Errorf("backtest: %s Location is required", role)
	}
	return nil
}

// NoDataError reports a source that produced no records in the window.
type NoDataError struct {
	Symbol   string
	Location string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("backtest: no records found for %s in %s", e.Symbol, e.Location)
}

// Runner loads both series and runs the year-end trade over them.
type Runner struct {
	Long    Source
	Hedge   Source
	Begin   market.Date
	End     market.Date
	Options JanOptions
}

// Run loads the long and hedge series in parallel, trades them and computes
// the factors. Nothing is traded unless both loads succeed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.Long.validate("Long"); err != nil {
		return nil, err
	}
	if err := r.Hedge.validate("Hedge"); err != nil {
		return nil, err
	}
	if r.Begin.IsZero() || r.End.IsZero() || r.Begin.After(r.End) {
		return nil, fmt.Errorf("%w: %s to %s", series.ErrInvalidWindow, r.Begin, r.End)
	}
	if r.Long.Driver == r.Hedge.Driver {
		return nil, errors.New("backtest: Long and Hedge need separate drivers")
	}

	long := series.New(r.Long.Symbol)
	hedge := series.New(r.Hedge.Symbol)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return load(gctx, long, r.Long, r.Begin, r.End) })
	g.Go(func() error { return load(gctx, hedge, r.Hedge, r.Begin, r.End) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trader := NewJanTrader(long, hedge, r.Options)
	book := trader.Run()

	var mark factors.Mark
	if p, ok := long.Last(); ok {
		mark.Long = p.AdjClose
	}
	if p, ok := hedge.Last(); ok {
		mark.Hedge = p.AdjClose
	}

	res := &Result{
		Long:      long,
		Hedge:     hedge,
		Book:      book,
		Returns:   factors.NewReturnFactors(book, mark),
		Positions: factors.NewPositionFactorsSet(book.Closed(), long, hedge),

		LongSource:  r.Long.Location,
		HedgeSource: r.Hedge.Location,

		Begin:   r.Begin,
		End:     r.End,
		Options: trader.Options(),
	}

	log.Info().
		Str("long", long.Name()).
		Str("hedge", hedge.Name()).
		Int("closed", len(book.Closed())).
		Int("open", len(book.Open())).
		Msg("backtest complete")

	return res, nil
}

func load(ctx context.Context, s *series.EODSeries, src Source, begin, end market.Date) error {
	log.Info().Str("symbol", src.Symbol).Str("source", src.Location).Msg("loading")

	n, err := s.Load(ctx, src.Driver, src.Location, begin, end)
	if err != nil {
		return err
	}
	if n == 0 {
		return &NoDataError{Symbol: src.Symbol, Location: src.Location}
	}
	return nil
}
