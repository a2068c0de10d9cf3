package backtest

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/jantrader/market"
	"github.com/rustyeddy/jantrader/pkg/id"
	"github.com/rustyeddy/jantrader/position"
	"github.com/rustyeddy/jantrader/series"
)

// DefaultNotional is the cash put into each leg when none is configured.
const DefaultNotional = 10000.0

// JanOptions controls the year-end pairs trade.
type JanOptions struct {
	EntryOffset int     // days added to Dec 20
	ExitOffset  int     // days added to Jan 9 of the following year
	Notional    float64 // cash per leg, DefaultNotional when 0

	// HoldUnresolved keeps a position open when its exit date lies past the
	// end of the data instead of skipping the year.
	HoldUnresolved bool

	// Seed drives position ids. Equal seeds and inputs give equal ids.
	Seed int64
}

// EntryTarget is the calendar entry date for year: Dec 20 plus off days.
func EntryTarget(year, off int) market.Date {
	return market.MustDate(year, time.December, 20).AddDays(off)
}

// ExitTarget is the calendar exit date for the trade entered in year: Jan 9
// of the next year plus off days. year must be at most 9998.
func ExitTarget(year, off int) market.Date {
	return market.MustDate(year+1, time.January, 9).AddDays(off)
}

// JanTrader buys the long series and shorts the hedge series around the turn
// of each year covered by both.
type JanTrader struct {
	long  *series.EODSeries
	hedge *series.EODSeries
	opts  JanOptions
}

// NewJanTrader returns a trader over long and hedge. A non-positive
// Notional is replaced by DefaultNotional.
func NewJanTrader(long, hedge *series.EODSeries, opts JanOptions) *JanTrader {
	if opts.Notional <= 0 {
		opts.Notional = DefaultNotional
	}
	return &JanTrader{long: long, hedge: hedge, opts: opts}
}

// Options returns the options in effect after defaults.
func (j *JanTrader) Options() JanOptions { return j.opts }

// lastTradeYear is the last year whose Jan 9 exit anchor is a valid date.
const lastTradeYear = 9998

// Run walks every year both series cover and returns the resulting book.
// A year counts when both series start on or before its Dec 20 and reach
// Jan 9 of the next year; the offset targets are then resolved onto the
// data. Years whose dates cannot be resolved are skipped. Run never fails
// and returns an empty book when there is nothing to trade.
//
// With HoldUnresolved a year whose data ends before the exit resolves keeps
// its position open instead of being skipped.
func (j *JanTrader) Run() *position.Book {
	book := position.NewBook()

	lf, ll := j.long.Period()
	hf, hl := j.hedge.Period()
	if lf.IsZero() || hf.IsZero() {
		return book
	}

	seq := id.NewSequence(j.opts.Seed)

	first := max(lf.Year(), hf.Year())
	last := min(ll.Year(), hl.Year(), lastTradeYear)
	for year := first; year <= last; year++ {
		if lf.After(EntryTarget(year, 0)) || hf.After(EntryTarget(year, 0)) {
			j.skip(year, "data starts after Dec 20")
			continue
		}
		jan9 := ExitTarget(year, 0)
		covered := !ll.Before(jan9) && !hl.Before(jan9)
		if !covered && !j.opts.HoldUnresolved {
			j.skip(year, "data ends before Jan 9")
			continue
		}

		entryT := EntryTarget(year, j.opts.EntryOffset)
		le, ok := j.long.FirstOnOrAfter(entryT)
		if !ok {
			j.skip(year, "entry past end of data")
			continue
		}
		he, ok := j.hedge.Get(le.Date)
		if !ok {
			j.skip(year, "hedge has no entry record")
			continue
		}

		exitT := ExitTarget(year, j.opts.ExitOffset)
		var lx market.DayPrice
		ok = false
		if covered {
			lx, ok = j.long.FirstOnOrAfter(exitT)
		}
		if !ok {
			if j.opts.HoldUnresolved && le.Date.Before(exitT) {
				p := j.open(seq, le, he)
				if err := book.Add(p); err != nil {
					log.Warn().Err(err).Int("year", year).Msg("jan: add position")
				}
				continue
			}
			j.skip(year, "exit past end of data")
			continue
		}
		hx, ok := j.hedge.Get(lx.Date)
		if !ok {
			j.skip(year, "hedge has no exit record")
			continue
		}
		if !le.Date.Before(lx.Date) {
			j.skip(year, "exit not after entry")
			continue
		}

		p := j.open(seq, le, he)
		if err := book.Add(p); err != nil {
			log.Warn().Err(err).Int("year", year).Msg("jan: add position")
			continue
		}
		if err := book.Close(p.ID, lx.Date, lx.AdjClose, hx.AdjClose); err != nil {
			log.Warn().Err(err).Int("year", year).Msg("jan: close position")
		}
	}

	return book
}

func (j *JanTrader) open(seq *id.Sequence, long, hedge market.DayPrice) position.Position {
	return position.New(seq.Next(long.Date.Time()),
		position.Leg{
			Symbol:     j.long.Name(),
			Side:       position.Long,
			Quantity:   j.opts.Notional / long.AdjClose,
			EntryDate:  long.Date,
			EntryPrice: long.AdjClose,
		},
		position.Leg{
			Symbol:     j.hedge.Name(),
			Side:       position.Short,
			Quantity:   j.opts.Notional / hedge.AdjClose,
			EntryDate:  hedge.Date,
			EntryPrice: hedge.AdjClose,
		},
	)
}

func (j *JanTrader) skip(year int, reason string) {
	log.Debug().Int("year", year).Str("reason", reason).Msg("jan: year skipped")
}
