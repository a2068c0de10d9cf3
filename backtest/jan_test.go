package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/jantrader/market"
	"github.com/rustyeddy/jantrader/position"
	"github.com/rustyeddy/jantrader/series"
)

func day(y int, m time.Month, d int) market.Date { return market.MustDate(y, m, d) }

func rec(dt market.Date, adj float64) market.DayPrice {
	p := market.DayPrice{Date: dt, Close: adj, AdjClose: adj, Volume: 100}
	p.FillFromClose()
	return p
}

// seriesOf builds a series from date/price pairs.
func seriesOf(t *testing.T, name string, prices map[market.Date]float64) *series.EODSeries {
	t.Helper()

	var recs []market.DayPrice
	for dt, v := range prices {
		recs = append(recs, rec(dt, v))
	}
	s, err := series.FromRecords(name, recs)
	require.NoError(t, err)
	return s
}

// weekdays builds a series with one record per weekday from begin to end,
// priced by fn.
func weekdays(t *testing.T, name string, begin, end market.Date, fn func(market.Date) float64) *series.EODSeries {
	t.Helper()

	prices := map[market.Date]float64{}
	for dt := begin; !dt.After(end); dt = dt.AddDays(1) {
		if wd := dt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		prices[dt] = fn(dt)
	}
	return seriesOf(t, name, prices)
}

func scenario(t *testing.T) (long, hedge *series.EODSeries) {
	t.Helper()

	long = seriesOf(t, "IWM", map[market.Date]float64{
		day(2005, time.December, 19): 60,
		day(2005, time.December, 22): 62.5,
		day(2006, time.January, 6):   68,
		day(2006, time.January, 9):   70,
	})
	hedge = seriesOf(t, "SPY", map[market.Date]float64{
		day(2005, time.December, 19): 120,
		day(2005, time.December, 22): 125,
		day(2006, time.January, 6):   126,
		day(2006, time.January, 9):   130,
	})
	return long, hedge
}

func TestTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		year, off   int
		entry, exit string
	}{
		{2005, 0, "2005-12-20", "2006-01-09"},
		{2005, 2, "2005-12-22", "2006-01-11"},
		{2005, -5, "2005-12-15", "2006-01-04"},
		{2005, 12, "2006-01-01", "2006-01-21"},
		{2007, -9, "2007-12-11", "2007-12-31"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.entry, EntryTarget(tt.year, tt.off).String())
		assert.Equal(t, tt.exit, ExitTarget(tt.year, tt.off).String())
	}
}

func TestJanTraderScenario(t *testing.T) {
	t.Parallel()

	long, hedge := scenario(t)
	book := NewJanTrader(long, hedge, JanOptions{}).Run()

	require.Equal(t, 1, book.Len())
	assert.Empty(t, book.Open())
	closed := book.Closed()
	require.Len(t, closed, 1)

	p := closed[0]
	assert.Equal(t, position.Closed, p.State())
	assert.Equal(t, "2005-12-22", p.EntryDate().String())
	assert.Equal(t, "2006-01-09", p.ExitDate().String())
	assert.Equal(t, 18, p.HoldDays())

	assert.Equal(t, "IWM", p.Long.Symbol)
	assert.Equal(t, position.Long, p.Long.Side)
	assert.Equal(t, 62.5, p.Long.EntryPrice)
	assert.Equal(t, 70.0, p.Long.ExitPrice)
	assert.InDelta(t, 160, p.Long.Quantity, 1e-9)

	assert.Equal(t, "SPY", p.Hedge.Symbol)
	assert.Equal(t, position.Short, p.Hedge.Side)
	assert.Equal(t, 125.0, p.Hedge.EntryPrice)
	assert.Equal(t, 130.0, p.Hedge.ExitPrice)
	assert.InDelta(t, 80, p.Hedge.Quantity, 1e-9)

	// long +1200, hedge -400 on 10000 notional
	assert.InDelta(t, 0.08, p.Return(), 1e-9)
	assert.Len(t, p.ID, 26)
}

func TestJanTraderSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts JanOptions
		edit func(long, hedge map[market.Date]float64)
	}{
		{
			name: "entry offset past data",
			opts: JanOptions{EntryOffset: 30},
		},
		{
			name: "exit not after entry",
			opts: JanOptions{ExitOffset: -20},
		},
		{
			name: "exit past end of data",
			opts: JanOptions{ExitOffset: 5},
		},
		{
			name: "hedge missing entry date",
			edit: func(long, hedge map[market.Date]float64) {
				delete(hedge, day(2005, time.December, 22))
			},
		},
		{
			name: "hedge missing exit date",
			edit: func(long, hedge map[market.Date]float64) {
				delete(hedge, day(2006, time.January, 9))
			},
		},
		{
			name: "long starts after entry target",
			edit: func(long, hedge map[market.Date]float64) {
				delete(long, day(2005, time.December, 19))
			},
		},
		{
			name: "hedge starts after entry target",
			edit: func(long, hedge map[market.Date]float64) {
				delete(hedge, day(2005, time.December, 19))
			},
		},
		{
			name: "data starts after Dec 20 with later entry target",
			opts: JanOptions{EntryOffset: 3},
			edit: func(long, hedge map[market.Date]float64) {
				delete(long, day(2005, time.December, 19))
				delete(hedge, day(2005, time.December, 19))
			},
		},
		{
			name: "data ends before Jan 9 with earlier exit target",
			opts: JanOptions{ExitOffset: -5},
			edit: func(long, hedge map[market.Date]float64) {
				delete(long, day(2006, time.January, 9))
				delete(hedge, day(2006, time.January, 9))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			long := map[market.Date]float64{
				day(2005, time.December, 19): 60,
				day(2005, time.December, 22): 62.5,
				day(2006, time.January, 6):   68,
				day(2006, time.January, 9):   70,
			}
			hedge := map[market.Date]float64{
				day(2005, time.December, 19): 120,
				day(2005, time.December, 22): 125,
				day(2006, time.January, 6):   126,
				day(2006, time.January, 9):   130,
			}
			if tt.edit != nil {
				tt.edit(long, hedge)
			}

			book := NewJanTrader(seriesOf(t, "IWM", long), seriesOf(t, "SPY", hedge), tt.opts).Run()
			assert.Zero(t, book.Len())
		})
	}
}

func TestJanTraderEarlyEntryTarget(t *testing.T) {
	t.Parallel()

	prices := func(base float64) map[market.Date]float64 {
		return map[market.Date]float64{
			day(2005, time.December, 17): base,
			day(2005, time.December, 19): base + 1,
			day(2005, time.December, 22): base + 2,
			day(2006, time.January, 9):   base + 5,
		}
	}
	long := seriesOf(t, "IWM", prices(60))
	hedge := seriesOf(t, "SPY", prices(120))

	// Dec 15 lies before the data, which still covers Dec 20 to Jan 9
	book := NewJanTrader(long, hedge, JanOptions{EntryOffset: -5}).Run()
	closed := book.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, "2005-12-17", closed[0].EntryDate().String())
	assert.Equal(t, "2006-01-09", closed[0].ExitDate().String())
}

func TestJanTraderLastYear(t *testing.T) {
	t.Parallel()

	prices := map[market.Date]float64{
		day(9999, time.December, 20): 10,
		day(9999, time.December, 31): 11,
	}
	long := seriesOf(t, "IWM", prices)
	hedge := seriesOf(t, "SPY", prices)

	for _, opts := range []JanOptions{{}, {HoldUnresolved: true}} {
		assert.NotPanics(t, func() {
			assert.Zero(t, NewJanTrader(long, hedge, opts).Run().Len())
		})
	}

	long = seriesOf(t, "IWM", map[market.Date]float64{
		day(9998, time.December, 20): 10,
		day(9999, time.January, 11):  12,
		day(9999, time.December, 31): 13,
	})
	hedge = seriesOf(t, "SPY", map[market.Date]float64{
		day(9998, time.December, 20): 20,
		day(9999, time.January, 11):  21,
		day(9999, time.December, 31): 22,
	})
	book := NewJanTrader(long, hedge, JanOptions{}).Run()
	require.Len(t, book.Closed(), 1)
	assert.Equal(t, "9999-01-11", book.Closed()[0].ExitDate().String())
}

func TestJanTraderEmptySeries(t *testing.T) {
	t.Parallel()

	long, _ := scenario(t)
	empty, err := series.FromRecords("SPY", nil)
	require.NoError(t, err)

	assert.Zero(t, NewJanTrader(long, empty, JanOptions{}).Run().Len())
	assert.Zero(t, NewJanTrader(empty, long, JanOptions{}).Run().Len())
}

func TestJanTraderHoldUnresolved(t *testing.T) {
	t.Parallel()

	long := seriesOf(t, "IWM", map[market.Date]float64{
		day(2005, time.December, 19): 60,
		day(2005, time.December, 22): 62.5,
		day(2006, time.January, 6):   68,
	})
	hedge := seriesOf(t, "SPY", map[market.Date]float64{
		day(2005, time.December, 19): 120,
		day(2005, time.December, 22): 125,
		day(2006, time.January, 6):   126,
	})

	assert.Zero(t, NewJanTrader(long, hedge, JanOptions{}).Run().Len())

	book := NewJanTrader(long, hedge, JanOptions{HoldUnresolved: true}).Run()
	require.Equal(t, 1, book.Len())
	assert.Empty(t, book.Closed())
	open := book.Open()
	require.Len(t, open, 1)
	assert.Equal(t, position.Open, open[0].State())
	assert.Equal(t, "2005-12-22", open[0].EntryDate().String())
	assert.True(t, open[0].ExitDate().IsZero())
}

func TestJanTraderNotional(t *testing.T) {
	t.Parallel()

	long, hedge := scenario(t)
	book := NewJanTrader(long, hedge, JanOptions{Notional: 5000}).Run()
	require.Len(t, book.Closed(), 1)
	p := book.Closed()[0]
	assert.InDelta(t, 80, p.Long.Quantity, 1e-9)
	assert.InDelta(t, 40, p.Hedge.Quantity, 1e-9)
	assert.InDelta(t, 0.08, p.Return(), 1e-9)

	assert.Equal(t, DefaultNotional, NewJanTrader(long, hedge, JanOptions{Notional: -1}).Options().Notional)
}

func TestJanTraderManyYears(t *testing.T) {
	t.Parallel()

	begin, end := day(1999, time.June, 1), day(2010, time.December, 31)
	long := weekdays(t, "IWM", begin, end, func(d market.Date) float64 { return 50 + float64(d.Day()) })
	hedge := weekdays(t, "SPY", begin, end, func(d market.Date) float64 { return 100 + float64(d.Month()) })

	for _, opts := range []JanOptions{{}, {EntryOffset: 3, ExitOffset: -2}, {EntryOffset: -10, ExitOffset: 7}} {
		book := NewJanTrader(long, hedge, opts).Run()

		// 1999 through 2009; 2010 exits after the data ends
		assert.Equal(t, 11, book.Len(), "%+v", opts)
		assert.Empty(t, book.Open())

		for _, p := range book.Chronological() {
			entry, exit := p.EntryDate(), p.ExitDate()
			assert.True(t, entry.Before(exit), p.ID)
			for _, s := range []*series.EODSeries{long, hedge} {
				_, ok := s.Get(entry)
				assert.True(t, ok, "%s entry %s", s.Name(), entry)
				_, ok = s.Get(exit)
				assert.True(t, ok, "%s exit %s", s.Name(), exit)
			}

			// earliest trading day on or after the target
			target := EntryTarget(entry.Year(), opts.EntryOffset)
			if entry.Month() == time.January {
				target = EntryTarget(entry.Year()-1, opts.EntryOffset)
			}
			assert.False(t, entry.Before(target))
			assert.Less(t, entry.Sub(target), 3)
		}
	}
}

func TestJanTraderDeterministic(t *testing.T) {
	t.Parallel()

	begin, end := day(2000, time.January, 3), day(2005, time.December, 30)
	long := weekdays(t, "IWM", begin, end, func(d market.Date) float64 { return 40 + float64(d.Day())/10 })
	hedge := weekdays(t, "SPY", begin, end, func(d market.Date) float64 { return 90 + float64(d.Month())/10 })

	a := NewJanTrader(long, hedge, JanOptions{Seed: 7}).Run()
	b := NewJanTrader(long, hedge, JanOptions{Seed: 7}).Run()
	require.Equal(t, 5, a.Len())
	assert.Equal(t, a.Chronological(), b.Chronological())
	assert.Equal(t, a.Closed(), b.Closed())

	c := NewJanTrader(long, hedge, JanOptions{Seed: 8}).Run()
	assert.NotEqual(t, a.Closed()[0].ID, c.Closed()[0].ID)
}
