package series

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/jantrader/driver"
	"github.com/rustyeddy/jantrader/market"
)

// sliceDriver serves canned records, failing at errAt (1-based) when set.
type sliceDriver struct {
	recs    []market.DayPrice
	errAt   int
	openErr error

	pos    int
	opened int
	closed int
}

func (d *sliceDriver) Open(ctx context.Context, source string) error {
	if d.openErr != nil {
		return d.openErr
	}
	d.pos = 0
	d.opened++
	return nil
}

func (d *sliceDriver) Next() (market.DayPrice, bool, error) {
	if d.EOF() {
		return market.DayPrice{}, false, nil
	}
	d.pos++
	if d.pos == d.errAt {
		return market.DayPrice{}, false, &driver.ParseError{Source: "mem", Line: d.pos + 1, Record: d.pos, Field: "close", Err: errors.New("bad close")}
	}
	return d.recs[d.pos-1], true, nil
}

func (d *sliceDriver) EOF() bool { return d.pos >= len(d.recs) }

func (d *sliceDriver) Close() error {
	d.closed++
	return nil
}

func day(y int, m time.Month, d int) market.Date { return market.MustDate(y, m, d) }

func price(y int, m time.Month, d int, adj float64) market.DayPrice {
	p := market.DayPrice{Date: day(y, m, d), Close: adj, AdjClose: adj, Volume: 1}
	p.FillFromClose()
	return p
}

func sample() []market.DayPrice {
	return []market.DayPrice{
		price(2006, time.January, 9, 14),
		price(2005, time.December, 19, 10),
		price(2006, time.January, 6, 13),
		price(2005, time.December, 22, 11),
	}
}

var (
	wideBegin = day(1990, time.January, 1)
	wideEnd   = day(2030, time.December, 31)
)

func TestLoadSortsAndCounts(t *testing.T) {
	t.Parallel()

	d := &sliceDriver{recs: sample()}
	s := New("SPY")
	n, err := s.Load(context.Background(), d, "mem", wideBegin, wideEnd)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 1, d.opened)
	assert.Equal(t, 1, d.closed)

	first, last := s.Period()
	assert.Equal(t, day(2005, time.December, 19), first)
	assert.Equal(t, day(2006, time.January, 9), last)
	assert.Equal(t, 21, s.Days())

	recs := s.Records()
	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i-1].Date.Before(recs[i].Date))
	}

	// copies do not alias the series
	recs[0].Close = 999
	p, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, 10.0, p.Close)
}

func TestLoadWindow(t *testing.T) {
	t.Parallel()

	begin := day(2005, time.December, 20)
	end := day(2006, time.January, 6)

	s := New("SPY")
	n, err := s.Load(context.Background(), &sliceDriver{recs: sample()}, "mem", begin, end)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := 0
	for _, p := range sample() {
		in := !p.Date.Before(begin) && !p.Date.After(end)
		_, found := s.Get(p.Date)
		assert.Equal(t, in, found, p.Date.String())
		if in {
			want++
		}
	}
	assert.Equal(t, want, s.Len())

	// single day window
	s = New("SPY")
	n, err = s.Load(context.Background(), &sliceDriver{recs: sample()}, "mem", end, end)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadInvalidWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		begin, end market.Date
	}{
		{"no begin", market.NoDate, wideEnd},
		{"no end", wideBegin, market.NoDate},
		{"reversed", wideEnd, wideBegin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &sliceDriver{recs: sample()}
			n, err := New("SPY").Load(context.Background(), d, "mem", tt.begin, tt.end)
			assert.ErrorIs(t, err, ErrInvalidWindow)
			assert.Zero(t, n)
			assert.Zero(t, d.opened, "driver must not be opened")
		})
	}
}

func TestLoadParseErrorLeavesSeriesEmpty(t *testing.T) {
	t.Parallel()

	recs := []market.DayPrice{
		price(2005, time.December, 19, 10),
		price(2005, time.December, 20, 10),
		price(2005, time.December, 21, 10),
		price(2005, time.December, 22, 10),
		price(2005, time.December, 23, 10),
		price(2005, time.December, 27, 10),
	}
	d := &sliceDriver{recs: recs, errAt: 5}
	s := New("SPY")
	n, err := s.Load(context.Background(), d, "mem", wideBegin, wideEnd)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.Len())
	assert.Equal(t, 1, d.closed)

	var pe *driver.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 5, pe.Record)
	assert.Equal(t, "mem", pe.Source)

	// returned unmodified
	_, isPE := err.(*driver.ParseError)
	assert.True(t, isPE)

	// a failed load does not count as loaded
	n, err = s.Load(context.Background(), &sliceDriver{recs: recs}, "mem", wideBegin, wideEnd)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestLoadDuplicate(t *testing.T) {
	t.Parallel()

	recs := append(sample(), price(2005, time.December, 22, 99))
	s := New("SPY")
	n, err := s.Load(context.Background(), &sliceDriver{recs: recs}, "mem", wideBegin, wideEnd)
	var de *DuplicateDateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, day(2005, time.December, 22), de.Date)
	assert.Equal(t, "series SPY: duplicate date 2005-12-22", de.Error())
	assert.Zero(t, n)
	assert.Zero(t, s.Len())

	// duplicates outside the window are never seen
	n, err = New("SPY").Load(context.Background(), &sliceDriver{recs: recs}, "mem", day(2006, time.January, 1), wideEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoadOnceAndOpenError(t *testing.T) {
	t.Parallel()

	s := New("SPY")
	_, err := s.Load(context.Background(), &sliceDriver{recs: sample()}, "mem", wideBegin, wideEnd)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), &sliceDriver{recs: sample()}, "mem", wideBegin, wideEnd)
	assert.ErrorIs(t, err, ErrAlreadyLoaded)
	assert.Equal(t, 4, s.Len())

	boom := errors.New("no such file")
	s = New("SPY")
	n, err := s.Load(context.Background(), &sliceDriver{openErr: boom}, "mem", wideBegin, wideEnd)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestLoadEmptySource(t *testing.T) {
	t.Parallel()

	s := New("SPY")
	n, err := s.Load(context.Background(), &sliceDriver{}, "mem", wideBegin, wideEnd)
	require.NoError(t, err)
	assert.Zero(t, n)

	first, last := s.Period()
	assert.True(t, first.IsZero())
	assert.True(t, last.IsZero())
	assert.Zero(t, s.Days())
	_, ok := s.First()
	assert.False(t, ok)
	_, ok = s.Last()
	assert.False(t, ok)
	_, ok = s.FirstOnOrAfter(wideBegin)
	assert.False(t, ok)
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New("SPY")
	n, err := s.Load(ctx, &sliceDriver{recs: sample()}, "mem", wideBegin, wideEnd)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Zero(t, s.Len())
}

func TestLookups(t *testing.T) {
	t.Parallel()

	s, err := FromRecords("SPY", sample())
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      market.Date
		after   string
		before  string
		exactly bool
	}{
		{"before all", day(2005, time.December, 1), "2005-12-19", "", false},
		{"first", day(2005, time.December, 19), "2005-12-19", "2005-12-19", true},
		{"gap", day(2005, time.December, 20), "2005-12-22", "2005-12-19", false},
		{"weekend before exit", day(2006, time.January, 7), "2006-01-09", "2006-01-06", false},
		{"last", day(2006, time.January, 9), "2006-01-09", "2006-01-09", true},
		{"after all", day(2006, time.January, 10), "", "2006-01-09", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := s.FirstOnOrAfter(tt.at)
			assert.Equal(t, tt.after != "", ok)
			if ok {
				assert.Equal(t, tt.after, p.Date.String())
			}

			p, ok = s.LastOnOrBefore(tt.at)
			assert.Equal(t, tt.before != "", ok)
			if ok {
				assert.Equal(t, tt.before, p.Date.String())
			}

			_, ok = s.Get(tt.at)
			assert.Equal(t, tt.exactly, ok)
		})
	}
}

func TestFirstOnOrAfterIsMinimal(t *testing.T) {
	t.Parallel()

	s, err := FromRecords("SPY", sample())
	require.NoError(t, err)
	recs := s.Records()

	for d := day(2005, time.December, 1); !d.After(day(2006, time.January, 31)); d = d.AddDays(1) {
		p, ok := s.FirstOnOrAfter(d)

		var want *market.DayPrice
		for i := range recs {
			if !recs[i].Date.Before(d) {
				want = &recs[i]
				break
			}
		}
		if want == nil {
			assert.False(t, ok, d.String())
			continue
		}
		require.True(t, ok, d.String())
		assert.Equal(t, want.Date, p.Date, d.String())
	}
}

func TestBetween(t *testing.T) {
	t.Parallel()

	s, err := FromRecords("SPY", sample())
	require.NoError(t, err)

	got := s.Between(day(2005, time.December, 20), day(2006, time.January, 6))
	require.Len(t, got, 2)
	assert.Equal(t, "2005-12-22", got[0].Date.String())
	assert.Equal(t, "2006-01-06", got[1].Date.String())

	assert.Len(t, s.Between(day(2005, time.December, 19), day(2006, time.January, 9)), 4)
	assert.Empty(t, s.Between(day(2005, time.December, 23), day(2006, time.January, 5)))
	assert.Empty(t, s.Between(day(2006, time.January, 9), day(2005, time.December, 19)))
}

func TestFromRecordsRejects(t *testing.T) {
	t.Parallel()

	_, err := FromRecords("SPY", append(sample(), price(2006, time.January, 6, 1)))
	var de *DuplicateDateError
	assert.True(t, errors.As(err, &de))

	bad := price(2005, time.December, 30, 1)
	bad.AdjClose = 0
	_, err = FromRecords("SPY", []market.DayPrice{bad})
	assert.Error(t, err)
}
