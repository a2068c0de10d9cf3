// Package series holds end-of-day price series keyed by calendar date.
package series

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/jantrader/driver"
	"github.com/rustyeddy/jantrader/market"
)

var (
	ErrInvalidWindow = errors.New("series: invalid load window")
	ErrAlreadyLoaded = errors.New("series: already loaded")
)

// DuplicateDateError reports a date seen twice in one load.
type DuplicateDateError struct {
	Name string
	Date market.Date
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("series %s: duplicate date %s", e.Name, e.Date)
}

// EODSeries is an ordered set of DayPrice records with strictly increasing
// dates. It is filled once and read-only afterwards.
type EODSeries struct {
	name   string
	recs   []market.DayPrice
	loaded bool
}

// New returns an empty series called name, ready for Load.
func New(name string) *EODSeries {
	return &EODSeries{name: name}
}

// FromRecords builds a loaded series from recs in any order.
func FromRecords(name string, recs []market.DayPrice) (*EODSeries, error) {
	s := New(name)
	out := make([]market.DayPrice, 0, len(recs))
	for _, p := range recs {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("series %s: %w", name, err)
		}
		out = append(out, p)
	}
	if err := s.store(out); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EODSeries) Name() string { return s.name }

// Load reads every record from source through d and keeps those dated within
// [begin, end]. It returns the number of records stored. Loading is all or
// nothing: on any error the series stays empty and the count is zero. A
// *driver.ParseError from d is returned as is.
func (s *EODSeries) Load(ctx context.Context, d driver.Driver, source string, begin, end market.Date) (int, error) {
	if begin.IsZero() || end.IsZero() || begin.After(end) {
		return 0, fmt.Errorf("%w: %s to %s", ErrInvalidWindow, begin, end)
	}
	if s.loaded {
		return 0, ErrAlreadyLoaded
	}

	if err := d.Open(ctx, source); err != nil {
		return 0, err
	}
	defer d.Close()

	var (
		keep    []market.DayPrice
		skipped int
	)
	for !d.EOF() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p, ok, err := d.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if p.Date.Before(begin) || p.Date.After(end) {
			skipped++
			continue
		}
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("series %s: %w", s.name, err)
		}
		keep = append(keep, p)
	}

	if err := s.store(keep); err != nil {
		return 0, err
	}

	ev := log.Debug().
		Str("series", s.name).
		Str("source", source).
		Int("records", len(s.recs)).
		Int("outside", skipped)
	if len(s.recs) > 0 {
		first, last := s.Period()
		ev = ev.Stringer("first", first).Stringer("last", last)
	}
	ev.Msg("series loaded")

	return len(s.recs), nil
}

// store sorts recs by date and installs them, rejecting duplicates.
func (s *EODSeries) store(recs []market.DayPrice) error {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	for i := 1; i < len(recs); i++ {
		if recs[i].Date.Equal(recs[i-1].Date) {
			return &DuplicateDateError{Name: s.name, Date: recs[i].Date}
		}
	}
	s.recs = recs
	s.loaded = true
	return nil
}

func (s *EODSeries) Len() int { return len(s.recs) }

// Period returns the first and last dates, or NoDate twice when empty.
func (s *EODSeries) Period() (first, last market.Date) {
	if len(s.recs) == 0 {
		return market.NoDate, market.NoDate
	}
	return s.recs[0].Date, s.recs[len(s.recs)-1].Date
}

// Days is the calendar span from the first to the last record.
func (s *EODSeries) Days() int {
	first, last := s.Period()
	if first.IsZero() {
		return 0
	}
	return last.Sub(first)
}

func (s *EODSeries) First() (market.DayPrice, bool) {
	if len(s.recs) == 0 {
		return market.DayPrice{}, false
	}
	return s.recs[0], true
}

func (s *EODSeries) Last() (market.DayPrice, bool) {
	if len(s.recs) == 0 {
		return market.DayPrice{}, false
	}
	return s.recs[len(s.recs)-1], true
}

// search returns the index of the first record dated on or after d.
func (s *EODSeries) search(d market.Date) int {
	return sort.Search(len(s.recs), func(i int) bool { return !s.recs[i].Date.Before(d) })
}

// Get returns the record dated exactly d.
func (s *EODSeries) Get(d market.Date) (market.DayPrice, bool) {
	i := s.search(d)
	if i < len(s.recs) && s.recs[i].Date.Equal(d) {
		return s.recs[i], true
	}
	return market.DayPrice{}, false
}

// FirstOnOrAfter returns the earliest record dated d or later.
func (s *EODSeries) FirstOnOrAfter(d market.Date) (market.DayPrice, bool) {
	i := s.search(d)
	if i < len(s.recs) {
		return s.recs[i], true
	}
	return market.DayPrice{}, false
}

// LastOnOrBefore returns the latest record dated d or earlier.
func (s *EODSeries) LastOnOrBefore(d market.Date) (market.DayPrice, bool) {
	i := s.search(d)
	if i < len(s.recs) && s.recs[i].Date.Equal(d) {
		return s.recs[i], true
	}
	if i == 0 {
		return market.DayPrice{}, false
	}
	return s.recs[i-1], true
}

// Between returns a copy of the records dated within [from, to].
func (s *EODSeries) Between(from, to market.Date) []market.DayPrice {
	if from.After(to) {
		return nil
	}
	i := s.search(from)
	j := s.search(to.AddDays(1))
	if to.Equal(to.AddDays(1)) {
		j = len(s.recs)
	}
	if i >= j {
		return nil
	}
	out := make([]market.DayPrice, j-i)
	copy(out, s.recs[i:j])
	return out
}

// Records returns a copy of every record in date order.
func (s *EODSeries) Records() []market.DayPrice {
	out := make([]market.DayPrice, len(s.recs))
	copy(out, s.recs)
	return out
}
