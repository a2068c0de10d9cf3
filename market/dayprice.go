package market

import (
	"errors"
	"fmt"
	"math"
)

// DayPrice is one end-of-day record for an instrument.
type DayPrice struct {
	Date     Date
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

var ErrNoDate = errors.New("record has no date")

// Validate checks the invariants a record must hold before it is stored in a
// series: a real date, finite non-negative prices, positive close and
// adjusted close, non-negative volume.
func (p DayPrice) Validate() error {
	if p.Date.IsZero() {
		return ErrNoDate
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"open", p.Open},
		{"high", p.High},
		{"low", p.Low},
		{"close", p.Close},
		{"adjclose", p.AdjClose},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s %s is not finite", p.Date, f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%s %s %v is negative", p.Date, f.name, f.v)
		}
	}
	if p.Close == 0 {
		return fmt.Errorf("%s close is zero", p.Date)
	}
	if p.AdjClose == 0 {
		return fmt.Errorf("%s adjclose is zero", p.Date)
	}
	if p.Volume < 0 {
		return fmt.Errorf("%s volume %d is negative", p.Date, p.Volume)
	}
	return nil
}

// FillFromClose copies Close into any unset open, high, low or adjusted
// close field. Used by sources that only carry a closing price.
func (p *DayPrice) FillFromClose() {
	if p.Open == 0 {
		p.Open = p.Close
	}
	if p.High == 0 {
		p.High = p.Close
	}
	if p.Low == 0 {
		p.Low = p.Close
	}
	if p.AdjClose == 0 {
		p.AdjClose = p.Close
	}
}
