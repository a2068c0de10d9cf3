package factors

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/rustyeddy/jantrader/position"
	"github.com/rustyeddy/jantrader/series"
)

// PositionFactors describes one closed position.
type PositionFactors struct {
	Position position.Position
	HoldDays int
	Return   float64

	// MAE and MFE are the lowest and highest mark-to-market returns seen on
	// the long series' trading days from entry to exit.
	MAE float64
	MFE float64
}

// PositionFactorsSet holds per-position factors in entry date order.
type PositionFactorsSet struct {
	Factors []PositionFactors

	AvgHoldDays float64
	AvgReturn   float64
	AvgMAE      float64
	WorstMAE    float64
}

// NewPositionFactorsSet computes factors for the closed positions. Prices
// along the way come from long and hedge; a nil hedge holds the hedge leg at
// its entry price. Open positions are ignored.
func NewPositionFactorsSet(closed []position.Position, long, hedge *series.EODSeries) PositionFactorsSet {
	var set PositionFactorsSet

	closed = append([]position.Position(nil), closed...)
	sort.SliceStable(closed, func(i, j int) bool { return closed[i].EntryDate().Before(closed[j].EntryDate()) })

	for _, p := range closed {
		if p.State() != position.Closed {
			continue
		}
		pf := PositionFactors{
			Position: p,
			HoldDays: p.HoldDays(),
			Return:   p.Return(),
		}
		pf.MAE = min(0, pf.Return)
		pf.MFE = max(0, pf.Return)

		if long != nil {
			for _, lp := range long.Between(p.EntryDate(), p.ExitDate()) {
				var hp float64
				if hedge != nil {
					if h, ok := hedge.LastOnOrBefore(lp.Date); ok {
						hp = h.AdjClose
					}
				}
				r := p.ReturnAt(lp.AdjClose, hp)
				pf.MAE = min(pf.MAE, r)
				pf.MFE = max(pf.MFE, r)
			}
		}

		set.Factors = append(set.Factors, pf)
	}

	if len(set.Factors) == 0 {
		return set
	}

	var holds, rets, maes []float64
	for _, pf := range set.Factors {
		holds = append(holds, float64(pf.HoldDays))
		rets = append(rets, pf.Return)
		maes = append(maes, pf.MAE)
	}
	set.AvgHoldDays, _ = stats.Mean(holds)
	set.AvgReturn, _ = stats.Mean(rets)
	set.AvgMAE, _ = stats.Mean(maes)
	set.WorstMAE, _ = stats.Min(maes)
	return set
}

func (s PositionFactorsSet) Len() int { return len(s.Factors) }

// Best returns the position with the highest return.
func (s PositionFactorsSet) Best() (PositionFactors, bool) {
	return s.pick(func(a, b float64) bool { return a > b })
}

// Worst returns the position with the lowest return.
func (s PositionFactorsSet) Worst() (PositionFactors, bool) {
	return s.pick(func(a, b float64) bool { return a < b })
}

func (s PositionFactorsSet) pick(better func(a, b float64) bool) (PositionFactors, bool) {
	if len(s.Factors) == 0 {
		return PositionFactors{}, false
	}
	out := s.Factors[0]
	for _, pf := range s.Factors[1:] {
		if better(pf.Return, out.Return) {
			out = pf
		}
	}
	return out, true
}
