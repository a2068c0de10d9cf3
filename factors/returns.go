// Package factors summarizes a finished book of positions.
package factors

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/jantrader/position"
)

// Mark holds the prices open positions are valued at. A zero price values
// that leg at its entry price.
type Mark struct {
	Long  float64
	Hedge float64
}

// ReturnFactors is a snapshot of trade statistics over a book. Closed
// positions are taken in entry date order.
type ReturnFactors struct {
	Trades  int
	Wins    int // P&L > 0
	Losses  int // P&L < 0
	WinRate float64

	CumulativeReturn float64 // compounded, 0 when there are no trades
	AverageReturn    float64
	StdDev           float64 // sample standard deviation
	Best             float64
	Worst            float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	MaxDrawdown          float64

	NetPL        decimal.Decimal
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal // magnitude
	ProfitFactor float64         // 0 when there are no losses

	OpenPositions int
	OpenPL        decimal.Decimal
	OpenReturn    float64

	// TotalReturn compounds closed and marked open returns.
	TotalReturn float64

	returns []float64
}

func NewReturnFactors(book *position.Book, mark Mark) ReturnFactors {
	rf := ReturnFactors{
		NetPL:       decimal.Zero,
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
		OpenPL:      decimal.Zero,
	}
	if book == nil {
		return rf
	}

	var (
		equity = 1.0
		peak   = 1.0
		wins   int
		losses int
	)
	for _, p := range book.Chronological() {
		if p.State() != position.Closed {
			continue
		}
		pl := p.PL()
		r := p.Return()

		rf.Trades++
		rf.returns = append(rf.returns, r)
		rf.NetPL = rf.NetPL.Add(pl)

		switch pl.Sign() {
		case 1:
			rf.Wins++
			rf.GrossProfit = rf.GrossProfit.Add(pl)
			wins++
			losses = 0
		case -1:
			rf.Losses++
			rf.GrossLoss = rf.GrossLoss.Add(pl.Abs())
			losses++
			wins = 0
		default:
			wins, losses = 0, 0
		}
		rf.MaxConsecutiveWins = max(rf.MaxConsecutiveWins, wins)
		rf.MaxConsecutiveLosses = max(rf.MaxConsecutiveLosses, losses)

		equity *= 1 + r
		peak = math.Max(peak, equity)
		if peak > 0 {
			rf.MaxDrawdown = math.Max(rf.MaxDrawdown, (peak-equity)/peak)
		}
	}

	if rf.Trades > 0 {
		rf.CumulativeReturn = equity - 1
		rf.WinRate = float64(rf.Wins) / float64(rf.Trades)
		rf.AverageReturn, _ = stats.Mean(rf.returns)
		rf.Best, _ = stats.Max(rf.returns)
		rf.Worst, _ = stats.Min(rf.returns)
	}
	if rf.Trades > 1 {
		rf.StdDev, _ = stats.StandardDeviationSample(rf.returns)
	}
	if !rf.GrossLoss.IsZero() {
		rf.ProfitFactor, _ = rf.GrossProfit.Div(rf.GrossLoss).Float64()
	}

	open := 1.0
	for _, p := range book.Open() {
		rf.OpenPositions++
		rf.OpenPL = rf.OpenPL.Add(p.PLAt(mark.Long, mark.Hedge))
		open *= 1 + p.ReturnAt(mark.Long, mark.Hedge)
	}
	rf.OpenReturn = open - 1
	rf.TotalReturn = (1+rf.CumulativeReturn)*(1+rf.OpenReturn) - 1

	return rf
}

// Returns is the closed position returns in entry date order.
func (rf ReturnFactors) Returns() []float64 {
	return append([]float64(nil), rf.returns...)
}
