package backtest

import (
	"github.com/rustyeddy/jantrader/factors"
	"github.com/rustyeddy/jantrader/market"
	"github.com/rustyeddy/jantrader/position"
	"github.com/rustyeddy/jantrader/series"
)

// Result is everything a finished run produced.
type Result struct {
	Long  *series.EODSeries
	Hedge *series.EODSeries

	Book      *position.Book
	Returns   factors.ReturnFactors
	Positions factors.PositionFactorsSet

	// LongSource and HedgeSource are the locations the series came from.
	LongSource  string
	HedgeSource string

	Begin   market.Date
	End     market.Date
	Options JanOptions
}
