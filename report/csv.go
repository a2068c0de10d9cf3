package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rustyeddy/jantrader/position"
)

var csvHeader = []string{
	"id", "state",
	"long_symbol", "long_qty", "entry_date", "long_entry", "exit_date", "long_exit",
	"hedge_symbol", "hedge_qty", "hedge_entry", "hedge_exit",
	"pl", "return",
}

// WriteCSV writes one row per position, open ones with empty exit fields.
func WriteCSV(w io.Writer, ps []position.Position) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, p := range ps {
		var exitDate, longExit, hedgeExit string
		if p.State() == position.Closed {
			exitDate = p.ExitDate().String()
			longExit = f(p.Long.ExitPrice)
			hedgeExit = f(p.Hedge.ExitPrice)
		}
		err := cw.Write([]string{
			p.ID,
			p.State().String(),
			p.Long.Symbol,
			f(p.Long.Quantity),
			p.EntryDate().String(),
			f(p.Long.EntryPrice),
			exitDate,
			longExit,
			p.Hedge.Symbol,
			f(p.Hedge.Quantity),
			f(p.Hedge.EntryPrice),
			hedgeExit,
			p.PL().StringFixed(2),
			f(p.Return()),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
