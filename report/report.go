// Package report formats backtest results for people and spreadsheets.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rustyeddy/jantrader/backtest"
	"github.com/rustyeddy/jantrader/factors"
	"github.com/rustyeddy/jantrader/position"
)

const rule = "--------------------------------------------------"

// Header prints a section title underlined with a rule.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

// Print writes the full text report: run inputs, closed trades, open trades
// when there are any, trade results and position stats.
func Print(w io.Writer, res *backtest.Result) {
	PrintSummary(w, res)

	Header(w, "Closed trades")
	PrintPositions(w, res.Book.Closed())

	if open := res.Book.Open(); len(open) > 0 {
		Header(w, "Open trades")
		PrintPositions(w, open)
	}

	Header(w, "Trade results")
	PrintReturnFactors(w, res.Returns)

	Header(w, "Positions stats")
	PrintPositionFactors(w, res.Positions)
}

// PrintSummary prints the run inputs and the long series coverage.
func PrintSummary(w io.Writer, res *backtest.Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " January Effect Backtest")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Long symbol:       %s\n", res.Long.Name())
	fmt.Fprintf(w, "Hedge symbol:      %s\n", res.Hedge.Name())
	if res.LongSource != "" {
		fmt.Fprintf(w, "Long source:       %s\n", res.LongSource)
	}
	if res.HedgeSource != "" {
		fmt.Fprintf(w, "Hedge source:      %s\n", res.HedgeSource)
	}
	fmt.Fprintf(w, "Entry days offset: %d\n", res.Options.EntryOffset)
	fmt.Fprintf(w, "Exit days offset:  %d\n", res.Options.ExitOffset)
	fmt.Fprintf(w, "Notional per leg:  %.2f\n", res.Options.Notional)
	fmt.Fprintf(w, "Window:            %s - %s\n", res.Begin, res.End)

	first, last := res.Long.Period()
	fmt.Fprintf(w, "Records:           %d\n", res.Long.Len())
	fmt.Fprintf(w, "Period:            %s - %s\n", first, last)
	fmt.Fprintf(w, "Total days:        %d\n", res.Long.Days())
}

// PrintPositions prints one line per position.
func PrintPositions(w io.Writer, ps []position.Position) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}

	fmt.Fprintf(w, "%-10s %-10s %-10s %10s %10s %10s %10s %12s %8s\n",
		"ID", "Entry", "Exit", "Long In", "Long Out", "Hedge In", "Hedge Out", "P/L", "Return")
	for _, p := range ps {
		exit := "-"
		longOut, hedgeOut := "-", "-"
		pl := p.PL()
		if p.State() == position.Closed {
			exit = p.ExitDate().String()
			longOut = fmt.Sprintf("%.2f", p.Long.ExitPrice)
			hedgeOut = fmt.Sprintf("%.2f", p.Hedge.ExitPrice)
		}
		fmt.Fprintf(w, "%-10s %-10s %-10s %10.2f %10s %10.2f %10s %12s %7.2f%%\n",
			shortID(p.ID),
			p.EntryDate(),
			exit,
			p.Long.EntryPrice,
			longOut,
			p.Hedge.EntryPrice,
			hedgeOut,
			pl.StringFixed(2),
			p.Return()*100,
		)
	}
}

// PrintReturnFactors prints trade statistics.
func PrintReturnFactors(w io.Writer, rf factors.ReturnFactors) {
	fmt.Fprintf(w, "Trades:            %d\n", rf.Trades)
	fmt.Fprintf(w, "Wins:              %d\n", rf.Wins)
	fmt.Fprintf(w, "Losses:            %d\n", rf.Losses)
	fmt.Fprintf(w, "Win Rate:          %.2f%%\n", rf.WinRate*100)
	fmt.Fprintf(w, "Cumulative Return: %.2f%%\n", rf.CumulativeReturn*100)
	fmt.Fprintf(w, "Average Return:    %.2f%%\n", rf.AverageReturn*100)
	fmt.Fprintf(w, "Std Deviation:     %.2f%%\n", rf.StdDev*100)
	fmt.Fprintf(w, "Best:              %.2f%%\n", rf.Best*100)
	fmt.Fprintf(w, "Worst:             %.2f%%\n", rf.Worst*100)
	fmt.Fprintf(w, "Max Cons. Wins:    %d\n", rf.MaxConsecutiveWins)
	fmt.Fprintf(w, "Max Cons. Losses:  %d\n", rf.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Max Drawdown:      %.2f%%\n", rf.MaxDrawdown*100)
	fmt.Fprintf(w, "Net P/L:           %s\n", rf.NetPL.StringFixed(2))
	fmt.Fprintf(w, "Gross Profit:      %s\n", rf.GrossProfit.StringFixed(2))
	fmt.Fprintf(w, "Gross Loss:        %s\n", rf.GrossLoss.StringFixed(2))
	fmt.Fprintf(w, "Profit Factor:     %.2f\n", rf.ProfitFactor)

	if rf.OpenPositions > 0 {
		fmt.Fprintf(w, "Open Positions:    %d\n", rf.OpenPositions)
		fmt.Fprintf(w, "Open P/L:          %s\n", rf.OpenPL.StringFixed(2))
		fmt.Fprintf(w, "Open Return:       %.2f%%\n", rf.OpenReturn*100)
	}
	fmt.Fprintf(w, "Total Return:      %.2f%%\n", rf.TotalReturn*100)
}

// PrintPositionFactors prints per position excursions and their averages.
func PrintPositionFactors(w io.Writer, set factors.PositionFactorsSet) {
	if set.Len() == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}

	fmt.Fprintf(w, "%-10s %-10s %6s %8s %8s %8s\n", "ID", "Entry", "Days", "Return", "MAE", "MFE")
	for _, pf := range set.Factors {
		fmt.Fprintf(w, "%-10s %-10s %6d %7.2f%% %7.2f%% %7.2f%%\n",
			shortID(pf.Position.ID),
			pf.Position.EntryDate(),
			pf.HoldDays,
			pf.Return*100,
			pf.MAE*100,
			pf.MFE*100,
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Avg Hold Days:     %.1f\n", set.AvgHoldDays)
	fmt.Fprintf(w, "Avg Return:        %.2f%%\n", set.AvgReturn*100)
	fmt.Fprintf(w, "Avg MAE:           %.2f%%\n", set.AvgMAE*100)
	fmt.Fprintf(w, "Worst MAE:         %.2f%%\n", set.WorstMAE*100)
	if best, ok := set.Best(); ok {
		fmt.Fprintf(w, "Best Trade:        %s %.2f%%\n", best.Position.EntryDate(), best.Return*100)
	}
	if worst, ok := set.Worst(); ok {
		fmt.Fprintf(w, "Worst Trade:       %s %.2f%%\n", worst.Position.EntryDate(), worst.Return*100)
	}
}

// shortID keeps the random tail of a ULID, which is what tells positions
// from the same run apart.
func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 10 {
		return id
	}
	return id[len(id)-10:]
}
