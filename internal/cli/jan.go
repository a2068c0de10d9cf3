package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rustyeddy/jantrader/backtest"
	"github.com/rustyeddy/jantrader/config"
	"github.com/rustyeddy/jantrader/report"
)

// janFlags override the loaded config only when given on the command line.
type janFlags struct {
	long, hedge             string
	longSource, hedgeSource string
	longDriver, hedgeDriver string
	begin, end              string
	entryOffset, exitOffset int
	notional                float64
	holdOpen                bool
	format                  string
}

func (f *janFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("long", &cfg.Long.Symbol, f.long)
	set("hedge", &cfg.Hedge.Symbol, f.hedge)
	set("long-source", &cfg.Long.Source, f.longSource)
	set("hedge-source", &cfg.Hedge.Source, f.hedgeSource)
	set("long-driver", &cfg.Long.Driver, f.longDriver)
	set("hedge-driver", &cfg.Hedge.Driver, f.hedgeDriver)
	set("begin", &cfg.Window.Begin, f.begin)
	set("end", &cfg.Window.End, f.end)
	set("format", &cfg.Report.Format, f.format)

	if fs.Changed("entry-offset") {
		cfg.Trade.EntryOffset = f.entryOffset
	}
	if fs.Changed("exit-offset") {
		cfg.Trade.ExitOffset = f.exitOffset
	}
	if fs.Changed("notional") {
		cfg.Trade.Notional = f.notional
	}
	if fs.Changed("hold-open") {
		cfg.Trade.HoldUnresolved = f.holdOpen
	}
}

func newJanCmd(rc *RootConfig) *cobra.Command {
	f := &janFlags{}

	cmd := &cobra.Command{
		Use:   "jan",
		Short: "Backtest the year-end long/hedge trade",
		Long: `Buy the long symbol and short the hedge on the first trading day on or
after December 20 (plus --entry-offset days), and close both legs on the
first trading day on or after January 9 of the next year (plus --exit-offset
days). Flags override the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.load()
			if err != nil {
				return err
			}
			f.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			begin, end, err := cfg.Dates()
			if err != nil {
				return err
			}

			long, releaseLong, err := openSource(cfg.Long, cfg, begin, end)
			defer releaseLong()
			if err != nil {
				return fmt.Errorf("long: %w", err)
			}
			hedge, releaseHedge, err := openSource(cfg.Hedge, cfg, begin, end)
			defer releaseHedge()
			if err != nil {
				return fmt.Errorf("hedge: %w", err)
			}

			runner := &backtest.Runner{
				Long:  long,
				Hedge: hedge,
				Begin: begin,
				End:   end,
				Options: backtest.JanOptions{
					EntryOffset:    cfg.Trade.EntryOffset,
					ExitOffset:     cfg.Trade.ExitOffset,
					Notional:       cfg.Trade.Notional,
					HoldUnresolved: cfg.Trade.HoldUnresolved,
					Seed:           cfg.Trade.Seed,
				},
			}

			res, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Report.Format, res)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.long, "long", "", "Long symbol")
	fs.StringVar(&f.hedge, "hedge", "", "Hedge symbol")
	fs.StringVar(&f.longSource, "long-source", "", "Long price source (file, URL, database)")
	fs.StringVar(&f.hedgeSource, "hedge-source", "", "Hedge price source (file, URL, database)")
	fs.StringVar(&f.longDriver, "long-driver", "", "Long driver: yahoo|barra|http|sqlite|postgres|alpaca")
	fs.StringVar(&f.hedgeDriver, "hedge-driver", "", "Hedge driver: yahoo|barra|http|sqlite|postgres|alpaca")
	fs.StringVar(&f.begin, "begin", "", "First date loaded (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "Last date loaded (YYYY-MM-DD)")
	fs.IntVar(&f.entryOffset, "entry-offset", 0, "Days added to December 20")
	fs.IntVar(&f.exitOffset, "exit-offset", 0, "Days added to January 9")
	fs.Float64Var(&f.notional, "notional", backtest.DefaultNotional, "Cash committed to each leg")
	fs.BoolVar(&f.holdOpen, "hold-open", false, "Keep positions open when the exit is past the data")
	fs.StringVar(&f.format, "format", "text", "Report format: text|org|csv")

	return cmd
}

func render(w io.Writer, format string, res *backtest.Result) error {
	switch format {
	case "org":
		return report.WriteOrg(w, res)
	case "csv":
		return report.WriteCSV(w, res.Book.Chronological())
	case "text", "":
		report.Print(w, res)
		return nil
	}
	return fmt.Errorf("unknown report format %q", format)
}
