package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/jantrader/backtest"
	"github.com/rustyeddy/jantrader/config"
	"github.com/rustyeddy/jantrader/driver/sqldb"
	"github.com/rustyeddy/jantrader/market"
	"github.com/rustyeddy/jantrader/series"
)

// importDrivers can feed the price database.
var importDrivers = []string{"yahoo", "barra", "http", "alpaca"}

type dbFlags struct {
	path string
	dsn  string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "db", "./prices.db", "SQLite price database")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Postgres DSN, used instead of --db when set")
}

func (f *dbFlags) open() (*sqldb.Store, error) {
	if f.dsn != "" {
		return openStore("postgres", f.dsn)
	}
	return openStore("sqlite", f.path)
}

func newDataCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the price database",
	}
	cmd.AddCommand(
		newDataImportCmd(rc),
		newDataSymbolsCmd(),
	)
	return cmd
}

func newDataImportCmd(rc *RootConfig) *cobra.Command {
	var (
		db       dbFlags
		symbol   string
		drv      string
		source   string
		beginStr string
		endStr   string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load prices through a driver into the price database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				return fmt.Errorf("--symbol is required")
			}
			if !slices.Contains(importDrivers, drv) {
				return fmt.Errorf("--driver must be one of yahoo, barra, http, alpaca (got %q)", drv)
			}
			if source == "" && drv != "alpaca" {
				return fmt.Errorf("--source is required for the %s driver", drv)
			}

			begin, err := market.ParseDate(beginStr)
			if err != nil {
				return fmt.Errorf("bad --begin: %w", err)
			}
			end, err := market.ParseDate(endStr)
			if err != nil {
				return fmt.Errorf("bad --end: %w", err)
			}

			cfg, err := rc.load()
			if err != nil {
				return err
			}

			src, release, err := openSource(config.SourceConfig{Symbol: symbol, Driver: drv, Source: source}, cfg, begin, end)
			defer release()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s := series.New(symbol)
			n, err := s.Load(ctx, src.Driver, src.Location, begin, end)
			if err != nil {
				return err
			}
			if n == 0 {
				return &backtest.NoDataError{Symbol: symbol, Location: src.Location}
			}

			st, err := db.open()
			if err != nil {
				return err
			}
			defer st.Close()

			written, err := st.Import(ctx, symbol, s.Records())
			if err != nil {
				return err
			}

			first, last := s.Period()
			log.Info().
				Str("symbol", symbol).
				Int("records", written).
				Stringer("first", first).
				Stringer("last", last).
				Msg("imported")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records for %s (%s - %s)\n", written, symbol, first, last)
			return nil
		},
	}

	db.register(cmd)
	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol stored with the records")
	cmd.Flags().StringVar(&drv, "driver", "yahoo", "Driver: yahoo|barra|http|alpaca")
	cmd.Flags().StringVar(&source, "source", "", "File or URL read by the driver")
	cmd.Flags().StringVar(&beginStr, "begin", "1900-01-01", "First date imported")
	cmd.Flags().StringVar(&endStr, "end", "9999-12-31", "Last date imported")

	return cmd
}

func newDataSymbolsCmd() *cobra.Command {
	var db dbFlags

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List the symbols in the price database",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := db.open()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			syms, err := st.Symbols(ctx)
			if err != nil {
				return err
			}
			for _, sym := range syms {
				n, err := st.Count(ctx, sym)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", sym, n)
			}
			return nil
		},
	}

	db.register(cmd)
	return cmd
}
