package cli

import (
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rustyeddy/jantrader/backtest"
	"github.com/rustyeddy/jantrader/config"
	"github.com/rustyeddy/jantrader/driver"
	"github.com/rustyeddy/jantrader/driver/alpaca"
	"github.com/rustyeddy/jantrader/driver/sqldb"
	"github.com/rustyeddy/jantrader/market"
)

// openSource builds a fresh driver for sc. The returned func releases
// whatever the driver holds open and is never nil.
func openSource(sc config.SourceConfig, cfg *config.Config, begin, end market.Date) (backtest.Source, func() error, error) {
	src := backtest.Source{Symbol: sc.Symbol, Location: sc.Source}
	release := func() error { return nil }

	switch sc.Driver {
	case "yahoo":
		src.Driver = driver.NewYahooDriver()
	case "barra":
		src.Driver = driver.NewBarraDriver()
	case "http":
		src.Driver = driver.NewHTTPDriver(nil)
	case "sqlite", "postgres":
		st, err := openStore(sc.Driver, sc.Source)
		if err != nil {
			return src, release, err
		}
		src.Driver = st.Driver()
		src.Location = sc.Symbol
		release = st.Close
	case "alpaca":
		d := alpaca.New(marketdata.ClientOpts{
			APIKey:    cfg.Alpaca.KeyID,
			APISecret: cfg.Alpaca.SecretKey,
			BaseURL:   cfg.Alpaca.BaseURL,
		})
		d.Start = begin.Time()
		d.End = end.AddDays(1).Time()
		src.Driver = d
		src.Location = sc.Symbol
	default:
		return src, release, fmt.Errorf("unknown driver %q", sc.Driver)
	}
	return src, release, nil
}

func openStore(kind, source string) (*sqldb.Store, error) {
	switch kind {
	case "sqlite":
		return sqldb.NewSQLite(source)
	case "postgres":
		return sqldb.NewPostgres(source)
	}
	return nil, fmt.Errorf("unknown database %q", kind)
}
