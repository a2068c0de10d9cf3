package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/jantrader/market"
)

// Config represents a complete backtest run.
type Config struct {
	Long   SourceConfig `json:"long" yaml:"long" toml:"long"`
	Hedge  SourceConfig `json:"hedge" yaml:"hedge" toml:"hedge"`
	Window WindowConfig `json:"window" yaml:"window" toml:"window"`
	Trade  TradeConfig  `json:"trade" yaml:"trade" toml:"trade"`
	Report ReportConfig `json:"report" yaml:"report" toml:"report"`
	Alpaca AlpacaConfig `json:"alpaca" yaml:"alpaca" toml:"alpaca"`
}

// SourceConfig says where an instrument's prices come from. Source is a file
// path for yahoo and barra, a URL for http, a database path or DSN for sqlite
// and postgres, and unused for alpaca.
type SourceConfig struct {
	Symbol string `json:"symbol" yaml:"symbol" toml:"symbol"`
	Driver string `json:"driver" yaml:"driver" toml:"driver"`
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
}

// WindowConfig bounds the records loaded, both dates inclusive.
type WindowConfig struct {
	Begin string `json:"begin" yaml:"begin" toml:"begin"`
	End   string `json:"end" yaml:"end" toml:"end"`
}

type TradeConfig struct {
	EntryOffset    int     `json:"entry_offset" yaml:"entry_offset" toml:"entry_offset"`
	ExitOffset     int     `json:"exit_offset" yaml:"exit_offset" toml:"exit_offset"`
	Notional       float64 `json:"notional" yaml:"notional" toml:"notional"`
	HoldUnresolved bool    `json:"hold_unresolved" yaml:"hold_unresolved" toml:"hold_unresolved"`
	Seed           int64   `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`
}

type ReportConfig struct {
	Format string `json:"format" yaml:"format" toml:"format"` // text, org or csv
}

// AlpacaConfig holds market data credentials. Empty values are taken from
// the APCA_* environment variables by ApplyEnv.
type AlpacaConfig struct {
	KeyID     string `json:"key_id,omitempty" yaml:"key_id,omitempty" toml:"key_id,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" toml:"secret_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
}

// Drivers lists the supported price drivers.
var Drivers = []string{"yahoo", "barra", "http", "sqlite", "postgres", "alpaca"}

// Formats lists the supported report formats.
var Formats = []string{"text", "org", "csv"}

// LoadFromFile reads configuration with ReadFile and validates it.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ReadFile loads configuration from path on top of Default and applies the
// environment (see ApplyEnv) without validating, so callers can layer flags
// on top first. Files ending in .toml are TOML and .json are JSON. Anything
// else is tried as YAML first, then JSON.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config (toml): %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (json): %w", err)
		}
	default:
		// Try YAML first, fall back to JSON
		if err := yaml.Unmarshal(data, cfg); err != nil {
			cfg = Default()
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// SaveToFile writes the configuration in the format named by path's
// extension, JSON when it is not .yaml, .yml or .toml.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, s := range []struct {
		name string
		cfg  SourceConfig
	}{
		{"long", c.Long},
		{"hedge", c.Hedge},
	} {
		if err := s.cfg.validate(s.name); err != nil {
			return err
		}
	}
	if strings.EqualFold(c.Long.Symbol, c.Hedge.Symbol) {
		return fmt.Errorf("long and hedge symbols must differ")
	}

	if _, _, err := c.Dates(); err != nil {
		return err
	}

	if c.Trade.Notional < 0 {
		return fmt.Errorf("trade.notional must not be negative")
	}
	if !slices.Contains(Formats, c.Report.Format) {
		return fmt.Errorf("report.format must be one of %s", strings.Join(Formats, ", "))
	}
	return nil
}

func (s SourceConfig) validate(name string) error {
	if s.Symbol == "" {
		return fmt.Errorf("%s.symbol is required", name)
	}
	if !slices.Contains(Drivers, s.Driver) {
		return fmt.Errorf("%s.driver must be one of %s", name, strings.Join(Drivers, ", "))
	}
	if s.Source == "" && s.Driver != "alpaca" {
		return fmt.Errorf("%s.source is required for the %s driver", name, s.Driver)
	}
	return nil
}

// Dates parses the load window.
func (c *Config) Dates() (begin, end market.Date, err error) {
	begin, err = market.ParseDate(c.Window.Begin)
	if err != nil {
		return market.NoDate, market.NoDate, fmt.Errorf("window.begin: %w", err)
	}
	end, err = market.ParseDate(c.Window.End)
	if err != nil {
		return market.NoDate, market.NoDate, fmt.Errorf("window.end: %w", err)
	}
	if begin.After(end) {
		return market.NoDate, market.NoDate, fmt.Errorf("window.begin %s is after window.end %s", begin, end)
	}
	return begin, end, nil
}

// LoadEnv reads .env style files into the process environment. With no paths
// it reads ./.env and ignores a missing file. Variables already set win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// ApplyEnv fills unset credentials from the environment: Alpaca keys from
// APCA_API_KEY_ID, APCA_API_SECRET_KEY and APCA_API_DATA_URL, and the DSN of
// a postgres source without one from DATABASE_URL.
func (c *Config) ApplyEnv() {
	setIfEmpty(&c.Alpaca.KeyID, "APCA_API_KEY_ID")
	setIfEmpty(&c.Alpaca.SecretKey, "APCA_API_SECRET_KEY")
	setIfEmpty(&c.Alpaca.BaseURL, "APCA_API_DATA_URL")

	for _, s := range []*SourceConfig{&c.Long, &c.Hedge} {
		if s.Driver == "postgres" {
			setIfEmpty(&s.Source, "DATABASE_URL")
		}
	}
}

func setIfEmpty(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

// Default returns a configuration with sensible defaults: the Russell 2000
// against the S&P 500 from Yahoo CSV files.
func Default() *Config {
	return &Config{
		Long: SourceConfig{
			Symbol: "IWM",
			Driver: "yahoo",
			Source: "data/IWM.csv",
		},
		Hedge: SourceConfig{
			Symbol: "SPY",
			Driver: "yahoo",
			Source: "data/SPY.csv",
		},
		Window: WindowConfig{
			Begin: "1990-01-01",
			End:   "2024-12-31",
		},
		Trade: TradeConfig{
			Notional: 10000,
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}
