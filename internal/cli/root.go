package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/jantrader/config"
	"github.com/rustyeddy/jantrader/internal/logger"
)

const version = "0.3.0"

// RootConfig holds the persistent flags shared by every command.
type RootConfig struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	NoColor    bool
}

// load returns the config file named by --config on top of the defaults, or
// the defaults alone. Environment credentials are applied either way. The
// result is not validated; commands validate after applying their flags.
func (rc *RootConfig) load() (*config.Config, error) {
	if rc.ConfigPath != "" {
		return config.ReadFile(rc.ConfigPath)
	}
	cfg := config.Default()
	cfg.ApplyEnv()
	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "jantrader",
		Short:         "jantrader: year-end small cap vs large cap pairs backtester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", "", "Read environment from this file (default ./.env when present)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&rc.NoColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := logger.Setup(cmd.ErrOrStderr(), rc.LogLevel, rc.NoColor); err != nil {
			return err
		}
		if rc.EnvFile != "" {
			return config.LoadEnv(rc.EnvFile)
		}
		return config.LoadEnv()
	}

	cmd.AddCommand(
		newJanCmd(rc),
		newDataCmd(rc),
		newConfigCmd(),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jantrader %s\n", version)
		},
	})

	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
