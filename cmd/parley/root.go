package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "parley",
	Short:         "Parley drives goal-oriented dialogues",
	Long:          `Parley tracks which pieces of information a dialogue still needs and answers each turn from the resource in focus.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, json or toml)")
	flags.String("templates", "", "Directory of dialogue templates (default: embedded templates)")
	flags.String("store", "", "Snapshot store as driver[:location], e.g. sqlite:./parley.db or redis:localhost:6379")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
}

// loadConfig reads --config and applies the other global flags over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("templates"); v != "" {
		cfg.Templates = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		applyStoreFlag(&cfg.Store, v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyStoreFlag(sc *config.StoreConfig, v string) {
	driver, location, _ := strings.Cut(v, ":")
	sc.Driver = driver
	if location == "" {
		return
	}
	switch driver {
	case config.DriverFile, config.DriverSQLite:
		sc.Path = location
	case config.DriverRedis:
		sc.Address = location
	case config.DriverDynamoDB:
		sc.Table = location
	}
}

// newLogger writes to stderr so stdout stays free for dialogue output.
func newLogger(cfg *config.Config) *slog.Logger {
	var opts []logging.Option
	if cfg.LogFormat == "json" {
		opts = append(opts, logging.WithJSON())
	}
	return logging.New(cfg.Level(), opts...)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
