package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mission-control/internal/config"
	"mission-control/internal/logging"
)

var (
	configPath string
	schemaPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "mission-control",
	Short: "Emergency-response mission control backend",
	Long: "mission-control serves live fire, drone and notification streams " +
		"plus historical telemetry queries for the dashboard.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "config/mission-control.yaml", "Path to configuration YAML (empty for built-in defaults)")
	pf.StringVar(&schemaPath, "schema", "schemas/mission-control.cue", "Path to CUE schema file (empty to skip validation)")
	pf.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "Override log format (text, json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
}

// setup loads the configuration and builds the process logger. Log output
// goes to stderr so stdout stays clean for echoed telemetry.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath, schemaPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	log, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(log)
	return cfg, log, nil
}
