package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/mt5recon/config"
	"github.com/rustyeddy/mt5recon/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mt5recon",
	Short: "Reconcile local trade state against the MT5 terminal",
	Long: `mt5recon compares locally persisted open trade legs against the live
positions reported by the MT5 bridge and the terminal's deal history.

It detects positions the broker closed silently (demo-account resets),
terminalizes the affected legs, and writes an append-only incident record
with the evidence used for every decision.

The job is designed to run to completion on a schedule (cron), one pass per
invocation. It never mutates remote state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./mt5recon.yaml", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	return config.LoadFromFile(cfgPath)
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
}
