package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tealfin/candlecache/internal/app"
	"github.com/tealfin/candlecache/internal/config"
	"github.com/tealfin/candlecache/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "candlecache",
	Short: "candlecache - incremental OHLC candle cache",
	Long: `candlecache retrieves, caches, and incrementally completes OHLC candle
data from remote exchanges, persisting it as year-sharded JSON files and
fetching only the ranges that are missing locally.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// buildApp loads config and assembles the engine for subcommands.
func buildApp() (*app.App, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Must(debug || cfg.Logging.Development)
	return app.New(cfg, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
