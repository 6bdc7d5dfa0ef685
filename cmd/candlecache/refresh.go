package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tealfin/candlecache/internal/core"
)

var (
	refreshTimeframe string
	refreshLimit     int
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <data-source-id>",
	Short: "Merge the latest candles into the cache",
	Long: `Fetch only the most recent candles for a data source id and merge
them into the persisted shards. Failures are logged, not fatal: this is
the same best-effort path a background refresh uses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := core.ParseTimeframe(refreshTimeframe)
		if err != nil {
			return err
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Logger.Sync()

		a.Manager.UpdateLatest(context.Background(), tf, refreshLimit, args[0])
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVarP(&refreshTimeframe, "timeframe", "t", "1d", "timeframe (1h, 4h, 1d, 1w)")
	refreshCmd.Flags().IntVarP(&refreshLimit, "limit", "n", 100, "number of recent candles to fetch")
	rootCmd.AddCommand(refreshCmd)
}
