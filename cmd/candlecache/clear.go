package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tealfin/candlecache/internal/core"
)

var clearTimeframe string

var clearCmd = &cobra.Command{
	Use:   "clear <data-source-id>",
	Short: "Delete all cached shards for a timeframe and data source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := core.ParseTimeframe(clearTimeframe)
		if err != nil {
			return err
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Logger.Sync()

		if err := a.Manager.ClearCache(context.Background(), tf, args[0]); err != nil {
			return err
		}
		fmt.Printf("cleared %s cache for %s\n", tf, args[0])
		return nil
	},
}

func init() {
	clearCmd.Flags().StringVarP(&clearTimeframe, "timeframe", "t", "1d", "timeframe (1h, 4h, 1d, 1w)")
	rootCmd.AddCommand(clearCmd)
}
