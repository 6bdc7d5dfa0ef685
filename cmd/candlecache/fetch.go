package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tealfin/candlecache/internal/core"
)

var (
	fetchTimeframe string
	fetchStart     string
	fetchEnd       string
	fetchJSON      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <data-source-id>",
	Short: "Fetch candles for a window, using the local cache",
	Long: `Fetch candles for a data source id (e.g. "binance-btcusdt") over a
time window. Cached shards are used where coverage suffices; only the
missing ranges hit the remote API. Without --start the window defaults
to the timeframe's lookback ending now.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := core.ParseTimeframe(fetchTimeframe)
		if err != nil {
			return err
		}

		end := time.Now().UTC()
		if fetchEnd != "" {
			if end, err = time.Parse("2006-01-02", fetchEnd); err != nil {
				return fmt.Errorf("parsing --end: %w", err)
			}
		}
		start := end.Add(-time.Duration(tf.DefaultLookback()) * time.Duration(tf.PeriodSeconds()) * time.Second)
		if fetchStart != "" {
			if start, err = time.Parse("2006-01-02", fetchStart); err != nil {
				return fmt.Errorf("parsing --start: %w", err)
			}
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Logger.Sync()

		candles, err := a.Manager.Get(context.Background(), tf, start.Unix(), end.Unix(), args[0])
		if err != nil {
			return err
		}

		if fetchJSON {
			return json.NewEncoder(os.Stdout).Encode(candles)
		}
		for _, c := range candles {
			fmt.Printf("%s  o=%-12.6g h=%-12.6g l=%-12.6g c=%-12.6g\n",
				time.Unix(c.Time, 0).UTC().Format("2006-01-02 15:04"),
				c.Open, c.High, c.Low, c.Close)
		}
		fmt.Printf("%d candles\n", len(candles))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchTimeframe, "timeframe", "t", "1d", "timeframe (1h, 4h, 1d, 1w)")
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "window start (YYYY-MM-DD, UTC)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "window end (YYYY-MM-DD, UTC)")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(fetchCmd)
}
