package source

import (
	"context"

	"github.com/tealfin/candlecache/internal/core"
)

// Fetcher defines the interface for remote candle sources.
type Fetcher interface {
	// Name returns the source identifier (e.g., "binance")
	Name() string

	// Fetch retrieves candles covering as much of [start, end) as the
	// remote allows, paginating automatically. Times are epoch seconds.
	Fetch(ctx context.Context, tf core.Timeframe, symbol string, start, end int64) ([]core.Candle, error)

	// FetchLatest retrieves only the most recent limit candles, without
	// pagination. Used for lightweight refresh calls.
	FetchLatest(ctx context.Context, symbol string, tf core.Timeframe, limit int) ([]core.Candle, error)
}
