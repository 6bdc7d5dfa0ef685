// Package cache orchestrates candle retrieval: it serves lookups from
// the year-sharded local store, analyzes coverage of what it finds, and
// fetches only the missing sub-ranges from the remote source.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tealfin/candlecache/internal/core"
	"github.com/tealfin/candlecache/internal/coverage"
	"github.com/tealfin/candlecache/internal/metrics"
	"github.com/tealfin/candlecache/internal/source"
	"github.com/tealfin/candlecache/internal/storage/shard"
)

// Manager answers "give me candles for timeframe T between [start,end]"
// as cheaply as possible, preferring persisted data and fetching only
// what is missing.
//
// Concurrent calls for distinct (timeframe, id) keys are safe; the
// caller must not issue concurrent calls for the same key.
type Manager struct {
	registry *source.Registry
	store    *shard.Store
	analyzer *coverage.Analyzer
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// New creates a cache manager. analyzer, logger, and reg may be nil,
// in which case defaults (legacy analyzer thresholds, no-op logging,
// a private metrics registry) are used.
func New(registry *source.Registry, store *shard.Store, analyzer *coverage.Analyzer, logger *zap.Logger, reg *metrics.Registry) *Manager {
	if analyzer == nil {
		analyzer = coverage.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Manager{
		registry: registry,
		store:    store,
		analyzer: analyzer,
		logger:   logger,
		metrics:  reg,
	}
}

// Get returns candles for the inclusive window [start, end]. Stored
// data is served when coverage suffices; otherwise the missing ranges
// are fetched, merged into the store, and the refreshed data returned.
// A failed gap fetch on top of existing data degrades to the stale
// stored candles; a failed fetch from an empty store propagates.
func (m *Manager) Get(ctx context.Context, tf core.Timeframe, start, end int64, dataSourceID string) ([]core.Candle, error) {
	srcName, symbol, err := source.ParseID(dataSourceID)
	if err != nil {
		return nil, err
	}
	fetcher, err := m.registry.Resolve(srcName)
	if err != nil {
		return nil, err
	}

	log := m.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.String("timeframe", tf.String()),
		zap.String("id", dataSourceID),
		zap.Int64("start", start),
		zap.Int64("end", end),
	)

	stored, err := m.store.Read(ctx, tf, dataSourceID, start, end)
	if err != nil {
		return nil, err
	}

	if len(stored) == 0 {
		log.Info("no local data, fetching full range")
		fetched, err := m.fetch(ctx, fetcher, tf, symbol, start, end+1)
		if err != nil {
			return nil, fmt.Errorf("fetching %s %s: %w", dataSourceID, tf, err)
		}
		if err := m.store.Write(ctx, tf, dataSourceID, fetched); err != nil {
			return nil, err
		}
		result := core.FilterRange(fetched, start, end)
		m.metrics.RecordGet(tf.String(), metrics.OutcomeMiss, len(result))
		return result, nil
	}

	check := m.analyzer.Check(stored, start, end, tf)
	if check.Sufficient {
		result := core.FilterRange(stored, start, end)
		m.metrics.RecordGet(tf.String(), metrics.OutcomeHit, len(result))
		return result, nil
	}

	log.Info("coverage insufficient, fetching gaps", zap.Int("gaps", len(check.Gaps)))

	var fetched []core.Candle
	for _, gap := range check.Gaps {
		candles, err := m.fetch(ctx, fetcher, tf, symbol, gap.Start, gap.End+1)
		if err != nil {
			// stale data beats no data; keep filling the other gaps
			log.Warn("gap fetch failed, will serve stale data if nothing else lands",
				zap.Int64("gap_start", gap.Start),
				zap.Int64("gap_end", gap.End),
				zap.Error(err))
			continue
		}
		fetched = append(fetched, candles...)
	}

	if len(fetched) == 0 {
		result := core.FilterRange(stored, start, end)
		m.metrics.RecordGet(tf.String(), metrics.OutcomeDegraded, len(result))
		return result, nil
	}

	if err := m.store.Merge(ctx, tf, dataSourceID, fetched); err != nil {
		return nil, err
	}
	refreshed, err := m.store.Read(ctx, tf, dataSourceID, start, end)
	if err != nil {
		return nil, err
	}
	if len(refreshed) == 0 {
		// storage-unavailable mode: nothing persisted, combine in memory
		refreshed = core.DedupCandles(append(stored, fetched...))
	}

	result := core.FilterRange(refreshed, start, end)
	m.metrics.RecordGet(tf.String(), metrics.OutcomeGapFill, len(result))
	return result, nil
}

// UpdateLatest fetches the most recent limit candles and merges them
// into the store. It is a best-effort background refresh: all errors
// are logged and swallowed.
func (m *Manager) UpdateLatest(ctx context.Context, tf core.Timeframe, limit int, dataSourceID string) {
	log := m.logger.With(
		zap.String("timeframe", tf.String()),
		zap.String("id", dataSourceID),
	)

	srcName, symbol, err := source.ParseID(dataSourceID)
	if err != nil {
		log.Warn("refresh skipped: bad data source id", zap.Error(err))
		return
	}
	fetcher, err := m.registry.Resolve(srcName)
	if err != nil {
		log.Warn("refresh skipped: unknown source", zap.Error(err))
		return
	}

	begin := time.Now()
	candles, err := fetcher.FetchLatest(ctx, symbol, tf, limit)
	m.metrics.RecordRemoteFetch(fetcher.Name(), time.Since(begin), err)
	if err != nil {
		log.Warn("refresh fetch failed", zap.Error(err))
		return
	}

	if err := m.store.Merge(ctx, tf, dataSourceID, candles); err != nil {
		log.Warn("refresh merge failed", zap.Error(err))
	}
}

// ClearCache removes all persisted candles for one (timeframe, id).
func (m *Manager) ClearCache(ctx context.Context, tf core.Timeframe, dataSourceID string) error {
	m.metrics.RecordClear()
	return m.store.Clear(ctx, tf, dataSourceID)
}

func (m *Manager) fetch(ctx context.Context, fetcher source.Fetcher, tf core.Timeframe, symbol string, start, end int64) ([]core.Candle, error) {
	begin := time.Now()
	candles, err := fetcher.Fetch(ctx, tf, symbol, start, end)
	m.metrics.RecordRemoteFetch(fetcher.Name(), time.Since(begin), err)
	return candles, err
}
