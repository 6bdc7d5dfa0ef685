// Package shard persists candles as one JSON file per
// (timeframe, data-source id, UTC calendar year). Shards for different
// years never overlap, so independent writes are safe to run in
// parallel and a damaged file only costs one year of cache.
package shard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tealfin/candlecache/internal/core"
	"github.com/tealfin/candlecache/internal/storage"
)

// clearYearMin/Max bound the best-effort sweep in Clear; shard files
// outside this range are never created by Write in practice.
const (
	clearYearMin = 2000
	clearYearMax = 2100
)

// shardFile is the on-disk shard schema. Pointer fields let validation
// distinguish a missing key from a present-but-empty one.
type shardFile struct {
	Timeframe   *string        `json:"timeframe"`
	Candles     *[]core.Candle `json:"candles"`
	LastUpdated *string        `json:"lastUpdated"`
}

func (f *shardFile) valid() bool {
	return f.Timeframe != nil && f.Candles != nil && f.LastUpdated != nil
}

// Store reads and writes year-sharded candle files through a
// storage.Dir. A nil Dir puts the store in unavailable mode: reads
// report absent data and writes are skipped with a warning, so the
// engine can still serve remote-only sessions.
type Store struct {
	dir    storage.Dir
	logger *zap.Logger
}

// NewStore creates a shard store over dir. dir may be nil.
func NewStore(dir storage.Dir, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// FileName returns the shard file name for one (timeframe, id, year).
func FileName(tf core.Timeframe, id string, year int) string {
	return fmt.Sprintf("kline_%s_%s_%d.json", tf, id, year)
}

// LegacyFileName returns the pre-sharding single-file name for a
// timeframe, kept as a read-only fallback.
func LegacyFileName(tf core.Timeframe) string {
	return fmt.Sprintf("kline_%s.json", tf)
}

// YearsSpanning returns every UTC calendar year touched by
// [start, end], inclusive.
func YearsSpanning(start, end int64) []int {
	first := time.Unix(start, 0).UTC().Year()
	last := time.Unix(end, 0).UTC().Year()
	if last < first {
		first, last = last, first
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// Read loads all persisted candles for the years spanned by
// [start, end] (the current year when both are zero), deduplicated by
// time and sorted ascending. Missing or malformed shard files count as
// absent, never as an error; with no year shards present the legacy
// single file is consulted. An empty result means no local data.
func (s *Store) Read(ctx context.Context, tf core.Timeframe, id string, start, end int64) ([]core.Candle, error) {
	if s.dir == nil {
		return nil, nil
	}

	var years []int
	if start == 0 && end == 0 {
		years = []int{time.Now().UTC().Year()}
	} else {
		years = YearsSpanning(start, end)
	}

	var collected []core.Candle
	found := false
	for _, year := range years {
		candles, ok := s.readShard(ctx, FileName(tf, id, year))
		if !ok {
			continue
		}
		found = true
		collected = append(collected, candles...)
	}

	if !found {
		if candles, ok := s.readShard(ctx, LegacyFileName(tf)); ok {
			collected = candles
		}
	}

	if len(collected) == 0 {
		return nil, nil
	}
	return core.DedupCandles(collected), nil
}

// readShard loads one shard file. ok is false when the file is absent,
// unreadable, or fails schema validation.
func (s *Store) readShard(ctx context.Context, name string) ([]core.Candle, bool) {
	data, err := s.dir.ReadFile(ctx, name)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.logger.Warn("shard read failed, treating as absent",
				zap.String("file", name), zap.Error(err))
		}
		return nil, false
	}

	var f shardFile
	if err := json.Unmarshal(data, &f); err != nil || !f.valid() {
		s.logger.Warn("malformed shard, treating as absent",
			zap.String("file", name),
			zap.Error(core.WrapError(core.ErrMalformedShard, err)))
		return nil, false
	}
	return *f.Candles, true
}

// Write groups candles by UTC year and writes one shard per year, all
// concurrently. Year shards are disjoint so the writes cannot
// conflict; the call waits for all of them and fails if any fails.
func (s *Store) Write(ctx context.Context, tf core.Timeframe, id string, candles []core.Candle) error {
	if s.dir == nil {
		s.logger.Warn("no storage backend configured, skipping write",
			zap.String("timeframe", tf.String()), zap.String("id", id))
		return nil
	}
	if len(candles) == 0 {
		return nil
	}

	byYear := make(map[int][]core.Candle)
	for _, c := range candles {
		year := time.Unix(c.Time, 0).UTC().Year()
		byYear[year] = append(byYear[year], c)
	}

	g, gctx := errgroup.WithContext(ctx)
	for year, group := range byYear {
		year, group := year, group
		g.Go(func() error {
			return s.writeShard(gctx, tf, id, year, group)
		})
	}
	return g.Wait()
}

func (s *Store) writeShard(ctx context.Context, tf core.Timeframe, id string, year int, candles []core.Candle) error {
	sorted := core.DedupCandles(candles)
	tfStr := tf.String()
	updated := time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(shardFile{
		Timeframe:   &tfStr,
		Candles:     &sorted,
		LastUpdated: &updated,
	})
	if err != nil {
		return fmt.Errorf("marshaling shard: %w", err)
	}

	name := FileName(tf, id, year)
	if err := s.dir.WriteFile(ctx, name, data); err != nil {
		return fmt.Errorf("writing shard %s: %w", name, err)
	}
	return nil
}

// Merge folds newCandles into the persisted data. The affected year
// span comes from newCandles' own min and max times, never from an
// external window, so existing candles in those years cannot be lost.
// On a time collision the new candle wins.
func (s *Store) Merge(ctx context.Context, tf core.Timeframe, id string, newCandles []core.Candle) error {
	if s.dir == nil {
		s.logger.Warn("no storage backend configured, skipping merge",
			zap.String("timeframe", tf.String()), zap.String("id", id))
		return nil
	}
	if len(newCandles) == 0 {
		return nil
	}

	min, max, _ := core.TimeBounds(newCandles)
	existing, err := s.Read(ctx, tf, id, min, max)
	if err != nil {
		return err
	}

	byTime := make(map[int64]core.Candle, len(existing)+len(newCandles))
	for _, c := range existing {
		byTime[c.Time] = c
	}
	for _, c := range newCandles {
		byTime[c.Time] = c
	}

	merged := make([]core.Candle, 0, len(byTime))
	for _, c := range byTime {
		merged = append(merged, c)
	}
	core.SortCandles(merged)

	return s.Write(ctx, tf, id, merged)
}

// Clear deletes the legacy file and every shard file for the bounded
// year range, ignoring files that do not exist. Deletion is
// best-effort: other failures are logged, not returned.
func (s *Store) Clear(ctx context.Context, tf core.Timeframe, id string) error {
	if s.dir == nil {
		return nil
	}

	s.remove(ctx, LegacyFileName(tf))
	for year := clearYearMin; year <= clearYearMax; year++ {
		s.remove(ctx, FileName(tf, id, year))
	}
	return nil
}

func (s *Store) remove(ctx context.Context, name string) {
	if err := s.dir.Remove(ctx, name); err != nil && !errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("shard delete failed", zap.String("file", name), zap.Error(err))
	}
}
