package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tealfin/candlecache/internal/core"
	"github.com/tealfin/candlecache/internal/coverage"
	"github.com/tealfin/candlecache/internal/source"
	"github.com/tealfin/candlecache/internal/storage"
	"github.com/tealfin/candlecache/internal/storage/shard"
)

const day = int64(86400)

// fakeFetcher synthesizes one candle per period across the requested
// range and records every call.
type fakeFetcher struct {
	period     int64
	calls      int
	latestErr  error
	fetchErr   error
	empty      bool
	lastSymbol string
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, tf core.Timeframe, symbol string, start, end int64) ([]core.Candle, error) {
	f.calls++
	f.lastSymbol = symbol
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.empty {
		return nil, nil
	}
	// exchanges return period-aligned open times regardless of the
	// requested start
	ts := start
	if rem := ts % f.period; rem != 0 {
		ts += f.period - rem
	}
	var out []core.Candle
	for ; ts < end; ts += f.period {
		out = append(out, core.Candle{Time: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5})
	}
	return out, nil
}

func (f *fakeFetcher) FetchLatest(ctx context.Context, symbol string, tf core.Timeframe, limit int) ([]core.Candle, error) {
	f.calls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	now := time.Now().UTC().Truncate(24 * time.Hour).Unix()
	var out []core.Candle
	for i := limit - 1; i >= 0; i-- {
		out = append(out, core.Candle{Time: now - int64(i)*f.period, Close: 1})
	}
	return out, nil
}

func newTestManager(t *testing.T) (*Manager, *fakeFetcher, *shard.Store) {
	t.Helper()
	dir, err := storage.NewLocalDir(t.TempDir())
	require.NoError(t, err)
	store := shard.NewStore(dir, zap.NewNop())

	reg := source.NewRegistry()
	fetcher := &fakeFetcher{period: day}
	require.NoError(t, reg.Register("fake", fetcher))

	return New(reg, store, nil, zap.NewNop(), nil), fetcher, store
}

// utc returns epoch seconds for a UTC date.
func utc(year int, month time.Month, dayOfMonth int) int64 {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC).Unix()
}

func TestManager_Get_EmptyStoreFetchesOnceThenCaches(t *testing.T) {
	m, fetcher, _ := newTestManager(t)
	ctx := context.Background()

	start := utc(2024, time.March, 1)
	end := start + 30*day

	first, err := m.Get(ctx, core.Timeframe1d, start, end, "fake-btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "empty store should trigger exactly one full-range fetch")
	assert.Equal(t, "BTCUSDT", fetcher.lastSymbol)
	require.Len(t, first, 31)

	second, err := m.Get(ctx, core.Timeframe1d, start, end, "fake-btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "second identical lookup must not touch the remote")
	assert.Equal(t, first, second)
}

func TestManager_Get_YearBoundaryPersistsTwoShards(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	start := utc(2023, time.December, 20)
	end := start + 20*day

	_, err := m.Get(ctx, core.Timeframe1d, start, end, "fake-btcusdt")
	require.NoError(t, err)

	for _, year := range []int{2023, 2024} {
		got, err := store.Read(ctx, core.Timeframe1d, "fake-btcusdt",
			utc(year, time.January, 1), utc(year, time.December, 31))
		require.NoError(t, err)
		assert.NotEmpty(t, got, "year %d shard should hold data", year)
	}
}

func TestManager_Get_FillsSuffixGap(t *testing.T) {
	m, fetcher, store := newTestManager(t)
	ctx := context.Background()

	start := utc(2024, time.March, 1)
	knownEnd := start + 25*day
	var known []core.Candle
	for ts := start; ts <= knownEnd; ts += day {
		known = append(known, core.Candle{Time: ts, Close: 1})
	}
	require.NoError(t, store.Write(ctx, core.Timeframe1d, "fake-btcusdt", known))

	end := start + 30*day
	got, err := m.Get(ctx, core.Timeframe1d, start, end, "fake-btcusdt")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls, "one gap should mean one fetch")
	require.Len(t, got, 31)
	assert.Equal(t, end, got[len(got)-1].Time, "suffix gap should be filled to the end")

	// the merge persisted: a re-read needs no remote call
	fetcher.calls = 0
	again, err := m.Get(ctx, core.Timeframe1d, start, end, "fake-btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, got, again)
}

func TestManager_Get_SufficientStoredSkipsRemote(t *testing.T) {
	m, fetcher, store := newTestManager(t)
	ctx := context.Background()

	start := utc(2024, time.March, 1)
	end := start + 10*day
	var known []core.Candle
	for ts := start; ts <= end; ts += day {
		known = append(known, core.Candle{Time: ts, Close: 1})
	}
	require.NoError(t, store.Write(ctx, core.Timeframe1d, "fake-btcusdt", known))

	got, err := m.Get(ctx, core.Timeframe1d, start, end, "fake-btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 0, fetcher.calls)
	assert.Len(t, got, 11)
}

func TestManager_Get_DegradesToStaleOnGapFetchFailure(t *testing.T) {
	m, fetcher, store := newTestManager(t)
	ctx := context.Background()

	start := utc(2024, time.March, 1)
	var known []core.Candle
	for ts := start; ts <= start+25*day; ts += day {
		known = append(known, core.Candle{Time: ts, Close: 1})
	}
	require.NoError(t, store.Write(ctx, core.Timeframe1d, "fake-btcusdt", known))

	fetcher.fetchErr = errors.New("exchange down")
	got, err := m.Get(ctx, core.Timeframe1d, start, start+30*day, "fake-btcusdt")
	require.NoError(t, err, "gap-fill failure on top of data must not propagate")
	assert.Len(t, got, 26, "stale stored data should be served")
}

func TestManager_Get_DegradesToStaleOnEmptyGapFetch(t *testing.T) {
	m, fetcher, store := newTestManager(t)
	ctx := context.Background()

	start := utc(2024, time.March, 1)
	var known []core.Candle
	for ts := start; ts <= start+25*day; ts += day {
		known = append(known, core.Candle{Time: ts, Close: 1})
	}
	require.NoError(t, store.Write(ctx, core.Timeframe1d, "fake-btcusdt", known))

	fetcher.empty = true
	got, err := m.Get(ctx, core.Timeframe1d, start, start+30*day, "fake-btcusdt")
	require.NoError(t, err)
	assert.Len(t, got, 26)
}

func TestManager_Get_EmptyStoreFetchFailurePropagates(t *testing.T) {
	m, fetcher, _ := newTestManager(t)

	fetcher.fetchErr = errors.New("exchange down")
	_, err := m.Get(context.Background(), core.Timeframe1d, utc(2024, time.March, 1), utc(2024, time.April, 1), "fake-btcusdt")
	require.Error(t, err)
}

func TestManager_Get_InvalidID(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Get(context.Background(), core.Timeframe1d, 0, day, "noseparator")
	require.ErrorIs(t, err, core.ErrInvalidIDFormat)
}

func TestManager_Get_UnknownSource(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Get(context.Background(), core.Timeframe1d, 0, day, "kraken-btcusdt")
	require.ErrorIs(t, err, core.ErrUnknownSource)
}

func TestManager_UpdateLatest_MergesIntoStore(t *testing.T) {
	m, fetcher, store := newTestManager(t)
	ctx := context.Background()

	m.UpdateLatest(ctx, core.Timeframe1d, 5, "fake-btcusdt")
	assert.Equal(t, 1, fetcher.calls)

	now := time.Now().UTC().Unix()
	got, err := store.Read(ctx, core.Timeframe1d, "fake-btcusdt", now-10*day, now)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestManager_UpdateLatest_SwallowsErrors(t *testing.T) {
	m, fetcher, _ := newTestManager(t)
	ctx := context.Background()

	// none of these may panic or propagate
	m.UpdateLatest(ctx, core.Timeframe1d, 5, "bad")
	m.UpdateLatest(ctx, core.Timeframe1d, 5, "kraken-btcusdt")

	fetcher.latestErr = errors.New("exchange down")
	m.UpdateLatest(ctx, core.Timeframe1d, 5, "fake-btcusdt")
}

func TestManager_ClearCache(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	start := utc(2024, time.March, 1)
	_, err := m.Get(ctx, core.Timeframe1d, start, start+10*day, "fake-btcusdt")
	require.NoError(t, err)

	require.NoError(t, m.ClearCache(ctx, core.Timeframe1d, "fake-btcusdt"))

	got, err := store.Read(ctx, core.Timeframe1d, "fake-btcusdt", start, start+10*day)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestManager_Get_StorageUnavailableStillServes(t *testing.T) {
	reg := source.NewRegistry()
	fetcher := &fakeFetcher{period: day}
	require.NoError(t, reg.Register("fake", fetcher))
	m := New(reg, shard.NewStore(nil, zap.NewNop()), coverage.New(), zap.NewNop(), nil)

	start := utc(2024, time.March, 1)
	got, err := m.Get(context.Background(), core.Timeframe1d, start, start+10*day, "fake-btcusdt")
	require.NoError(t, err)
	assert.Len(t, got, 11, "remote-only session should still return candles")

	// every call re-fetches since nothing persists
	_, err = m.Get(context.Background(), core.Timeframe1d, start, start+10*day, "fake-btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}
