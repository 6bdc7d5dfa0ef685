// Package coverage decides whether locally known candles adequately
// cover a requested time range and, if not, which sub-ranges to fetch.
package coverage

import (
	"sort"

	"github.com/tealfin/candlecache/internal/core"
)

// Gap is a time sub-range, inclusive on both ends, known to be missing
// or unreliable in local data.
type Gap struct {
	Start int64
	End   int64
}

// Result is the outcome of a coverage check.
type Result struct {
	Sufficient bool
	Gaps       []Gap
}

// Analyzer computes coverage gaps for a requested range. The zero
// value is not usable; call New for the legacy-compatible defaults.
type Analyzer struct {
	// MinCoverageRatio is the fraction of expected candles below which
	// partial gaps are abandoned in favor of one full-range refetch.
	MinCoverageRatio float64

	// GapFactor scales the period; consecutive known times further
	// apart than GapFactor*period count as an internal gap.
	GapFactor float64
}

// New returns an analyzer with the legacy thresholds (0.8 ratio,
// 2x period gap detection).
func New() *Analyzer {
	return &Analyzer{
		MinCoverageRatio: 0.8,
		GapFactor:        2,
	}
}

// Check analyzes known candles (any order) against the inclusive range
// [start, end] for the given timeframe.
//
// Sparse coverage (below MinCoverageRatio) short-circuits to a single
// full-range gap: one large request beats many small ones when most of
// the data is missing anyway. Dense coverage gets precise per-hole gaps.
func (a *Analyzer) Check(known []core.Candle, start, end int64, tf core.Timeframe) Result {
	if len(known) == 0 {
		return Result{Gaps: []Gap{{Start: start, End: end}}}
	}

	period := tf.PeriodSeconds()
	minKnown, maxKnown, _ := core.TimeBounds(known)

	var gaps []Gap
	if start < minKnown {
		gaps = append(gaps, Gap{Start: start, End: min(minKnown-1, end)})
	}
	if end > maxKnown {
		gaps = append(gaps, Gap{Start: max(maxKnown+1, start), End: end})
	}

	inRange := make([]int64, 0, len(known))
	for _, c := range known {
		if c.Time >= start && c.Time <= end {
			inRange = append(inRange, c.Time)
		}
	}

	expected := ceilDiv(end-start, period)
	if expected > 0 {
		ratio := float64(len(inRange)) / float64(expected)
		if ratio < a.MinCoverageRatio {
			return Result{Gaps: []Gap{{Start: start, End: end}}}
		}
	}

	sort.Slice(inRange, func(i, j int) bool { return inRange[i] < inRange[j] })
	for i := 1; i < len(inRange); i++ {
		prev, next := inRange[i-1], inRange[i]
		if float64(next-prev) > a.GapFactor*float64(period) {
			gapStart := prev + period
			gapEnd := next - period
			if gapStart <= gapEnd {
				gaps = append(gaps, Gap{Start: gapStart, End: gapEnd})
			}
		}
	}

	return Result{Sufficient: len(gaps) == 0, Gaps: gaps}
}

func ceilDiv(n, d int64) int64 {
	if d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
