package core

import (
	"fmt"
	"sort"
	"strings"
)

// Timeframe is an enumerated candle granularity.
type Timeframe string

const (
	Timeframe1h Timeframe = "1h"
	Timeframe4h Timeframe = "4h"
	Timeframe1d Timeframe = "1d"
	Timeframe1w Timeframe = "1w"
)

type timeframeSpec struct {
	periodSec       int64
	sourceInterval  string
	defaultLookback int // candles fetched when no explicit range is given
}

var timeframes = map[Timeframe]timeframeSpec{
	Timeframe1h: {periodSec: 3600, sourceInterval: "1h", defaultLookback: 500},
	Timeframe4h: {periodSec: 4 * 3600, sourceInterval: "4h", defaultLookback: 500},
	Timeframe1d: {periodSec: 24 * 3600, sourceInterval: "1d", defaultLookback: 365},
	Timeframe1w: {periodSec: 7 * 24 * 3600, sourceInterval: "1w", defaultLookback: 260},
}

// ParseTimeframe normalizes and validates a timeframe key.
func ParseTimeframe(input string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(input)))
	if _, ok := timeframes[tf]; !ok {
		return "", fmt.Errorf("unsupported timeframe: %s", input)
	}
	return tf, nil
}

// SupportedTimeframes returns all timeframe keys, sorted.
func SupportedTimeframes() []string {
	keys := make([]string, 0, len(timeframes))
	for k := range timeframes {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// PeriodSeconds returns the period length of one candle in seconds.
func (tf Timeframe) PeriodSeconds() int64 {
	return timeframes[tf].periodSec
}

// SourceInterval returns the remote API's interval token for this timeframe.
func (tf Timeframe) SourceInterval() string {
	return timeframes[tf].sourceInterval
}

// DefaultLookback returns how many candles a lookup covers when the
// caller supplies no explicit range.
func (tf Timeframe) DefaultLookback() int {
	return timeframes[tf].defaultLookback
}

func (tf Timeframe) String() string {
	return string(tf)
}
