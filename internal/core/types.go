package core

import "sort"

// Candle is one OHLC price record at a fixed time and period.
// Time is seconds since epoch, UTC. Candles are unique by Time within
// any collection and conceptually unordered until sorted.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// IsValid checks if the candle has required fields
func (c Candle) IsValid() bool {
	return c.Time > 0 && c.High >= c.Low
}

// SortCandles orders candles ascending by time, in place.
func SortCandles(candles []Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time < candles[j].Time
	})
}

// DedupCandles returns candles unique by time, sorted ascending.
// On time collision the last occurrence wins.
func DedupCandles(candles []Candle) []Candle {
	byTime := make(map[int64]Candle, len(candles))
	for _, c := range candles {
		byTime[c.Time] = c
	}
	out := make([]Candle, 0, len(byTime))
	for _, c := range byTime {
		out = append(out, c)
	}
	SortCandles(out)
	return out
}

// FilterRange returns the candles whose time lies in [start, end], inclusive.
func FilterRange(candles []Candle, start, end int64) []Candle {
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if c.Time >= start && c.Time <= end {
			out = append(out, c)
		}
	}
	return out
}

// TimeBounds returns the min and max time across candles.
// ok is false when candles is empty.
func TimeBounds(candles []Candle) (min, max int64, ok bool) {
	if len(candles) == 0 {
		return 0, 0, false
	}
	min, max = candles[0].Time, candles[0].Time
	for _, c := range candles[1:] {
		if c.Time < min {
			min = c.Time
		}
		if c.Time > max {
			max = c.Time
		}
	}
	return min, max, true
}
