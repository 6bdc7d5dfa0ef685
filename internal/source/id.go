package source

import (
	"strings"

	"github.com/tealfin/candlecache/internal/core"
)

// idDelimiter separates source and symbol in a composite data-source id,
// e.g. "binance-btcusdt".
const idDelimiter = "-"

// ParseID splits a composite id into source name and symbol. The first
// segment is the source; the remaining segments, rejoined, form the
// symbol (upper-cased). Ids with fewer than two segments are malformed.
func ParseID(id string) (src, symbol string, err error) {
	parts := strings.Split(id, idDelimiter)
	if len(parts) < 2 {
		return "", "", core.ErrInvalidIDFormat
	}
	src = strings.ToLower(parts[0])
	symbol = strings.ToUpper(strings.Join(parts[1:], idDelimiter))
	if src == "" || symbol == "" {
		return "", "", core.ErrInvalidIDFormat
	}
	return src, symbol, nil
}

// BuildID joins a source name and symbol into a composite id. It
// round-trips through ParseID for parts that contain no delimiter.
func BuildID(src, symbol string) string {
	return strings.ToLower(src) + idDelimiter + strings.ToLower(symbol)
}
