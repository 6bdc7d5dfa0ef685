package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tealfin/candlecache/internal/core"
)

const (
	baseURL = "https://api.binance.com"

	// defaultPageLimit is the maximum items one klines request may return.
	defaultPageLimit = 1000
	// defaultMaxPages bounds total work for a single Fetch call so a huge
	// or miscomputed range can never loop forever.
	defaultMaxPages = 10
	// defaultRateLimit is requests per second against the klines endpoint.
	defaultRateLimit = 5
)

// RemoteError is a non-success response from the Binance API.
type RemoteError struct {
	Status     int
	StatusText string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote api error: %d %s", e.Status, e.StatusText)
}

// Client implements source.Fetcher against the Binance spot klines API.
type Client struct {
	client    *http.Client
	baseURL   string
	limiter   *rate.Limiter
	logger    *zap.Logger
	pageLimit int
	maxPages  int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPageLimit caps the number of items requested per page.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= defaultPageLimit {
			c.pageLimit = n
		}
	}
}

// WithMaxPages caps the number of requests one Fetch call may issue.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithRateLimit sets the client-side request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates a new Binance client
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   baseURL,
		limiter:   rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:    zap.NewNop(),
		pageLimit: defaultPageLimit,
		maxPages:  defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithBaseURL creates a Binance client with custom base URL (for testing)
func NewWithBaseURL(url string, opts ...Option) *Client {
	c := New(opts...)
	c.baseURL = url
	return c
}

func (c *Client) Name() string { return "binance" }

// Fetch retrieves candles covering [start, end) in epoch seconds,
// paginating until the range is covered, history runs out, or the page
// cap is hit. A transport or non-2xx failure aborts the whole fetch;
// pages already fetched are discarded.
func (c *Client) Fetch(ctx context.Context, tf core.Timeframe, symbol string, start, end int64) ([]core.Candle, error) {
	period := tf.PeriodSeconds()
	interval := tf.SourceInterval()

	var out []core.Candle
	cursor := start
	for page := 0; page < c.maxPages && cursor < end; page++ {
		pageEnd := cursor + int64(c.pageLimit)*period
		if pageEnd > end {
			pageEnd = end
		}

		candles, err := c.klines(ctx, symbol, interval, cursor, pageEnd, c.pageLimit)
		if err != nil {
			return nil, err
		}
		if len(candles) == 0 {
			break
		}
		out = append(out, candles...)

		last := candles[len(candles)-1].Time
		if len(candles) < c.pageLimit {
			// short page: end of available history
			break
		}
		if last >= end {
			break
		}
		cursor = last + period
	}

	c.logger.Debug("fetched candle range",
		zap.String("symbol", symbol),
		zap.String("timeframe", tf.String()),
		zap.Int64("start", start),
		zap.Int64("end", end),
		zap.Int("count", len(out)))

	return out, nil
}

// FetchLatest retrieves the most recent limit candles in a single
// request, for lightweight refresh calls.
func (c *Client) FetchLatest(ctx context.Context, symbol string, tf core.Timeframe, limit int) ([]core.Candle, error) {
	if limit <= 0 || limit > c.pageLimit {
		limit = c.pageLimit
	}
	return c.klines(ctx, symbol, tf.SourceInterval(), 0, 0, limit)
}

// klines issues one GET /api/v3/klines request. start and end are epoch
// seconds; zero values omit the corresponding query parameter.
func (c *Client) klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]core.Candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	u.Path = "/api/v3/klines"
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	if start > 0 {
		q.Set("startTime", strconv.FormatInt(start*1000, 10))
	}
	if end > 0 {
		// endTime is inclusive of open time at the remote; subtract one
		// millisecond to keep the page window half-open.
		q.Set("endTime", strconv.FormatInt(end*1000-1, 10))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrRemoteAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.WrapError(core.ErrRemoteAPI, &RemoteError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		})
	}

	var klines [][]any
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, core.WrapError(core.ErrRemoteAPI, fmt.Errorf("decoding response: %w", err))
	}

	candles := make([]core.Candle, 0, len(klines))
	for _, k := range klines {
		// [openTimeMs, open, high, low, close, volume, closeTimeMs, ...]
		if len(k) < 5 {
			continue
		}
		candles = append(candles, core.Candle{
			Time:  toInt64(k[0]) / 1000,
			Open:  toFloat(k[1]),
			High:  toFloat(k[2]),
			Low:   toFloat(k[3]),
			Close: toFloat(k[4]),
		})
	}
	return candles, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case float64:
		return t
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case string:
		i, _ := strconv.ParseInt(t, 10, 64)
		return i
	case float64:
		return int64(t)
	default:
		return 0
	}
}
