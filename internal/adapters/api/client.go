package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
)

const (
	defaultBaseURL  = "https://api.spacetraders.io/v2"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 20
)

// TokenProvider hands out the current bearer token on demand
type TokenProvider interface {
	Token(ctx context.Context) (string, bool)
}

// ClientConfig holds the transport settings of the gateway
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// RequestOptions describes one call. Method defaults to GET and every
// request needs a token unless SkipAuth is set.
type RequestOptions struct {
	Method   string
	Body     any
	Headers  map[string]string
	SkipAuth bool
}

// CacheConfig marks a GET as cacheable under a category.
// A zero TTL uses the category default.
type CacheConfig struct {
	Category cache.Category
	TTL      time.Duration
}

// ClientStats reports gateway counters together with the limiter and cache
type ClientStats struct {
	Requests    int64         `json:"requests"`
	Errors      int64         `json:"errors"`
	RateLimiter LimiterStatus `json:"rateLimiter"`
	Cache       cache.Stats   `json:"cache"`
}

// SpaceTradersClient is the single gateway to the SpaceTraders API.
// Every network attempt goes through the shared rate limiter.
type SpaceTradersClient struct {
	httpClient   *http.Client
	baseURL      string
	pageSize     int
	limiter      *RateLimiter
	retrier      *Retrier
	cache        *cache.Service
	tokens       TokenProvider
	breaker      *CircuitBreaker
	recorder     MetricsRecorder
	logger       *zap.Logger
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewSpaceTradersClient composes limiter, retrier, cache and token provider.
// cacheSvc may be nil to disable caching.
func NewSpaceTradersClient(
	cfg ClientConfig,
	limiter *RateLimiter,
	retrier *Retrier,
	cacheSvc *cache.Service,
	tokens TokenProvider,
	recorder MetricsRecorder,
	logger *zap.Logger,
) *SpaceTradersClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if limiter == nil {
		limiter = NewRateLimiter(defaultRequestsPerSecond, nil, recorder, logger)
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), nil, recorder, logger)
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SpaceTradersClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   cfg.PageSize,
		limiter:    limiter,
		retrier:    retrier,
		cache:      cacheSvc,
		tokens:     tokens,
		recorder:   recorder,
		logger:     logger,
	}
}

// SetCircuitBreaker enables the breaker around each dispatched request
func (c *SpaceTradersClient) SetCircuitBreaker(cb *CircuitBreaker) {
	c.breaker = cb
}

// SetHTTPClient replaces the underlying HTTP client
func (c *SpaceTradersClient) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// PageSize is the listing page size used by the paging helpers
func (c *SpaceTradersClient) PageSize() int {
	return c.pageSize
}

// Request performs one logical API call and decodes the response into out.
//
// A cacheable GET that hits the cache returns without touching the limiter,
// the retrier or the network. Otherwise the call takes one limiter slot and
// its retries run inside that slot.
func (c *SpaceTradersClient) Request(ctx context.Context, endpoint string, opts RequestOptions, cacheCfg *CacheConfig, out any) error {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	cacheable := method == http.MethodGet && cacheCfg != nil && c.cache != nil
	var key string
	if cacheable {
		key = cache.GenerateKey(cacheCfg.Category, endpoint, opts.Body)
		if data, ok := c.cache.Get(key); ok {
			if raw, ok := data.([]byte); ok {
				c.recorder.RecordCacheBypass(true)
				return decode(raw, out)
			}
		}
		c.recorder.RecordCacheBypass(false)
	}

	token, hasToken := c.token(ctx)
	if !opts.SkipAuth && !hasToken {
		return ErrAuthRequired
	}

	c.requestCount.Add(1)

	var body []byte
	err := c.limiter.Enqueue(ctx, func(ctx context.Context) error {
		return c.guard(func() error {
			return c.retrier.Do(ctx, func(ctx context.Context) error {
				b, err := c.execute(ctx, method, endpoint, token, opts)
				if err != nil {
					return err
				}
				body = b
				return nil
			})
		})
	})
	if err != nil {
		c.errorCount.Add(1)
		c.logger.Debug("api-request-failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return err
	}

	if cacheable {
		if cacheCfg.TTL != 0 {
			c.cache.SetWithTTL(key, body, cacheCfg.Category, cacheCfg.TTL)
		} else {
			c.cache.Set(key, body, cacheCfg.Category)
		}
	}

	return decode(body, out)
}

func (c *SpaceTradersClient) token(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Token(ctx)
}

func (c *SpaceTradersClient) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Call(fn)
}

// execute makes a single HTTP attempt
func (c *SpaceTradersClient) execute(ctx context.Context, method, endpoint, token string, opts RequestOptions) ([]byte, error) {
	var reqBody io.Reader
	switch {
	case opts.Body != nil:
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	case method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut:
		reqBody = strings.NewReader("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordAPIRequest(method, endpointLabel(endpoint), 0, time.Since(start))
		return nil, newTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.recorder.RecordAPIRequest(method, endpointLabel(endpoint), resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, newTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, body)
	}
	return body, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// endpointLabel strips query strings and game symbols so metric labels stay bounded
func endpointLabel(endpoint string) string {
	path := endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment != strings.ToLower(segment) || strings.ContainsAny(segment, "0123456789") {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// Stats returns gateway, limiter and cache counters
func (c *SpaceTradersClient) Stats() ClientStats {
	stats := ClientStats{
		Requests:    c.requestCount.Load(),
		Errors:      c.errorCount.Load(),
		RateLimiter: c.limiter.Status(),
	}
	if c.cache != nil {
		stats.Cache = c.cache.Stats()
	}
	return stats
}

// Meta is the pagination block of listing responses
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is one page of a listing endpoint
type Page[T any] struct {
	Items []T
	Meta  Meta
}

type envelope[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

func getData[T any](ctx context.Context, c *SpaceTradersClient, endpoint string, opts RequestOptions, cacheCfg *CacheConfig) (T, error) {
	var resp envelope[T]
	err := c.Request(ctx, endpoint, opts, cacheCfg, &resp)
	return resp.Data, err
}

func getPage[T any](ctx context.Context, c *SpaceTradersClient, endpoint string, opts RequestOptions, cacheCfg *CacheConfig) (*Page[T], error) {
	var resp envelope[[]T]
	if err := c.Request(ctx, endpoint, opts, cacheCfg, &resp); err != nil {
		return nil, err
	}
	page := &Page[T]{Items: resp.Data}
	if resp.Meta != nil {
		page.Meta = *resp.Meta
	}
	return page, nil
}

func postData[T any](ctx context.Context, c *SpaceTradersClient, endpoint string, body any) (T, error) {
	var resp envelope[T]
	err := c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPost, Body: body}, nil, &resp)
	return resp.Data, err
}

func pageQuery(page, limit int) string {
	return fmt.Sprintf("page=%d&limit=%d", page, limit)
}

// cache invalidation helpers

func (c *SpaceTradersClient) invalidateShip(shipSymbol string) {
	if c.cache == nil {
		return
	}
	prefix := fmt.Sprintf("%s:/my/ships/%s", cache.CategoryShips, shipSymbol)
	c.cache.Invalidate(prefix + ":")
	c.cache.Invalidate(prefix + "/")
	c.cache.Invalidate(fmt.Sprintf("%s:/my/ships?", cache.CategoryShips))
}

func (c *SpaceTradersClient) invalidateCategories(categories ...cache.Category) {
	if c.cache == nil {
		return
	}
	for _, category := range categories {
		c.cache.InvalidateCategory(category)
	}
}
