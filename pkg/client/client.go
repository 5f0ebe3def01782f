// Package client implements the resilient request layer for the
// community API: connectivity-aware dispatch, per-endpoint timeouts,
// and cache fallback with a fixed decision order.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/townsquared/community-client/pkg/cache"
	"github.com/townsquared/community-client/pkg/netmon"
	"github.com/townsquared/community-client/pkg/timeout"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsq_requests_total",
		Help: "Total API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "townsq_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	cacheFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsq_cache_fallbacks_total",
		Help: "Total responses served from cache after a failure, by reason",
	}, []string{"reason"})

	offlineServesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "townsq_offline_serves_total",
		Help: "Total responses served from cache while offline",
	})
)

// CredentialInvalidator clears the persisted session credential. The
// client calls it on 401 so an expired token is dropped before the
// error reaches the UI; token persistence itself lives elsewhere.
type CredentialInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RequestOptions carries the per-call request parameters.
type RequestOptions struct {
	// Method is the HTTP method; defaults to GET. Only GET requests
	// participate in caching.
	Method string

	// Query are the request query parameters.
	Query url.Values

	// Headers are extra request headers. Header ordering never affects
	// cache identity.
	Headers http.Header

	// Body is JSON-encoded as the request body when non-nil.
	Body any

	// TimeoutOverride replaces the endpoint-class timeout when > 0.
	TimeoutOverride time.Duration
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API base target, e.g. "https://api.townsquared.com".
	BaseURL string

	// Cache is the response cache. Required.
	Cache *cache.Store

	// Monitor is the connectivity monitor. Required.
	Monitor *netmon.Monitor

	// Timeouts is the endpoint timeout policy; defaults to
	// timeout.DefaultPolicy().
	Timeouts *timeout.Policy

	// TTLs is the endpoint cache-lifetime policy; defaults to
	// cache.DefaultTTLPolicy().
	TTLs *cache.TTLPolicy

	// Credentials is invalidated on 401 responses. Optional.
	Credentials CredentialInvalidator

	// HTTPClient is the transport; defaults to a plain http.Client.
	// No client-level timeout is set: deadlines come from the timeout
	// policy per request.
	HTTPClient *http.Client

	// UserAgent identifies the app build, e.g. "townsquared-ios/2.4.1".
	UserAgent string

	// Logger for client events.
	Logger zerolog.Logger
}

// Client is the resilient API client. One instance serves all
// concurrent logical requests; each request gets its own deadline even
// when issued concurrently against the same endpoint.
type Client struct {
	httpClient  *http.Client
	cache       *cache.Store
	monitor     *netmon.Monitor
	timeouts    *timeout.Policy
	ttls        *cache.TTLPolicy
	credentials CredentialInvalidator
	userAgent   string
	logger      zerolog.Logger

	mu      sync.RWMutex
	baseURL string
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.Monitor == nil {
		return nil, fmt.Errorf("network monitor is required")
	}

	if cfg.Timeouts == nil {
		cfg.Timeouts = timeout.DefaultPolicy()
	}
	if cfg.TTLs == nil {
		cfg.TTLs = cache.DefaultTTLPolicy()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		httpClient:  cfg.HTTPClient,
		cache:       cfg.Cache,
		monitor:     cfg.Monitor,
		timeouts:    cfg.Timeouts,
		ttls:        cfg.TTLs,
		credentials: cfg.Credentials,
		userAgent:   cfg.UserAgent,
		logger:      cfg.Logger.With().Str("component", "client").Logger(),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// SetBaseURL switches the API base target between calls. Cache keys
// incorporate the base, so entries fetched under another target are
// never served after a switch.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

// BaseURL returns the active API base target.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Perform executes one logical request against an endpoint and returns
// the JSON response payload.
//
// Decision order:
//  1. unusable connectivity: serve cache (GET only) or fail
//     NetworkUnusable
//  2. issue the request under the endpoint-class deadline
//  3. 401: invalidate the credential and fail Unauthorized, never
//     masked by cache
//  4. timeout, other non-2xx, transport or decode failure: serve cache
//     (GET only) before surfacing the typed error
//  5. success: cache the payload (GET only) under the endpoint-family
//     TTL and return it
//
// Caller-driven cancellation is not a request failure and surfaces as
// the context's own error rather than an APIError. Nothing is retried
// here; retries are the calling layer's decision.
func (c *Client) Perform(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	cacheable := method == http.MethodGet

	base := c.BaseURL()
	key := cache.Key{Base: base, Endpoint: endpoint, Query: opts.Query}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	// Step 1: connectivity gate.
	if c.monitor.IsUnusable() {
		if cacheable {
			if data, err := c.cache.Get(ctx, key); err == nil {
				offlineServesTotal.Inc()
				requestsTotal.WithLabelValues(endpoint, "offline_cache").Inc()
				c.logger.Info().
					Str("endpoint", endpoint).
					Msg("Served from cache while offline")
				return data, nil
			}
		}
		requestsTotal.WithLabelValues(endpoint, "network_unusable").Inc()
		return nil, &APIError{
			Kind:    KindNetworkUnusable,
			Message: "no usable connectivity and no cached response",
		}
	}

	// Step 2: issue the request under the endpoint-class deadline.
	d := opts.TimeoutOverride
	if d <= 0 {
		d = c.timeouts.For(endpoint)
	}
	reqCtx, cancel := timeout.WithDeadline(ctx, d)
	defer cancel()

	req, err := c.newRequest(reqCtx, method, base, endpoint, opts)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "bad_request").Inc()
		return nil, &APIError{Kind: KindServerError, Message: "build request", Err: err}
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Dur("timeout", d).
		Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.settleTransportFailure(ctx, reqCtx, endpoint, key, cacheable, err)
	}
	defer resp.Body.Close()

	// Step 3: expired credential. Bypasses cache fallback entirely.
	if resp.StatusCode == http.StatusUnauthorized {
		requestsTotal.WithLabelValues(endpoint, "401").Inc()
		c.invalidateCredential(ctx, endpoint)
		return nil, &APIError{
			Kind:       KindUnauthorized,
			StatusCode: resp.StatusCode,
			Message:    "credential rejected",
		}
	}

	// Step 4: other non-success statuses are cache-fallback-eligible.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("API request error")
		return c.settle(ctx, endpoint, key, cacheable, "request failure", &APIError{
			Kind:       KindServerError,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "read_error").Inc()
		return c.settle(ctx, endpoint, key, cacheable, "request failure", &APIError{
			Kind:       KindServerError,
			StatusCode: resp.StatusCode,
			Message:    "read response body",
			Err:        err,
		})
	}

	if len(body) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		requestsTotal.WithLabelValues(endpoint, "decode_error").Inc()
		return c.settle(ctx, endpoint, key, cacheable, "decode failure", &APIError{
			Kind:       KindDecodeError,
			StatusCode: resp.StatusCode,
			Message:    "malformed JSON payload",
		})
	}

	// Step 5: success. Cache write is best-effort and keyed by the
	// same key computed up front.
	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	if cacheable {
		c.cache.Set(ctx, key, body, c.ttls.For(endpoint))
	}
	return body, nil
}

// settleTransportFailure classifies a transport-level failure and
// applies cache fallback. A deadline elapsing is reported as Timeout;
// caller-driven cancellation passes through untyped.
func (c *Client) settleTransportFailure(ctx, reqCtx context.Context, endpoint string, key cache.Key, cacheable bool, cause error) (json.RawMessage, error) {
	if timeout.IsTimeout(reqCtx) {
		requestsTotal.WithLabelValues(endpoint, "timeout").Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("API request timed out")
		return c.settle(ctx, endpoint, key, cacheable, "timeout", &APIError{
			Kind:    KindTimeout,
			Message: "request deadline exceeded",
			Err:     cause,
		})
	}

	if reqCtx.Err() != nil {
		// The caller cancelled; this is their own action, not a
		// request failure, and is not served from cache.
		requestsTotal.WithLabelValues(endpoint, "cancelled").Inc()
		c.logger.Debug().Str("endpoint", endpoint).Msg("Request cancelled by caller")
		return nil, context.Cause(reqCtx)
	}

	requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
	c.logger.Error().Err(cause).Str("endpoint", endpoint).Msg("API request failed")
	return c.settle(ctx, endpoint, key, cacheable, "request failure", &APIError{
		Kind:    KindServerError,
		Message: "transport failure",
		Err:     cause,
	})
}

// settle applies the cache-fallback policy for a failed request and
// surfaces the typed error on a miss. It must not fail itself: the
// cache read degrades to a miss internally, so the original error is
// never replaced by a secondary one.
func (c *Client) settle(ctx context.Context, endpoint string, key cache.Key, cacheable bool, reason string, apiErr *APIError) (json.RawMessage, error) {
	if cacheable && fallbackEligible(apiErr.Kind) {
		if data, err := c.cache.Get(ctx, key); err == nil {
			cacheFallbacksTotal.WithLabelValues(string(apiErr.Kind)).Inc()
			c.logger.Info().
				Str("endpoint", endpoint).
				Str("reason", reason).
				Msg("Served from cache after " + reason)
			return data, nil
		}
	}
	return nil, apiErr
}

// invalidateCredential drops the stored credential, best-effort.
func (c *Client) invalidateCredential(ctx context.Context, endpoint string) {
	if c.credentials == nil {
		return
	}
	if err := c.credentials.Invalidate(ctx); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Credential invalidation failed")
		return
	}
	c.logger.Info().Str("endpoint", endpoint).Msg("Stored credential invalidated after 401")
}

// newRequest builds the outgoing HTTP request.
func (c *Client) newRequest(ctx context.Context, method, base, endpoint string, opts RequestOptions) (*http.Request, error) {
	target := base + "/" + strings.TrimPrefix(endpoint, "/")
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for name, values := range opts.Headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	return c.Perform(ctx, endpoint, RequestOptions{Method: http.MethodGet, Query: query})
}

// Post performs a POST request. Mutations never touch the cache.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.Perform(ctx, endpoint, RequestOptions{Method: http.MethodPost, Body: body})
}

// Put performs a PUT request. Mutations never touch the cache.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.Perform(ctx, endpoint, RequestOptions{Method: http.MethodPut, Body: body})
}

// Delete performs a DELETE request. Mutations never touch the cache.
func (c *Client) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.Perform(ctx, endpoint, RequestOptions{Method: http.MethodDelete})
}

// Cache returns the cache store (for diagnostics and tests).
func (c *Client) Cache() *cache.Store {
	return c.cache
}
