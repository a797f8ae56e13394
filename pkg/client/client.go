// Package client provides the HTTP transport for the record API with
// retries, response caching, and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/dex-browser/pkg/cache"
	"github.com/Sternrassler/dex-browser/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for API requests.
var (
	dexRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dex_requests_total",
		Help: "Total API requests by operation and status",
	}, []string{"op", "status"})

	dexRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dex_request_duration_seconds",
		Help:    "API request duration in seconds by operation, retries included",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"op"})

	dexErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dex_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Client fetches raw JSON bodies from the record API.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis enables the response cache when set. Nil disables caching.
	Redis *redis.Client

	// User-Agent header sent with every request
	UserAgent string

	// Timeout bounds a single HTTP attempt
	Timeout time.Duration

	// Retry controls attempts and backoff for retriable failures
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration without caching.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logging.NewLogger("client"),
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}
	return c, nil
}

// Get fetches rawURL and returns the response body. op labels metrics and
// errors (e.g. "list", "detail"). Failures are returned as *TransportError,
// possibly wrapped in ErrRetryExhausted.
func (c *Client) Get(ctx context.Context, op, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{Op: op, URL: rawURL, Class: ErrorClassClient, Err: err}
	}

	startTime := time.Now()
	defer func() {
		dexRequestDuration.WithLabelValues(op).Observe(time.Since(startTime).Seconds())
	}()

	key := cache.KeyFromURL(u)
	var cached *cache.CacheEntry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			c.logger.Debug().Str("url", rawURL).Dur("ttl", entry.TTL()).Msg("Cache hit")
			dexRequestsTotal.WithLabelValues(op, "cache").Inc()
			return entry.Data, nil
		case err == nil && entry.CanRevalidate():
			cached = entry
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("url", rawURL).Msg("Cache get error")
		}
	}

	var body []byte
	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		b, err := c.do(ctx, op, u, cached, key)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if retryErr != nil {
		c.logger.Warn().
			Err(retryErr).
			Str("op", op).
			Str("url", rawURL).
			Str("error_class", string(ClassOf(retryErr))).
			Msg("Request failed")
		return nil, retryErr
	}

	return body, nil
}

// do performs a single HTTP attempt.
func (c *Client) do(ctx context.Context, op string, u *url.URL, cached *cache.CacheEntry, key cache.CacheKey) ([]byte, error) {
	rawURL := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: rawURL, Class: ErrorClassClient, Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if cached != nil {
		cache.AddConditionalHeaders(req, cached)
	}

	c.logger.Debug().Str("op", op).Str("url", rawURL).Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		dexErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		dexRequestsTotal.WithLabelValues(op, "network_error").Inc()
		return nil, &TransportError{Op: op, URL: rawURL, Class: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		dexRequestsTotal.WithLabelValues(op, status).Inc()
		cache.NotModifiedResponses.Inc()
		cache.Refresh(cached, resp.Header)
		if err := c.cache.Set(ctx, key, cached); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("url", rawURL).Msg("304 Not Modified - using cache")
		return cached.Data, nil
	}

	if class := classifyStatus(resp.StatusCode); class != "" {
		dexErrorsTotal.WithLabelValues(string(class)).Inc()
		dexRequestsTotal.WithLabelValues(op, status).Inc()
		c.logger.Debug().
			Str("url", rawURL).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Op: op, URL: rawURL, StatusCode: resp.StatusCode, Class: class}
	}

	if resp.StatusCode != http.StatusOK {
		dexErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
		dexRequestsTotal.WithLabelValues(op, status).Inc()
		return nil, &TransportError{
			Op: op, URL: rawURL, StatusCode: resp.StatusCode, Class: ErrorClassClient,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if c.cache == nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			dexErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return nil, &TransportError{Op: op, URL: rawURL, StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Err: err}
		}
		dexRequestsTotal.WithLabelValues(op, status).Inc()
		return body, nil
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		dexErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TransportError{Op: op, URL: rawURL, StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Err: err}
	}
	dexRequestsTotal.WithLabelValues(op, status).Inc()

	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
	} else {
		c.logger.Debug().Str("url", rawURL).Dur("ttl", entry.TTL()).Msg("Cached response")
	}

	return entry.Data, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// CacheEnabled reports whether responses are cached in Redis.
func (c *Client) CacheEnabled() bool {
	return c.cache != nil
}
