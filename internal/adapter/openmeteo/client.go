package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	gobreaker "github.com/sony/gobreaker/v2"
)

// API selects one of the two Open-Meteo historical endpoints.
type API string

const (
	Archive API = "archive"
	Marine  API = "marine"
)

// Default endpoints.
const (
	DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
	DefaultMarineURL  = "https://marine-api.open-meteo.com/v1/marine"
)

// maxErrorBody bounds how much of an error response is kept in the error.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	ArchiveURL string
	MarineURL  string
	Timeout    time.Duration
	MaxRetries int
	// RetryInterval is the first backoff delay. Later delays grow
	// exponentially up to MaxRetryInterval.
	RetryInterval    time.Duration
	MaxRetryInterval time.Duration
}

// Client fetches daily series from the Open-Meteo archive and marine APIs.
// Each API has its own circuit breaker; transient failures are retried with
// exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURLs   map[API]string
	breakers   map[API]*gobreaker.CircuitBreaker[[]byte]
	retry      retryPolicy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Open-Meteo client. Zero-valued options take defaults.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if opts.ArchiveURL == "" {
		opts.ArchiveURL = DefaultArchiveURL
	}
	if opts.MarineURL == "" {
		opts.MarineURL = DefaultMarineURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryInterval <= 0 {
		opts.MaxRetryInterval = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURLs: map[API]string{
			Archive: opts.ArchiveURL,
			Marine:  opts.MarineURL,
		},
		breakers: map[API]*gobreaker.CircuitBreaker[[]byte]{
			Archive: newBreaker("open-meteo-archive", logger),
			Marine:  newBreaker("open-meteo-marine", logger),
		},
		retry: retryPolicy{
			maxRetries:  opts.MaxRetries,
			initial:     opts.RetryInterval,
			maxInterval: opts.MaxRetryInterval,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Request describes one daily-series query.
type Request struct {
	API       API
	Coords    domain.Coordinates
	Period    domain.Period
	Variables []string
}

// Fetch performs the request and returns the raw response body. The body is
// validated as JSON but otherwise returned untouched so it can be cached.
func (c *Client) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	base, ok := c.baseURLs[req.API]
	if !ok {
		return nil, fmt.Errorf("unknown open-meteo API %q", req.API)
	}
	fullURL := base + "?" + query(req).Encode()

	start := time.Now()
	body, err := c.withRetry(ctx, req.API, func() ([]byte, error) {
		return c.breakers[req.API].Execute(func() ([]byte, error) {
			return c.doRequest(ctx, fullURL, req.API)
		})
	})
	c.metrics.ProviderDuration.WithLabelValues(string(req.API)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(string(req.API), "error").Inc()
		return nil, err
	}

	if !json.Valid(body) {
		c.metrics.ProviderRequests.WithLabelValues(string(req.API), "error").Inc()
		return nil, fmt.Errorf("decode %s response: invalid JSON", req.API)
	}
	c.metrics.ProviderRequests.WithLabelValues(string(req.API), "success").Inc()
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, api API) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", api, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", api, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{API: api, StatusCode: resp.StatusCode, Body: errorReason(body)}
	}
	return body, nil
}

func query(req Request) url.Values {
	q := url.Values{
		"latitude":   {strconv.FormatFloat(req.Coords.Lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(req.Coords.Lon, 'f', -1, 64)},
		"start_date": {req.Period.Start.Format(domain.DateLayout)},
		"end_date":   {req.Period.End.Format(domain.DateLayout)},
		"daily":      {strings.Join(req.Variables, ",")},
		"timezone":   {"UTC"},
	}
	if req.API == Archive {
		q.Set("wind_speed_unit", "ms")
		q.Set("temperature_unit", "celsius")
		q.Set("precipitation_unit", "mm")
	}
	return q
}

// StatusError is a non-200 response.
type StatusError struct {
	API        API
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("open-meteo API error: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// errorReason extracts the "reason" field Open-Meteo puts in error bodies,
// falling back to the truncated body.
func errorReason(body []byte) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Reason != "" {
		return payload.Reason
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
