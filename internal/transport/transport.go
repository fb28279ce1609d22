// Package transport issues requests against the HidroWeb API with per-attempt
// timeouts, exponential backoff with jitter, and failure classification.
// Transient conditions (connection failures, timeouts, 5xx, 429) are retried
// up to the configured budget; other 4xx responses fail immediately.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nvxtech/hidroweb-go/internal/observability"
)

const authPath = "OAUth/v1"

// StatusError is a fatal upstream response (a non-retryable status code).
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Error is returned once the retry budget is exhausted. It carries the
// attempt count and wraps the last underlying cause.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// errTransient marks a retryable attempt failure.
var errTransient = errors.New("transient upstream failure")

// transientError wraps one failed attempt that is eligible for retry.
// retryAfter, when positive, carries a server-provided delay (HTTP 429).
type transientError struct {
	retryAfter time.Duration
	err        error
}

func (e *transientError) Error() string   { return e.err.Error() }
func (e *transientError) Unwrap() error   { return e.err }
func (e *transientError) Is(t error) bool { return t == errTransient }

func transient(format string, args ...any) error {
	return &transientError{err: fmt.Errorf(format, args...)}
}

// Config carries the immutable transport settings.
type Config struct {
	BaseURL  string
	User     string
	Password string

	Timeout        time.Duration // per attempt
	MaxRetries     int           // attempts before failing
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int // 0 disables client-side rate limiting

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is safe for concurrent use; only the auth token is mutable and it
// is guarded by a mutex.
type Client struct {
	baseURL        string
	user           string
	password       string
	timeout        time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration

	httpClient *http.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker

	mu    sync.Mutex
	token string
}

// New builds a transport client. Zero-valued settings fall back to the
// documented defaults (30s per-attempt timeout, 3 attempts).
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("transport: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 100 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 2 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitRPS)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hidroweb",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		user:           cfg.User,
		password:       cfg.Password,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxDelay:  cfg.RetryMaxDelay,
		httpClient:     cfg.HTTPClient,
		logger:         cfg.Logger,
		limiter:        limiter,
		breaker:        breaker,
	}, nil
}

// Get performs one logical GET request with the full retry budget and
// returns the raw response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestID := uuid.NewString()
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.Inc()
			delay := c.backoff(attempt, lastErr)
			c.logger.Debug("retrying upstream request",
				zap.String("path", path),
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, &Error{Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &Error{Attempts: attempt + 1, Err: err}
			}
		}

		body, err := c.attempt(ctx, path, params, requestID)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !errors.Is(err, errTransient) {
			return nil, err
		}
	}

	return nil, &Error{Attempts: c.maxRetries, Err: errors.Unwrap(lastErr)}
}

// attempt runs a single attempt through the circuit breaker. Returned errors
// either match errTransient (eligible for retry) or are terminal.
func (c *Client) attempt(ctx context.Context, path string, params url.Values, requestID string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, path, params, requestID, true)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, transient("circuit breaker: %v", err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

// roundTrip executes the HTTP exchange. retryAuth allows one transparent
// re-authentication when a previously issued token has expired.
func (c *Client) roundTrip(ctx context.Context, path string, params url.Values, requestID string, retryAuth bool) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, path, params, requestID)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues("error").Inc()
		observability.UpstreamDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, transient("http request failed: %v", err)
	}
	defer resp.Body.Close()

	status := observability.StatusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(status).Inc()
	observability.UpstreamDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient("read response body: %v", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized && retryAuth && c.user != "":
		c.invalidateToken()
		return c.roundTrip(ctx, path, params, requestID, false)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &transientError{
			retryAfter: retryAfterDelay(resp),
			err:        fmt.Errorf("rate limited: HTTP 429"),
		}
	case resp.StatusCode >= 500:
		return nil, transient("HTTP %d", resp.StatusCode)
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}
}

func (c *Client) buildRequest(ctx context.Context, path string, params url.Values, requestID string) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if c.user != "" {
		token, err := c.authToken(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// backoff grows exponentially with a cap and 10% jitter. A server-provided
// Retry-After delay overrides the computed one.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	var te *transientError
	if errors.As(lastErr, &te) && te.retryAfter > 0 {
		return te.retryAfter
	}
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func retryAfterDelay(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func upstreamMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		return env.Message
	}
	return ""
}
