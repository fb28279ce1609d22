// Package hidroweb retrieves hydrological and pluviometric time series and
// station metadata from the Brazilian National Water Agency (ANA) HidroWeb
// API, normalizing its loosely-structured payloads into a canonical,
// strongly-typed model.
package hidroweb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/nvxtech/hidroweb-go/internal/decode"
	"github.com/nvxtech/hidroweb-go/internal/transport"
	"github.com/nvxtech/hidroweb-go/internal/validation"
)

// Client is the stateless facade over the acquisition pipeline. It holds
// only immutable configuration and is safe for concurrent use.
type Client struct {
	cfg       Config
	transport *transport.Client
	logger    *zap.Logger
}

// NewClient builds a client from the given configuration. Zero-valued
// settings fall back to the package defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = DefaultChunkDays
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	t, err := transport.New(transport.Config{
		BaseURL:        cfg.BaseURL,
		User:           cfg.User,
		Password:       cfg.Password,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
		RateLimitRPS:   cfg.RateLimitRPS,
		HTTPClient:     cfg.HTTPClient,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("hidroweb: %w", err)
	}

	return &Client{cfg: cfg, transport: t, logger: cfg.Logger}, nil
}

// GetTimeSeries retrieves the series for one (station, type) pair over an
// inclusive calendar-date range. The result is finalized: ascending, free of
// duplicates, and gap-annotated at the series' sampling interval. It either
// fully succeeds or fails as a whole.
func (c *Client) GetTimeSeries(ctx context.Context, code string, start, end time.Time, kind SeriesType) (*TimeSeries, error) {
	trimmed, err := validation.StationCode(code)
	if err != nil {
		return nil, &ValidationError{Field: "code", Value: code, Reason: err.Error()}
	}
	code = trimmed
	if !kind.Valid() {
		return nil, &ValidationError{Field: "series_type", Value: string(kind), Reason: "unknown series type"}
	}
	if err := validation.DateRange(start, end); err != nil {
		return nil, &ValidationError{Field: "date_range", Reason: err.Error()}
	}

	interval := c.cfg.GapInterval
	if interval <= 0 {
		interval = kind.NominalInterval()
	}

	c.logger.Debug("assembling time series",
		zap.String("station", code),
		zap.String("series_type", string(kind)),
		zap.Time("start", start),
		zap.Time("end", end))

	return assembleSeries(ctx, code, kind, start, end, c.cfg.ChunkDays, interval, c.seriesPage(code, kind))
}

// seriesPage builds the page fetcher for one logical series request. Each
// page gets its own timeout and retry budget from the transport.
func (c *Client) seriesPage(code string, kind SeriesType) pageFetcher {
	return func(ctx context.Context, start, end time.Time) ([]Observation, error) {
		params := url.Values{}
		params.Set(paramStationCode, code)
		params.Set(paramDataType, seriesTypeParams[kind])
		params.Set(paramStartDate, start.Format("2006-01-02"))
		params.Set(paramEndDate, end.Format("2006-01-02"))

		body, err := c.transport.Get(ctx, seriesPath, params)
		if err != nil {
			var se *transport.StatusError
			if errors.As(err, &se) && se.StatusCode == 404 {
				return nil, &NotFoundError{Code: code}
			}
			return nil, c.wrapTransportErr(err)
		}

		result, err := decode.Items(body)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}

		observations := make([]Observation, 0, len(result.Records))
		for _, rec := range result.Records {
			obs, err := normalizeObservation(rec, kind)
			if err != nil {
				return nil, err
			}
			observations = append(observations, obs)
		}
		return observations, nil
	}
}

// wrapTransportErr maps transport failures onto the public taxonomy.
func (c *Client) wrapTransportErr(err error) error {
	var connErr *transport.Error
	if errors.As(err, &connErr) {
		return &ConnectionError{Attempts: connErr.Attempts, Err: connErr.Err}
	}
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return &APIError{StatusCode: statusErr.StatusCode, Message: statusErr.Message}
	}
	var authErr *transport.AuthError
	if errors.As(err, &authErr) {
		return &APIError{StatusCode: authErr.StatusCode, Message: authErr.Message}
	}
	return err
}

// wrapDecodeErr surfaces an unrecognized payload shape as a validation
// failure carrying the offending excerpt.
func wrapDecodeErr(err error) error {
	var shapeErr *decode.ShapeError
	if errors.As(err, &shapeErr) {
		return &ValidationError{Field: "payload", Value: shapeErr.Excerpt, Reason: "unrecognized payload shape"}
	}
	return err
}
