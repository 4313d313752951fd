// Package supabase implements the store interfaces against a Supabase
// project through its PostgREST endpoint. The tables follow the same schema
// as the SQL migrations.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/sethvargo/go-retry"
)

const (
	restPath         = "/rest/v1"
	defaultTimeout   = 15 * time.Second
	defaultRetryBase = 200 * time.Millisecond

	preferMinimal        = "return=minimal"
	preferRepresentation = "return=representation"
	preferUpsert         = "resolution=merge-duplicates,return=minimal"
)

// PostgREST error codes surfaced in the response body.
const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
	notNullCode         = "23502"
)

// APIError is the error body returned by PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest %d: %s", e.Status, e.Message)
}

// Client is a minimal PostgREST client with retries on transient failures.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries uint64
	retryBase  time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryBase sets the first backoff delay. Tests use a tiny value.
func WithRetryBase(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.retryBase = d
		}
	}
}

// NewClient creates a client for the project at projectURL
// (e.g. https://abc.supabase.co) authenticating with apiKey.
func NewClient(projectURL, apiKey string, maxRetries int, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	if projectURL == "" {
		return nil, errors.New("supabase url cannot be empty")
	}
	if apiKey == "" {
		return nil, errors.New("supabase key cannot be empty")
	}
	if _, err := url.Parse(projectURL); err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(projectURL, "/") + restPath,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: uint64(maxRetries),
		retryBase:  defaultRetryBase,
		logger:     logger.With(slog.String("component", "supabase_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one PostgREST call.
type request struct {
	method string
	table  string
	query  url.Values
	body   any
	prefer string
}

// idempotent reports whether repeating req after a lost response is safe.
// A plain insert is not: the retry would hit the row it just created.
func (r request) idempotent() bool {
	return r.method != http.MethodPost || strings.Contains(r.prefer, "resolution=merge-duplicates")
}

// do executes req, retrying network errors and 5xx responses of idempotent
// requests, and decodes
// a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	endpoint := c.baseURL + "/" + req.table
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	retries := c.maxRetries
	if !req.idempotent() {
		retries = 0
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(c.retryBase))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		httpReq.Header.Set("apikey", c.apiKey)
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if req.prefer != "" {
			httpReq.Header.Set("Prefer", req.prefer)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("supabase request failed",
				slog.String("method", req.method),
				slog.String("table", req.table),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err))
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: reading response: %v", store.ErrStoreUnavailable, err))
		}

		if resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode}
			if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(body))
			}
			mapped := mapStatus(apiErr)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				log.Warn("supabase returned a transient error",
					slog.String("method", req.method),
					slog.String("table", req.table),
					slog.Int("status", resp.StatusCode),
					slog.Int("attempt", attempt))
				return retry.RetryableError(mapped)
			}
			return mapped
		}

		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: decoding response: %v", store.ErrStoreUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Debug("supabase call failed",
			slog.String("method", req.method),
			slog.String("table", req.table),
			slog.String("error", err.Error()))
	}
	return err
}

// mapStatus translates a PostgREST error into the store taxonomy.
func mapStatus(apiErr *APIError) error {
	switch {
	case apiErr.Code == uniqueViolationCode || apiErr.Status == http.StatusConflict:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, apiErr)
	case apiErr.Code == checkViolationCode || apiErr.Code == notNullCode:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, apiErr)
	case apiErr.Status == http.StatusNotFound:
		return fmt.Errorf("%w: %v", store.ErrNotFound, apiErr)
	case apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, apiErr)
	default:
		return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, apiErr)
	}
}

func eq(v string) string {
	return "eq." + v
}
