package api

import (
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

	"github.com/google/uuid"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	baseRetryDelay    = 500 * time.Millisecond
	maxErrorBody      = 512
)

// Client talks to the admin REST API. It implements domain.Repository.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetries sets how many times a 5xx response is retried.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// NewClient creates a new API client
func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:     logger,
		maxRetries: defaultMaxRetries,
		retryDelay: baseRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an authenticated request and returns the response body.
// 5xx responses are retried with exponential backoff. Failures come back as
// *paging.Error so callers can tell transport, server, and auth problems apart.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("X-Request-ID", requestID)

		c.logger.Debug("api request", "method", method, "url", reqURL, "attempt", attempt, "requestID", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("api request failed", "error", err, "requestID", requestID)
			return nil, &paging.Error{
				Kind: paging.KindTransport,
				Err:  fmt.Errorf("%w: %v", domain.ErrServerOffline, err),
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &paging.Error{Kind: paging.KindTransport, Err: fmt.Errorf("failed to read response: %w", err)}
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &paging.Error{Kind: paging.KindAuth, Status: resp.StatusCode, Err: domain.ErrAuthFailed}

		case resp.StatusCode == http.StatusNotFound:
			return nil, &paging.Error{Kind: paging.KindServer, Status: resp.StatusCode, Err: domain.ErrNotFound}

		case resp.StatusCode >= 500:
			lastErr = &paging.Error{Kind: paging.KindServer, Status: resp.StatusCode, Msg: serverMessage(resp.StatusCode, body)}
			c.logger.Warn("api server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", c.maxRetries,
				"path", path,
				"requestID", requestID,
			)
			continue

		case resp.StatusCode < 200 || resp.StatusCode > 299:
			c.logger.Error("api request error", "status", resp.StatusCode, "body", truncate(body), "requestID", requestID)
			return nil, &paging.Error{Kind: paging.KindServer, Status: resp.StatusCode, Msg: serverMessage(resp.StatusCode, body)}
		}

		return body, nil
	}

	c.logger.Error("api request failed after retries", "error", lastErr, "url", reqURL, "requestID", requestID)
	return nil, lastErr
}

// Ping checks that the server is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/api/me", nil)
	return err
}

// errorBody is the JSON error envelope the API returns with non-2xx responses.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// serverMessage extracts a readable message from an error response.
func serverMessage(status int, body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	if text := strings.TrimSpace(http.StatusText(status)); text != "" {
		return fmt.Sprintf("server error: %d %s", status, strings.ToLower(text))
	}
	return fmt.Sprintf("server error: %d", status)
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "…"
	}
	return string(body)
}

// decodeError wraps a JSON failure as a decode error.
func decodeError(path string, err error) error {
	var syntaxErr *json.SyntaxError
	msg := "malformed response"
	if errors.As(err, &syntaxErr) {
		msg = fmt.Sprintf("malformed response at byte %d", syntaxErr.Offset)
	}
	return &paging.Error{Kind: paging.KindDecode, Msg: msg, Err: fmt.Errorf("failed to parse %s: %w", path, err)}
}
