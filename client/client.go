// Package client is a typed Go client for the bug tracker HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// APIError is returned for every non-2xx response. Message is the server's
// "error" field, or the status text when the body carried none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// UserMessage is the text suitable for showing in a notification.
func (e *APIError) UserMessage() string {
	return e.Message
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBreaker replaces the default circuit breaker settings. Name,
// IsSuccessful and OnStateChange are filled in when left empty.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = c.newBreaker(settings) }
}

// New builds a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = c.newBreaker(gobreaker.Settings{
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
		})
	}
	return c
}

func (c *Client) newBreaker(settings gobreaker.Settings) *gobreaker.CircuitBreaker {
	if settings.Name == "" {
		settings.Name = "bugtrack-api"
	}
	// Client errors mean the server is healthy; only transport failures and
	// 5xx responses count towards tripping.
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		}
	}
	if settings.OnStateChange == nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			c.log.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		}
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// SetToken sets the bearer token sent with every request. An empty token
// sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers fn to run whenever a request carrying a token is
// answered with 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// do sends a JSON request and decodes a 2xx body into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	token := c.Token()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, decodeAPIError(resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) && token != "" {
			c.unauthorized()
		}
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) unauthorized() {
	c.mu.Lock()
	c.token = ""
	fn := c.onUnauthorized
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func decodeAPIError(status int, data []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &APIError{Status: status, Message: body.Error}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}
