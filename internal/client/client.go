// Package client is the dashboard-side wrapper around the notification
// service. It tracks service availability through health checks and
// mediates every call to the service, degrading to skipped sends when the
// service is known to be unreachable. Email notification is a best-effort
// side channel: nothing here ever blocks order management.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chayannito26/order-notify/internal/models"
)

// ErrUnavailable marks a send that was skipped because the service was
// unavailable at the time of the call.
var ErrUnavailable = errors.New("notification service unavailable")

const (
	defaultHealthTimeout = 5 * time.Second
	defaultSendTimeout   = 30 * time.Second
	// DefaultCheckInterval is how often the periodic health loop
	// re-checks the service to recover from transient outages.
	DefaultCheckInterval = 5 * time.Minute
)

// StatusListener is invoked after every health check completes,
// regardless of outcome, so a UI can keep its status badge current.
type StatusListener func(available bool)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises client behaviour.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for all requests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHealthTimeout bounds health check requests.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.healthTimeout = d
		}
	}
}

// WithSendTimeout bounds send requests.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithStatusListener registers a callback for availability updates.
func WithStatusListener(fn StatusListener) Option {
	return func(c *Client) {
		c.listener = fn
	}
}

// Client mediates all dashboard calls to the notification service. One
// instance is constructed per page context and passed explicitly to
// whatever needs it; there is no ambient global.
type Client struct {
	baseURL       string
	logger        zerolog.Logger
	httpClient    HTTPClient
	healthTimeout time.Duration
	sendTimeout   time.Duration
	listener      StatusListener

	mu        sync.RWMutex
	available bool
}

// New constructs a notification client for the given service base URL.
// The client starts in the unavailable state until the first successful
// health check; StartHealthLoop runs one immediately, so callers only
// need CheckHealth directly when they want a synchronous answer.
func New(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	c := &Client{
		baseURL:       baseURL,
		logger:        logger,
		httpClient:    &http.Client{},
		healthTimeout: defaultHealthTimeout,
		sendTimeout:   defaultSendTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Available reports the availability classification from the last
// completed health check.
func (c *Client) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// CheckHealth issues a bounded health request and updates the
// availability state. The status listener is notified regardless of the
// outcome. Checks are idempotent and safe to run concurrently.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	available := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("health check request build failed")
		return c.setAvailable(false)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn().Err(err).Msg("health check timed out")
		} else {
			c.logger.Warn().Err(err).Msg("health check failed")
		}
		return c.setAvailable(false)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var status models.HealthStatus
		if err := json.NewDecoder(io.LimitReader(resp.Body, 16*1024)).Decode(&status); err == nil {
			available = status.Status == "healthy"
		}
	}

	return c.setAvailable(available)
}

// SendOrderEmail posts the order to the notification service. When the
// service is marked unavailable the call is skipped without any network
// traffic; this is deliberate degradation, not an error.
func (c *Client) SendOrderEmail(ctx context.Context, order *models.Order) (*models.SendResult, error) {
	if !c.Available() {
		orderID := ""
		if order != nil {
			orderID = order.OrderID
		}
		c.logger.Debug().Str("order_id", orderID).Msg("send skipped: service unavailable")
		return &models.SendResult{
			Success: false,
			Skipped: true,
			Error:   ErrUnavailable.Error(),
			OrderID: orderID,
		}, nil
	}

	return c.post(ctx, "/send-order-email", order)
}

// SendTestEmail asks the service to send a test email to the given
// address. The same availability gate as SendOrderEmail applies.
func (c *Client) SendTestEmail(ctx context.Context, address string) (*models.SendResult, error) {
	if !c.Available() {
		c.logger.Debug().Msg("test send skipped: service unavailable")
		return &models.SendResult{
			Success: false,
			Skipped: true,
			Error:   ErrUnavailable.Error(),
		}, nil
	}

	return c.post(ctx, "/test-email", map[string]string{"test_email": address})
}

// StartHealthLoop issues an immediate health check and then re-checks on
// a fixed interval until the context is cancelled. The initial check
// means a freshly constructed client becomes available as soon as the
// loop starts rather than after the first tick.
func (c *Client) StartHealthLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.CheckHealth(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CheckHealth(ctx)
			}
		}
	}()
}

func (c *Client) post(ctx context.Context, path string, body any) (*models.SendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn().Str("path", path).Err(err).Msg("send request timed out")
		} else {
			c.logger.Warn().Str("path", path).Err(err).Msg("send request failed")
		}
		return &models.SendResult{
			Success: false,
			Error:   err.Error(),
		}, fmt.Errorf("client: %s: %w", path, err)
	}
	defer resp.Body.Close()

	var result models.SendResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&result); err != nil {
		return &models.SendResult{
			Success: false,
			Error:   fmt.Sprintf("unexpected response from service (status %d)", resp.StatusCode),
		}, fmt.Errorf("client: decode response: %w", err)
	}

	return &result, nil
}

func (c *Client) setAvailable(available bool) bool {
	c.mu.Lock()
	c.available = available
	c.mu.Unlock()

	if c.listener != nil {
		c.listener(available)
	}
	return available
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
