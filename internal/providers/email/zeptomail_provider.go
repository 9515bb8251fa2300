package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chayannito26/order-notify/internal/config"
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ZeptoMailOption customises the behaviour of the ZeptoMail provider.
type ZeptoMailOption func(*ZeptoMailProvider)

// WithZeptoMailHTTPClient overrides the HTTP client used to talk to ZeptoMail.
func WithZeptoMailHTTPClient(client HTTPClient) ZeptoMailOption {
	return func(p *ZeptoMailProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithZeptoMailBaseURL sets the base API URL. Useful for tests.
func WithZeptoMailBaseURL(baseURL string) ZeptoMailOption {
	return func(p *ZeptoMailProvider) {
		if strings.TrimSpace(baseURL) != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithZeptoMailClock overrides the clock used for timestamps.
func WithZeptoMailClock(now func() time.Time) ZeptoMailOption {
	return func(p *ZeptoMailProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithZeptoMailBodyLimit adjusts how many bytes are retained from the HTTP
// response body.
func WithZeptoMailBodyLimit(limit int64) ZeptoMailOption {
	return func(p *ZeptoMailProvider) {
		if limit > 0 {
			p.maxBodyBytes = limit
		}
	}
}

// ZeptoMailProvider implements the Provider interface using the ZeptoMail
// transactional email HTTP API.
type ZeptoMailProvider struct {
	logger       zerolog.Logger
	apiKey       string
	baseURL      string
	httpClient   HTTPClient
	now          func() time.Time
	maxBodyBytes int64
}

// NewZeptoMailProvider constructs a ZeptoMail-backed email provider. An
// empty API key is accepted at construction time; sends fail gracefully
// at call time instead, so the service can start without credentials.
func NewZeptoMailProvider(cfg config.ZeptoMailConfig, logger zerolog.Logger, opts ...ZeptoMailOption) *ZeptoMailProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &ZeptoMailProvider{
		logger:       logger,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      "https://api.zeptomail.com/v1.1",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		maxBodyBytes: 16 * 1024,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		p.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

type zeptoAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type zeptoRecipient struct {
	EmailAddress zeptoAddress `json:"email_address"`
}

type zeptoRequest struct {
	From     zeptoAddress     `json:"from"`
	To       []zeptoRecipient `json:"to"`
	Subject  string           `json:"subject"`
	HTMLBody string           `json:"htmlbody"`
}

type zeptoResponse struct {
	Data []struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// Send delivers the payload via the ZeptoMail API. The API responds with
// 201 when the message is accepted for delivery.
func (p *ZeptoMailProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("zeptomail provider: payload is required")
	}
	if strings.TrimSpace(payload.To.Email) == "" {
		return nil, errors.New("zeptomail provider: recipient address is required")
	}
	if p.apiKey == "" {
		return nil, errors.New("zeptomail provider: api key is not configured")
	}

	body, err := json.Marshal(zeptoRequest{
		From: zeptoAddress{Address: payload.From.Email, Name: payload.From.Name},
		To: []zeptoRecipient{
			{EmailAddress: zeptoAddress{Address: payload.To.Email, Name: payload.To.Name}},
		},
		Subject:  payload.Subject,
		HTMLBody: payload.HTMLBody,
	})
	if err != nil {
		return nil, fmt.Errorf("zeptomail provider: marshal request: %w", err)
	}

	endpoint := p.baseURL + "/email"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("zeptomail provider: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-enczapikey "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zeptomail provider: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	if readErr != nil {
		return nil, fmt.Errorf("zeptomail provider: read response: %w", readErr)
	}

	raw := &RawResponse{
		Code:      resp.StatusCode,
		Body:      string(respBody),
		Timestamp: p.now(),
	}

	var parsed zeptoResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil {
		if len(parsed.Data) > 0 && parsed.Data[0].MessageID != "" {
			raw.ID = parsed.Data[0].MessageID
		} else if parsed.RequestID != "" {
			raw.ID = parsed.RequestID
		}
	}

	if resp.StatusCode != http.StatusCreated {
		p.logger.Warn().
			Int("status", resp.StatusCode).
			Str("message_id", payload.MessageID).
			Msg("zeptomail rejected the message")
		return raw, fmt.Errorf("zeptomail provider: api returned status %d", resp.StatusCode)
	}

	p.logger.Debug().
		Str("provider_id", raw.ID).
		Str("message_id", payload.MessageID).
		Msg("zeptomail accepted the message")

	return raw, nil
}
