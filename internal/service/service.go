// Package service orchestrates the send pipeline: validate the order
// payload, render the confirmation email and delegate delivery to the
// configured provider. The service is stateless between requests and is
// a pure function from order payload to send outcome; it never persists
// or mutates order state.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/chayannito26/order-notify/internal/config"
	"github.com/chayannito26/order-notify/internal/models"
	emailprovider "github.com/chayannito26/order-notify/internal/providers/email"
	"github.com/chayannito26/order-notify/internal/render"
	"github.com/chayannito26/order-notify/internal/util"
)

// Option customises service behaviour at construction time.
type Option func(*EmailService)

// WithClock overrides the clock used for synthetic order timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *EmailService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithProviderTimeout bounds each provider call. Zero disables the bound
// (the caller's context still applies).
func WithProviderTimeout(d time.Duration) Option {
	return func(s *EmailService) {
		s.providerTimeout = d
	}
}

// EmailService renders order confirmation emails and delegates delivery
// to the configured provider.
type EmailService struct {
	logger          zerolog.Logger
	provider        emailprovider.Provider
	from            emailprovider.Address
	providerTimeout time.Duration
	sends           *semaphore.Weighted
	now             func() time.Time
}

// New constructs an EmailService from the provider configuration.
func New(cfg *config.Config, provider emailprovider.Provider, logger zerolog.Logger, opts ...Option) (*EmailService, error) {
	if cfg == nil {
		return nil, errors.New("service: config is required")
	}
	if provider == nil {
		return nil, errors.New("service: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	maxSends := cfg.Service.MaxConcurrentSends
	if maxSends <= 0 {
		maxSends = 1
	}

	s := &EmailService{
		logger:          logger,
		provider:        provider,
		from:            emailprovider.Address{Email: cfg.Provider.FromEmail, Name: cfg.Provider.FromName},
		providerTimeout: time.Duration(cfg.Service.ProviderTimeoutSeconds) * time.Second,
		sends:           semaphore.NewWeighted(int64(maxSends)),
		now:             time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

// SendOrderEmail validates the order payload, renders the confirmation
// email and sends it. A missing recipient email yields a validation
// failure before any provider call. Provider failures are converted into
// a structured failure result; they never propagate as panics.
func (s *EmailService) SendOrderEmail(ctx context.Context, order *models.Order) (*models.SendResult, error) {
	if order == nil {
		return &models.SendResult{
			Success: false,
			Error:   "No order data provided",
		}, WrapValidation(errors.New("order payload is nil"))
	}

	orderID := order.OrderID
	if orderID == "" {
		orderID = "N/A"
	}

	recipient, err := util.NormalizeEmail(order.CustomerInfo.Email)
	if err != nil {
		s.logger.Warn().
			Str("order_id", orderID).
			Err(err).
			Msg("order rejected: customer email missing or invalid")
		return &models.SendResult{
			Success: false,
			Error:   "Customer email not provided",
			OrderID: orderID,
		}, WrapValidation(err)
	}

	html, err := render.Render(order)
	if err != nil {
		s.logger.Error().
			Str("order_id", orderID).
			Err(err).
			Msg("template rendering failed")
		return &models.SendResult{
			Success: false,
			Error:   fmt.Sprintf("Failed to render email: %v", err),
			OrderID: orderID,
		}, err
	}

	payload := &emailprovider.Payload{
		MessageID: uuid.NewString(),
		From:      s.from,
		To:        emailprovider.Address{Email: recipient, Name: order.CustomerInfo.Name},
		Subject:   "Order Confirmation - " + orderID,
		HTMLBody:  html,
	}

	raw, err := s.deliver(ctx, payload)
	if err != nil {
		result := &models.SendResult{
			Success: false,
			Error:   fmt.Sprintf("Email service error: %v", err),
			OrderID: orderID,
			Email:   recipient,
		}
		if raw != nil && raw.Body != "" {
			result.Details = raw.Body
		}
		s.logger.Error().
			Str("order_id", orderID).
			Str("email", recipient).
			Err(err).
			Msg("failed to send order email")
		return result, WrapProvider(err)
	}

	result := &models.SendResult{
		Success: true,
		Message: "Email sent successfully",
		OrderID: orderID,
		Email:   recipient,
	}
	if raw != nil {
		result.MessageID = raw.ID
	}
	s.logger.Info().
		Str("order_id", orderID).
		Str("email", recipient).
		Str("message_id", result.MessageID).
		Msg("order email sent")
	return result, nil
}

// SendTestEmail routes a synthetic order through the normal send path.
// An empty address falls back to DefaultTestRecipient.
func (s *EmailService) SendTestEmail(ctx context.Context, address string) (*models.SendResult, error) {
	return s.SendOrderEmail(ctx, SampleOrder(s.now(), address))
}

// Preview renders the confirmation email without sending anything. A nil
// or empty payload is replaced by a placeholder order so the template can
// always be inspected.
func (s *EmailService) Preview(order *models.Order) (string, error) {
	if isEmptyOrder(order) {
		order = PreviewOrder(s.now())
	}
	return render.Render(order)
}

func (s *EmailService) deliver(ctx context.Context, payload *emailprovider.Payload) (*emailprovider.RawResponse, error) {
	if err := s.sends.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sends.Release(1)

	if s.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()
	}

	return s.provider.Send(ctx, payload)
}

func isEmptyOrder(order *models.Order) bool {
	if order == nil {
		return true
	}
	return order.OrderID == "" &&
		len(order.Items) == 0 &&
		order.CustomerInfo == (models.CustomerInfo{}) &&
		order.Total == 0
}
