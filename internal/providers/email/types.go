package email

import (
	"context"
	"time"
)

// Address pairs an email address with an optional display name.
type Address struct {
	Email string
	Name  string
}

// Payload is the canonical representation of an outbound order email
// passed to the provider. The service normalizes its inputs to this
// structure before delegating delivery.
type Payload struct {
	MessageID string
	From      Address
	To        Address
	Subject   string
	HTMLBody  string
	Headers   map[string]string
}

// RawResponse mirrors the low level provider response the service
// inspects to derive the result it reports to callers.
type RawResponse struct {
	ID        string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider is the contract exposed by the email provider implementations.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
