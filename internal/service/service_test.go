package service_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chayannito26/order-notify/internal/config"
	"github.com/chayannito26/order-notify/internal/models"
	emailprovider "github.com/chayannito26/order-notify/internal/providers/email"
	"github.com/chayannito26/order-notify/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{
			Backend:   "mock",
			FromEmail: "registration@chayannito26.com",
			FromName:  "Chayannito 26 Registration",
		},
		Service: config.ServiceConfig{
			ProviderTimeoutSeconds: 5,
			MaxConcurrentSends:     4,
		},
	}
}

func newService(t *testing.T, provider emailprovider.Provider, opts ...service.Option) *service.EmailService {
	t.Helper()
	svc, err := service.New(testConfig(), provider, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func validOrder() *models.Order {
	return &models.Order{
		OrderID:   "ORD-2001",
		OrderDate: "2026-03-14T09:26:53Z",
		Status:    "pending",
		CustomerInfo: models.CustomerInfo{
			Name:  "Karima Akter",
			Email: "karima@example.com",
		},
		Items: []models.OrderItem{
			{Name: "Hoodie", SelectedVariation: "Medium", Quantity: 1, Price: 900},
		},
		Total:      900,
		FinalTotal: 900,
	}
}

func TestSendOrderEmailSuccess(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	result, err := svc.SendOrderEmail(context.Background(), validOrder())
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.MessageID == "" {
		t.Fatal("expected a provider message id")
	}
	if result.OrderID != "ORD-2001" || result.Email != "karima@example.com" {
		t.Fatalf("unexpected result metadata: %+v", result)
	}

	sent := provider.LastPayload()
	if sent == nil {
		t.Fatal("expected provider to receive a payload")
	}
	if sent.Subject != "Order Confirmation - ORD-2001" {
		t.Fatalf("unexpected subject: %q", sent.Subject)
	}
	if sent.From.Email != "registration@chayannito26.com" {
		t.Fatalf("unexpected sender: %+v", sent.From)
	}
	if !strings.Contains(sent.HTMLBody, "Hoodie") {
		t.Fatal("rendered body missing line item")
	}
}

func TestSendOrderEmailMissingRecipient(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	order := validOrder()
	order.CustomerInfo.Email = ""

	result, err := svc.SendOrderEmail(context.Background(), order)
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error != "Customer email not provided" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
	if provider.Calls() != 0 {
		t.Fatalf("provider must not be invoked on validation failure, got %d calls", provider.Calls())
	}
}

func TestSendOrderEmailProviderFailure(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(),
		emailprovider.WithMockDefaultScenario(emailprovider.ScenarioFailure))
	svc := newService(t, provider)

	result, err := svc.SendOrderEmail(context.Background(), validOrder())
	if !errors.Is(err, service.ErrProvider) {
		t.Fatalf("expected provider error classification, got %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error == "" {
		t.Fatal("failure result must carry a non-empty error string")
	}
	if !strings.Contains(result.Details, "invalid api key") {
		t.Fatalf("expected provider details retained, got %q", result.Details)
	}
}

func TestSendOrderEmailNilOrder(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	result, err := svc.SendOrderEmail(context.Background(), nil)
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if result.Success || provider.Calls() != 0 {
		t.Fatalf("nil order must short-circuit, got %+v with %d calls", result, provider.Calls())
	}
}

func TestSendOrderEmailDoesNotMutateOrder(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	order := validOrder()
	snapshot := *order
	snapshot.Items = append([]models.OrderItem(nil), order.Items...)

	if _, err := svc.SendOrderEmail(context.Background(), order); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if order.OrderID != snapshot.OrderID || !reflect.DeepEqual(order.Items, snapshot.Items) ||
		order.FinalTotal != snapshot.FinalTotal || order.CustomerInfo != snapshot.CustomerInfo {
		t.Fatalf("order payload was mutated: %+v", order)
	}
}

func TestSendTestEmailDefaultsRecipient(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	svc := newService(t, provider, service.WithClock(func() time.Time { return fixed }))

	result, err := svc.SendTestEmail(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Email != service.DefaultTestRecipient {
		t.Fatalf("expected default recipient, got %q", result.Email)
	}
	if result.OrderID != "TEST-20260314-092653" {
		t.Fatalf("unexpected synthetic order id: %q", result.OrderID)
	}

	sent := provider.LastPayload()
	if sent == nil || sent.To.Email != service.DefaultTestRecipient {
		t.Fatalf("unexpected payload recipient: %+v", sent)
	}
}

func TestSendTestEmailExplicitRecipient(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	result, err := svc.SendTestEmail(context.Background(), "qa@example.com")
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if result.Email != "qa@example.com" {
		t.Fatalf("expected explicit recipient, got %q", result.Email)
	}
}

func TestPreviewEmptyPayload(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	for _, order := range []*models.Order{nil, {}} {
		html, err := svc.Preview(order)
		if err != nil {
			t.Fatalf("unexpected preview error: %v", err)
		}
		if !strings.Contains(html, "PREVIEW-001") {
			t.Fatal("expected placeholder order id in preview")
		}
		if !strings.Contains(html, "Sample Product") {
			t.Fatal("expected placeholder item in preview")
		}
	}

	if provider.Calls() != 0 {
		t.Fatalf("preview must never invoke the provider, got %d calls", provider.Calls())
	}
}

func TestPreviewCustomPayload(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	svc := newService(t, provider)

	html, err := svc.Preview(validOrder())
	if err != nil {
		t.Fatalf("unexpected preview error: %v", err)
	}
	if !strings.Contains(html, "ORD-2001") || !strings.Contains(html, "Hoodie") {
		t.Fatal("expected custom order fields in preview")
	}
}
