package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chayannito26/order-notify/internal/config"
	"github.com/chayannito26/order-notify/internal/models"
	emailprovider "github.com/chayannito26/order-notify/internal/providers/email"
	"github.com/chayannito26/order-notify/internal/server"
	"github.com/chayannito26/order-notify/internal/service"
)

func newTestServer(t *testing.T, provider emailprovider.Provider) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
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

	svc, err := service.New(cfg, provider, zerolog.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(svc, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func orderJSON() string {
	return `{
		"orderId": "ORD-3001",
		"orderDate": "2026-03-14T09:26:53Z",
		"status": "pending",
		"customerInfo": {"name": "Karima Akter", "email": "karima@example.com"},
		"items": [
			{"name": "Hoodie", "selectedVariation": "Medium", "quantity": 1, "price": 900},
			{"name": "Sticker Pack", "quantity": 2, "price": 50}
		],
		"total": 1000,
		"discount": 100,
		"finalTotal": 900
	}`
}

func decodeResult(t *testing.T, resp *http.Response) models.SendResult {
	t.Helper()
	defer resp.Body.Close()
	var result models.SendResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, emailprovider.NewMockProvider(zerolog.Nop()))

	for _, path := range []string{"/", "/status"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)

		var status models.HealthStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "healthy", status.Status)
		require.Equal(t, server.ServiceName, status.Service)
		require.Equal(t, server.Version, status.Version)
		require.NotEmpty(t, status.Timestamp)
	}
}

func TestSendOrderEmailEndpoint(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	srv := newTestServer(t, provider)

	resp, err := http.Post(srv.URL+"/send-order-email", "application/json", strings.NewReader(orderJSON()))
	require.NoError(t, err)

	result := decodeResult(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, result.Success)
	require.Equal(t, "ORD-3001", result.OrderID)
	require.Equal(t, "karima@example.com", result.Email)
	require.NotEmpty(t, result.MessageID)
	require.Equal(t, 1, provider.Calls())
}

func TestSendOrderEmailMissingRecipient(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	srv := newTestServer(t, provider)

	body := `{"orderId": "ORD-3002", "customerInfo": {"name": "No Email"}, "items": []}`
	resp, err := http.Post(srv.URL+"/send-order-email", "application/json", strings.NewReader(body))
	require.NoError(t, err)

	result := decodeResult(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, result.Success)
	require.Equal(t, "Customer email not provided", result.Error)
	require.Zero(t, provider.Calls(), "provider must not be called on validation failure")
}

func TestSendOrderEmailRejectsNonJSON(t *testing.T) {
	srv := newTestServer(t, emailprovider.NewMockProvider(zerolog.Nop()))

	resp, err := http.Post(srv.URL+"/send-order-email", "text/plain", strings.NewReader("not json"))
	require.NoError(t, err)

	result := decodeResult(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, result.Success)
	require.Equal(t, "Request must be JSON", result.Error)
}

func TestSendOrderEmailProviderFailure(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(),
		emailprovider.WithMockDefaultScenario(emailprovider.ScenarioFailure))
	srv := newTestServer(t, provider)

	resp, err := http.Post(srv.URL+"/send-order-email", "application/json", strings.NewReader(orderJSON()))
	require.NoError(t, err)

	result := decodeResult(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
}

func TestTestEmailEndpoint(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	srv := newTestServer(t, provider)

	resp, err := http.Post(srv.URL+"/test-email", "application/json", strings.NewReader(`{"test_email": "qa@example.com"}`))
	require.NoError(t, err)

	result := decodeResult(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, result.Success)
	require.Equal(t, "qa@example.com", result.Email)
	require.True(t, strings.HasPrefix(result.OrderID, "TEST-"), "synthetic order id expected, got %q", result.OrderID)
}

func TestTestEmailDefaultsWithoutBody(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	srv := newTestServer(t, provider)

	resp, err := http.Post(srv.URL+"/test-email", "application/json", nil)
	require.NoError(t, err)

	result := decodeResult(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, result.Success)
	require.Equal(t, service.DefaultTestRecipient, result.Email)
}

func TestPreviewEmailEndpoint(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop())
	srv := newTestServer(t, provider)

	resp, err := http.Post(srv.URL+"/preview-email", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	require.Contains(t, string(body), "PREVIEW-001")
	require.Contains(t, string(body), "Sample Product")
	require.Zero(t, provider.Calls(), "preview must not send anything")
}

func TestPreviewEmailWithPayload(t *testing.T) {
	srv := newTestServer(t, emailprovider.NewMockProvider(zerolog.Nop()))

	resp, err := http.Post(srv.URL+"/preview-email", "application/json", strings.NewReader(orderJSON()))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "ORD-3001")
	require.Contains(t, string(body), "Hoodie")
	require.Contains(t, string(body), "Sticker Pack")
	require.Contains(t, string(body), "Final Total: &#2547;900.00")
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, emailprovider.NewMockProvider(zerolog.Nop()))

	resp, err := http.Get(srv.URL + "/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, false, payload["success"])
	require.Contains(t, payload, "available_endpoints")
}
