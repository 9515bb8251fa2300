package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chayannito26/order-notify/internal/models"
	"github.com/chayannito26/order-notify/internal/service"
)

type testEmailRequest struct {
	TestEmail string `json:"test_email"`
}

func (s *Server) sendOrderEmail(c echo.Context) error {
	order := new(models.Order)
	if err := c.Bind(order); err != nil {
		return c.JSON(http.StatusBadRequest, models.SendResult{
			Success: false,
			Error:   "Request must be JSON",
		})
	}

	result, err := s.svc.SendOrderEmail(c.Request().Context(), order)
	return s.writeSendResult(c, result, err)
}

func (s *Server) testEmail(c echo.Context) error {
	req := new(testEmailRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.SendResult{
			Success: false,
			Error:   "Request must be JSON",
		})
	}

	result, err := s.svc.SendTestEmail(c.Request().Context(), req.TestEmail)
	return s.writeSendResult(c, result, err)
}

func (s *Server) previewEmail(c echo.Context) error {
	order := new(models.Order)
	// A missing or non-JSON body previews the placeholder order.
	if err := c.Bind(order); err != nil {
		order = nil
	}

	html, err := s.svc.Preview(order)
	if err != nil {
		return c.HTML(http.StatusInternalServerError, "<h1>Error</h1><p>"+err.Error()+"</p>")
	}
	return c.HTML(http.StatusOK, html)
}

// writeSendResult maps the service error taxonomy onto HTTP statuses.
// Validation and provider failures both surface as 400 with a structured
// body; only unexpected errors become 500.
func (s *Server) writeSendResult(c echo.Context, result *models.SendResult, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, result)
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrProvider):
		return c.JSON(http.StatusBadRequest, result)
	default:
		if result == nil {
			result = &models.SendResult{Success: false, Error: "Internal server error"}
		}
		return c.JSON(http.StatusInternalServerError, result)
	}
}

func (s *Server) notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Endpoint not found",
		"available_endpoints": []string{
			"GET /",
			"POST /send-order-email",
			"POST /test-email",
			"POST /preview-email",
		},
	})
}
