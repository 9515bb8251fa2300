package service

import (
	"time"

	"github.com/chayannito26/order-notify/internal/models"
)

// DefaultTestRecipient is used by the test-email operation when no
// destination address is supplied.
const DefaultTestRecipient = "test@example.com"

// SampleOrder builds the synthetic order used by the test-email
// operation. It intentionally covers the optional template fragments:
// one item with a variation, one without, and a coupon discount.
func SampleOrder(now time.Time, recipient string) *models.Order {
	if recipient == "" {
		recipient = DefaultTestRecipient
	}
	return &models.Order{
		OrderID:   "TEST-" + now.Format("20060102-150405"),
		OrderDate: now.Format(time.RFC3339),
		Status:    "pending",
		CustomerInfo: models.CustomerInfo{
			Name:               "Test Customer",
			Email:              recipient,
			Phone:              "+1234567890",
			Roll:               "CS-2021-001",
			Department:         "Computer Science",
			BkashTransactionID: "TXN123456789",
		},
		Items: []models.OrderItem{
			{Name: "Test Product 1", SelectedVariation: "Large", Quantity: 2, Price: 500},
			{Name: "Test Product 2", Quantity: 1, Price: 300},
		},
		Total:      1300,
		Discount:   100,
		FinalTotal: 1200,
		Coupon:     &models.AppliedCoupon{Code: "TESTCODE", DiscountValue: 100},
	}
}

// PreviewOrder builds the placeholder order used when a preview request
// arrives without a payload.
func PreviewOrder(now time.Time) *models.Order {
	return &models.Order{
		OrderID:   "PREVIEW-001",
		OrderDate: now.Format(time.RFC3339),
		Status:    "pending",
		CustomerInfo: models.CustomerInfo{
			Name:               "Preview Customer",
			Email:              "preview@example.com",
			Phone:              "+1234567890",
			Roll:               "CS-2021-001",
			Department:         "Computer Science",
			BkashTransactionID: "TXN123456789",
		},
		Items: []models.OrderItem{
			{Name: "Sample Product", SelectedVariation: "Medium", Quantity: 1, Price: 500},
		},
		Total:      500,
		Discount:   0,
		FinalTotal: 500,
	}
}
