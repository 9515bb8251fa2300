package models

// Order is the payload the dashboard posts when a customer places an
// order. The service treats it as an immutable input; it is owned by the
// external order store and never persisted here. JSON field names mirror
// the dashboard's wire format (camelCase).
type Order struct {
	OrderID      string         `json:"orderId"`
	OrderDate    string         `json:"orderDate,omitempty"`
	Status       string         `json:"status,omitempty"`
	CustomerInfo CustomerInfo   `json:"customerInfo"`
	Items        []OrderItem    `json:"items"`
	Total        float64        `json:"total"`
	Discount     float64        `json:"discount"`
	FinalTotal   float64        `json:"finalTotal"`
	Coupon       *AppliedCoupon `json:"appliedCoupon,omitempty"`
}

// CustomerInfo identifies the recipient of the confirmation email.
type CustomerInfo struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone,omitempty"`
	Roll               string `json:"roll,omitempty"`
	Department         string `json:"department,omitempty"`
	BkashTransactionID string `json:"bkashTransactionId,omitempty"`
}

// OrderItem is a single ordered line item.
type OrderItem struct {
	Name              string  `json:"name"`
	SelectedVariation string  `json:"selectedVariation,omitempty"`
	Quantity          int     `json:"quantity"`
	Price             float64 `json:"price"`
}

// AppliedCoupon describes a discount coupon attached to the order, if any.
type AppliedCoupon struct {
	Code          string  `json:"code"`
	DiscountValue float64 `json:"discountValue"`
}
