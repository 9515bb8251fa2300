// Package render turns an order payload into the confirmation email HTML.
// Rendering is a pure function of the order data: no network, no clock,
// no shared state, so it is independently testable.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chayannito26/order-notify/internal/models"
	"github.com/chayannito26/order-notify/internal/util"
)

//go:embed email_template.html
var emailTemplate string

var tmpl = template.Must(template.New("order_email").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(emailTemplate))

const missingValue = "N/A"

// View is the normalized model the template executes against. Every field
// is guaranteed non-empty (or explicitly optional) so the template never
// has to guard against missing data.
type View struct {
	OrderID       string
	FormattedDate string
	StatusLabel   string

	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	CustomerRoll       string
	CustomerDepartment string
	BkashTransactionID string

	Items      []ItemView
	Total      float64
	Discount   float64
	FinalTotal float64

	CouponCode     string
	CouponDiscount float64
}

// ItemView is a single line item with its computed line total.
type ItemView struct {
	Name      string
	Variation string
	Quantity  int
	Price     float64
	Total     float64
}

// HasDiscount reports whether the discount fragment should be rendered.
func (v View) HasDiscount() bool { return v.Discount > 0 }

// HasCoupon reports whether a coupon annotation should be rendered.
func (v View) HasCoupon() bool { return v.CouponCode != "" }

// Normalize fills defaults for every optional field of the order and
// derives the computed values the template needs. The input order is not
// mutated. Normalize is idempotent: normalizing an already normalized
// order yields the same view.
func Normalize(order *models.Order) View {
	if order == nil {
		order = &models.Order{}
	}

	v := View{
		OrderID:            orDefault(order.OrderID, missingValue),
		FormattedDate:      formatOrderDate(order.OrderDate),
		StatusLabel:        statusLabel(order.Status),
		CustomerName:       orDefault(order.CustomerInfo.Name, missingValue),
		CustomerEmail:      strings.TrimSpace(order.CustomerInfo.Email),
		CustomerPhone:      orDefault(order.CustomerInfo.Phone, missingValue),
		CustomerRoll:       orDefault(order.CustomerInfo.Roll, missingValue),
		CustomerDepartment: orDefault(order.CustomerInfo.Department, missingValue),
		BkashTransactionID: orDefault(order.CustomerInfo.BkashTransactionID, missingValue),
		Total:              clampMoney(order.Total),
		Discount:           clampMoney(order.Discount),
		FinalTotal:         clampMoney(order.FinalTotal),
	}

	for _, item := range order.Items {
		qty := item.Quantity
		if qty < 0 {
			qty = 0
		}
		price := clampMoney(item.Price)
		v.Items = append(v.Items, ItemView{
			Name:      orDefault(item.Name, missingValue),
			Variation: strings.TrimSpace(item.SelectedVariation),
			Quantity:  qty,
			Price:     price,
			Total:     float64(qty) * price,
		})
	}

	if v.FinalTotal == 0 && v.Total > 0 {
		final := v.Total - v.Discount
		if final < 0 {
			final = 0
		}
		v.FinalTotal = final
	}

	if order.Coupon != nil && strings.TrimSpace(order.Coupon.Code) != "" {
		v.CouponCode = strings.TrimSpace(order.Coupon.Code)
		v.CouponDiscount = clampMoney(order.Coupon.DiscountValue)
	}

	return v
}

// Render normalizes the order and executes the email template. With a
// normalized view the template has no failure modes, but template
// execution errors are still surfaced rather than swallowed.
func Render(order *models.Order) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, Normalize(order)); err != nil {
		return "", fmt.Errorf("render order email: %w", err)
	}
	return buf.String(), nil
}

func orDefault(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

func clampMoney(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func formatOrderDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return missingValue
	}
	ts, err := util.ParseOrderDate(raw)
	if err != nil {
		// Unparsable dates are shown verbatim, matching the dashboard's
		// lenient handling of legacy orders.
		return strings.TrimSpace(raw)
	}
	return ts.Format("January 02, 2006 at 3:04 PM")
}

func statusLabel(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return "Pending"
	}
	first, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(first)) + strings.ToLower(trimmed[size:])
}
