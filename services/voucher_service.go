package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"event-checkout/models"
)

// VoucherResult is what the UI renders next to an applied voucher. An
// invalid voucher stays visible with its message; invalidity is a display
// state, not an error that rolls anything back.
type VoucherResult struct {
	Valid    bool            `json:"valid"`
	Message  string          `json:"message,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}

// VoucherService computes discount eligibility and amount from the current
// ticket lines and a voucher definition. All checks and math are pure; the
// backend remains authoritative at submission time.
type VoucherService struct{}

func NewVoucherService() *VoucherService {
	return &VoucherService{}
}

// Evaluate runs the ordered validation checks (first failure wins) and,
// when the voucher is valid, computes the discount amount. The discount
// never exceeds the in-scope ticket subtotal.
func (s *VoucherService) Evaluate(voucher *models.Voucher, tickets []models.TicketLine) VoucherResult {
	if voucher == nil {
		return VoucherResult{Message: "no voucher applied", Discount: decimal.Zero}
	}

	var inScope []models.TicketLine
	for _, t := range tickets {
		if voucher.Covers(t.TicketCategoryID) {
			inScope = append(inScope, t)
		}
	}

	if len(inScope) == 0 {
		return VoucherResult{Message: "no tickets in this voucher's scope", Discount: decimal.Zero}
	}
	if voucher.MinTicketsRequired > 0 && len(inScope) < voucher.MinTicketsRequired {
		return VoucherResult{
			Message:  fmt.Sprintf("requires at least %d eligible tickets", voucher.MinTicketsRequired),
			Discount: decimal.Zero,
		}
	}
	if voucher.MaxTicketsAllowed > 0 && len(inScope) > voucher.MaxTicketsAllowed {
		return VoucherResult{
			Message:  fmt.Sprintf("allows at most %d eligible tickets", voucher.MaxTicketsAllowed),
			Discount: decimal.Zero,
		}
	}

	return VoucherResult{Valid: true, Discount: s.discount(voucher, inScope)}
}

func (s *VoucherService) discount(voucher *models.Voucher, inScope []models.TicketLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, t := range inScope {
		subtotal = subtotal.Add(t.Price)
	}

	var discount decimal.Decimal
	switch voucher.ApplicationType {
	case models.ApplyPerTicket:
		// First N tickets in line order receive the discount when the cap
		// is below the eligible count, keeping the choice deterministic.
		n := len(inScope)
		if voucher.MaxTicketsToDiscount > 0 && voucher.MaxTicketsToDiscount < n {
			n = voucher.MaxTicketsToDiscount
		}
		discount = decimal.Zero
		for _, t := range inScope[:n] {
			discount = discount.Add(perTicketDiscount(voucher, t.Price))
		}

	default: // total_order
		if voucher.DiscountType == models.DiscountPercentage {
			discount = subtotal.Mul(voucher.DiscountValue).Div(decimal.NewFromInt(100))
		} else {
			discount = voucher.DiscountValue
		}
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

func perTicketDiscount(voucher *models.Voucher, price decimal.Decimal) decimal.Decimal {
	if voucher.DiscountType == models.DiscountPercentage {
		return price.Mul(voucher.DiscountValue).Div(decimal.NewFromInt(100))
	}
	if voucher.DiscountValue.GreaterThan(price) {
		return price
	}
	return voucher.DiscountValue
}

// FinalTotal is the amount the buyer pays: subtotal plus extra fee minus
// the voucher discount, floored at zero.
func FinalTotal(subtotal, extraFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(extraFee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
