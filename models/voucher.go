package models

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type ApplicationType string

const (
	ApplyTotalOrder ApplicationType = "total_order"
	ApplyPerTicket  ApplicationType = "per_ticket"
)

// Voucher is a backend-owned discount definition. An applied voucher is
// held beside the order draft, never inside it, so an invalid voucher can
// stay displayed without corrupting the draft.
type Voucher struct {
	Code                 string          `json:"code"`
	DiscountType         DiscountType    `json:"discount_type"`
	DiscountValue        decimal.Decimal `json:"discount_value"`
	ApplicationType      ApplicationType `json:"application_type"`
	ApplyToAll           bool            `json:"apply_to_all"`
	TicketCategories     []string        `json:"ticket_categories"`
	MinTicketsRequired   int             `json:"min_tickets_required"`
	MaxTicketsAllowed    int             `json:"max_tickets_allowed"`
	MaxUsesPerUser       int             `json:"max_uses_per_user"`
	MaxTicketsToDiscount int             `json:"max_tickets_to_discount"`
	RequireLogin         bool            `json:"require_login"`
}

// Covers reports whether a ticket of the given category falls inside the
// voucher's scope.
func (v *Voucher) Covers(ticketCategoryID string) bool {
	if v.ApplyToAll {
		return true
	}
	for _, id := range v.TicketCategories {
		if id == ticketCategoryID {
			return true
		}
	}
	return false
}
