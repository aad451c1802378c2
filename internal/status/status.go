package status

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound    = errors.New("checkout: session not found")
	ErrSessionExpired     = errors.New("checkout: session expired")
	ErrSessionForbidden   = errors.New("checkout: invalid session secret")
	ErrShowNotFound       = errors.New("catalog: show not found")
	ErrCategoryNotFound   = errors.New("catalog: ticket category not found")
	ErrConcessionNotFound = errors.New("catalog: concession not found")
	ErrSeatNotFound       = errors.New("catalog: seat not found in layout")
	ErrSeatUnavailable    = errors.New("seat: seat is not available")
	ErrCategoryOffSale    = errors.New("category: not on sale")
	ErrOutOfStock         = errors.New("category: not enough tickets left")
	ErrNoActiveAudience   = errors.New("audience: no active audience for this category")
	ErrAudienceNotFound   = errors.New("audience: audience not found")
	ErrNoPendingSeat      = errors.New("audience: no seat awaiting audience selection")
	ErrEmptyOrder         = errors.New("order: no tickets selected")
	ErrNoPaymentMethod    = errors.New("order: payment method not selected")
	ErrBlobNotFound       = errors.New("upload: staged file not found")
	ErrStepBlocked        = errors.New("wizard: step not reachable yet")
)

// LimitScope identifies which purchase cap was hit. Scopes are checked
// tightest-first: category, then show, then event, then event-per-customer.
type LimitScope string

const (
	ScopeCategory      LimitScope = "category"
	ScopeShow          LimitScope = "show"
	ScopeEvent         LimitScope = "event"
	ScopeEventCustomer LimitScope = "event_customer"
)

// LimitError names the tightest violated purchase limit. The whole
// operation that produced it is rejected with no partial application.
type LimitError struct {
	Scope LimitScope
	Limit int
}

func (e *LimitError) Error() string {
	switch e.Scope {
	case ScopeCategory:
		return fmt.Sprintf("limit: maximum %d tickets per order for this category", e.Limit)
	case ScopeShow:
		return fmt.Sprintf("limit: maximum %d tickets per order for this show", e.Limit)
	case ScopeEvent:
		return fmt.Sprintf("limit: maximum %d tickets per order for this event", e.Limit)
	case ScopeEventCustomer:
		return fmt.Sprintf("limit: maximum %d tickets per customer for this event", e.Limit)
	}
	return fmt.Sprintf("limit: maximum %d tickets", e.Limit)
}

// MissingFieldError reports a visible+required checkout form field (or a
// holder field in separate-QR mode) that is still empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("form: required field %q is missing", e.Field)
}
