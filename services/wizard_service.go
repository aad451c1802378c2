package services

import (
	"event-checkout/internal/status"
	"event-checkout/models"
)

// Step is one stage of the checkout wizard. Advancing requires the current
// step's validator to pass; going back is always unconditional.
type Step int

const (
	StepSelectTickets Step = iota
	StepBuyerInfo
	StepPayment
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepSelectTickets:
		return "select_tickets"
	case StepBuyerInfo:
		return "buyer_info"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	}
	return "unknown"
}

// Builtin checkout form field names that map onto the Customer struct.
const (
	FieldTitle   = "title"
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldAddress = "address"
	FieldDOB     = "dob"
	FieldIDCard  = "idcard"
)

type WizardService struct{}

func NewWizardService() *WizardService {
	return &WizardService{}
}

// Validate runs the gate for one step against the current draft.
func (s *WizardService) Validate(step Step, snap *models.CatalogSnapshot, draft *models.OrderDraft) error {
	switch step {
	case StepSelectTickets:
		if draft.TicketCount() == 0 {
			return status.ErrEmptyOrder
		}
	case StepBuyerInfo:
		return s.validateBuyerInfo(snap, draft)
	case StepPayment:
		if draft.PaymentMethod == "" {
			return status.ErrNoPaymentMethod
		}
	case StepReview:
		// Review has no gate of its own; submission is the action.
	}
	return nil
}

func (s *WizardService) validateBuyerInfo(snap *models.CatalogSnapshot, draft *models.OrderDraft) error {
	for _, field := range snap.CheckoutFields {
		if !field.Visible || !field.Required {
			continue
		}
		if field.Builtin {
			if builtinFieldValue(&draft.Customer, field.Name) == "" {
				return &status.MissingFieldError{Field: field.Name}
			}
			continue
		}
		if !answerPresent(draft.Answers[field.Name], field.Type) {
			return &status.MissingFieldError{Field: field.Name}
		}
	}

	if draft.QROption == models.QRSeparate {
		for _, t := range draft.Tickets {
			if t.Holder == nil || t.Holder.Name == "" {
				return &status.MissingFieldError{Field: "holder name"}
			}
			if t.Holder.Email == "" {
				return &status.MissingFieldError{Field: "holder email"}
			}
			if t.Holder.Phone.IsZero() {
				return &status.MissingFieldError{Field: "holder phone"}
			}
		}
	}

	return nil
}

func builtinFieldValue(c *models.Customer, name string) string {
	switch name {
	case FieldTitle:
		return c.Title
	case FieldName:
		return c.Name
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone.National
	case FieldAddress:
		return c.Address
	case FieldDOB:
		return c.DOB
	case FieldIDCard:
		return c.IDCard
	}
	return ""
}

// answerPresent checks a custom form answer. Checkbox fields require a
// non-empty selection array; everything else a non-empty string.
func answerPresent(value any, fieldType string) bool {
	if value == nil {
		return false
	}
	if fieldType == "checkbox" {
		switch v := value.(type) {
		case []string:
			return len(v) > 0
		case []any:
			return len(v) > 0
		default:
			return false
		}
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}

// Advance moves forward one step if the current step's gate passes.
func (s *WizardService) Advance(current Step, snap *models.CatalogSnapshot, draft *models.OrderDraft) (Step, error) {
	if current >= StepReview {
		return current, nil
	}
	if err := s.Validate(current, snap, draft); err != nil {
		return current, err
	}
	return current + 1, nil
}

// Back moves one step backward, unconditionally.
func (s *WizardService) Back(current Step) Step {
	if current <= StepSelectTickets {
		return StepSelectTickets
	}
	return current - 1
}

// JumpTo goes directly to a step. Backward jumps are always allowed; a
// forward jump is blocked unless every step before the target validates,
// starting from the first one, since earlier steps can be invalidated
// after they were passed (e.g. the last ticket removed).
func (s *WizardService) JumpTo(current, target Step, snap *models.CatalogSnapshot, draft *models.OrderDraft) (Step, error) {
	if target < StepSelectTickets || target > StepReview {
		return current, status.ErrStepBlocked
	}
	if target <= current {
		return target, nil
	}
	for step := StepSelectTickets; step < target; step++ {
		if err := s.Validate(step, snap, draft); err != nil {
			return current, err
		}
	}
	return target, nil
}
