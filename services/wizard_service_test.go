package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-checkout/internal/status"
	"event-checkout/models"
)

func wizardSnapshot() *models.CatalogSnapshot {
	return &models.CatalogSnapshot{
		Event: models.Event{ID: "evt1"},
		CheckoutFields: []models.CheckoutFormField{
			{Name: "name", Type: "text", Builtin: true, Visible: true, Required: true},
			{Name: "email", Type: "email", Builtin: true, Visible: true, Required: true},
			{Name: "address", Type: "text", Builtin: true, Visible: true, Required: false},
			{Name: "idcard", Type: "text", Builtin: true, Visible: false, Required: true},
			{Name: "shirt_size", Type: "select", Visible: true, Required: true},
			{Name: "interests", Type: "checkbox", Visible: true, Required: true},
		},
	}
}

func filledDraft() *models.OrderDraft {
	draft := models.NewOrderDraft()
	draft.Tickets = []models.TicketLine{
		{ShowID: "show1", TicketCategoryID: "cat-standard", Price: decimal.NewFromInt(100)},
	}
	draft.Customer = models.Customer{
		Name:  "Test Buyer",
		Email: "buyer@example.com",
	}
	draft.Answers["shirt_size"] = "M"
	draft.Answers["interests"] = []string{"music"}
	draft.PaymentMethod = "card"
	return draft
}

func TestAdvance_EmptyOrderBlocked(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := models.NewOrderDraft()

	_, err := service.Advance(StepSelectTickets, snap, draft)
	assert.ErrorIs(t, err, status.ErrEmptyOrder)
}

func TestAdvance_FullPath(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()

	step := StepSelectTickets
	var err error
	for _, want := range []Step{StepBuyerInfo, StepPayment, StepReview} {
		step, err = service.Advance(step, snap, draft)
		require.NoError(t, err)
		assert.Equal(t, want, step)
	}

	// advancing past review stays on review
	step, err = service.Advance(StepReview, snap, draft)
	require.NoError(t, err)
	assert.Equal(t, StepReview, step)
}

func TestValidate_BuyerInfoRequiredFields(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()

	draft.Customer.Email = ""
	err := service.Validate(StepBuyerInfo, snap, draft)

	var missing *status.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "email", missing.Field)
}

func TestValidate_HiddenRequiredFieldSkipped(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()

	// idcard is required but not visible, so an empty value passes
	assert.NoError(t, service.Validate(StepBuyerInfo, snap, draft))
}

func TestValidate_CheckboxAnswerNeedsSelection(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()

	draft.Answers["interests"] = []string{}
	err := service.Validate(StepBuyerInfo, snap, draft)

	var missing *status.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "interests", missing.Field)

	// decoded JSON arrives as []any
	draft.Answers["interests"] = []any{"music"}
	assert.NoError(t, service.Validate(StepBuyerInfo, snap, draft))
}

func TestValidate_SeparateQRNeedsHolders(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()
	draft.QROption = models.QRSeparate

	err := service.Validate(StepBuyerInfo, snap, draft)
	var missing *status.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "holder name", missing.Field)

	draft.Tickets[0].Holder = &models.Holder{
		Name:  "Attendee",
		Email: "attendee@example.com",
		Phone: models.PhoneNumber{CountryCode: "+856", National: "2055512345"},
	}
	assert.NoError(t, service.Validate(StepBuyerInfo, snap, draft))
}

func TestValidate_PaymentNeedsMethod(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()
	draft.PaymentMethod = ""

	assert.ErrorIs(t, service.Validate(StepPayment, snap, draft), status.ErrNoPaymentMethod)
}

func TestBack_Unconditional(t *testing.T) {
	service := NewWizardService()

	assert.Equal(t, StepPayment, service.Back(StepReview))
	assert.Equal(t, StepSelectTickets, service.Back(StepBuyerInfo))
	assert.Equal(t, StepSelectTickets, service.Back(StepSelectTickets))
}

func TestJumpTo_BackwardAlwaysAllowed(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := models.NewOrderDraft() // would fail every gate

	step, err := service.JumpTo(StepReview, StepSelectTickets, snap, draft)
	require.NoError(t, err)
	assert.Equal(t, StepSelectTickets, step)
}

func TestJumpTo_ForwardRevalidatesEarlierSteps(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()
	draft.Tickets = nil // selection emptied after the step was passed

	_, err := service.JumpTo(StepBuyerInfo, StepReview, snap, draft)
	assert.ErrorIs(t, err, status.ErrEmptyOrder)
}

func TestJumpTo_ForwardValidatesIntermediates(t *testing.T) {
	service := NewWizardService()
	snap := wizardSnapshot()
	draft := filledDraft()
	draft.PaymentMethod = ""

	// select_tickets and buyer_info pass, payment blocks the jump to review
	_, err := service.JumpTo(StepSelectTickets, StepReview, snap, draft)
	assert.ErrorIs(t, err, status.ErrNoPaymentMethod)

	step, err := service.JumpTo(StepSelectTickets, StepPayment, snap, draft)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, step)
}
