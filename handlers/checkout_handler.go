package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"event-checkout/internal/status"
	"event-checkout/models"
	"event-checkout/services"
)

type CheckoutHandler struct {
	app        *pocketbase.PocketBase
	sessions   *services.SessionService
	submission *services.SubmissionService
	maxUpload  int64
}

func NewCheckoutHandler(app *pocketbase.PocketBase, sessions *services.SessionService, submission *services.SubmissionService, maxUpload int64) *CheckoutHandler {
	return &CheckoutHandler{
		app:        app,
		sessions:   sessions,
		submission: submission,
		maxUpload:  maxUpload,
	}
}

// StartSession opens a checkout session for an event and returns the
// session id plus the secret the client must echo on every further call.
func (h *CheckoutHandler) StartSession(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID is required", nil)
	}

	session, secret, err := h.sessions.StartSession(e.Request.Context(), eventID)
	if err != nil {
		return apis.NewBadRequestError("Failed to start checkout: "+err.Error(), err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session_id":     session.ID,
		"session_secret": secret,
		"state":          h.sessions.State(session),
	})
}

// session resolves and authorizes the session for the current request.
func (h *CheckoutHandler) session(e *core.RequestEvent) (*services.CheckoutSession, error) {
	sessionID := e.Request.PathValue("sessionId")
	secret := e.Request.Header.Get("X-Checkout-Secret")

	session, err := h.sessions.Authorize(sessionID, secret)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrSessionNotFound):
			return nil, apis.NewNotFoundError("Checkout session not found", err)
		case errors.Is(err, status.ErrSessionExpired):
			return nil, apis.NewNotFoundError("Checkout session expired", err)
		default:
			return nil, apis.NewUnauthorizedError("Unauthorized", err)
		}
	}
	return session, nil
}

func (h *CheckoutHandler) GetState(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// SetTicketQuantity handles quantity changes for non-seated categories.
func (h *CheckoutHandler) SetTicketQuantity(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID           string `json:"show_id"`
		TicketCategoryID string `json:"ticket_category_id"`
		Quantity         int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.SetTicketQuantity(session, req.ShowID, req.TicketCategoryID, req.Quantity); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}

	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// StageQuantity parks a quantity for a category without touching the
// draft; the stepper UI commits or discards it later.
func (h *CheckoutHandler) StageQuantity(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID           string `json:"show_id"`
		TicketCategoryID string `json:"ticket_category_id"`
		Quantity         int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	h.sessions.StageQuantity(session, req.ShowID, req.TicketCategoryID, req.Quantity)
	return e.JSON(http.StatusOK, map[string]any{"staged": req.Quantity})
}

func (h *CheckoutHandler) CommitQuantity(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID           string `json:"show_id"`
		TicketCategoryID string `json:"ticket_category_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.CommitStagedQuantity(session, req.ShowID, req.TicketCategoryID); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

func (h *CheckoutHandler) DiscardQuantity(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID           string `json:"show_id"`
		TicketCategoryID string `json:"ticket_category_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	h.sessions.DiscardStagedQuantity(session, req.ShowID, req.TicketCategoryID)
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// GetMaxQuantity tells the UI the largest quantity it should offer for a
// category given the current draft.
func (h *CheckoutHandler) GetMaxQuantity(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	showID := e.Request.URL.Query().Get("show_id")
	categoryID := e.Request.URL.Query().Get("ticket_category_id")

	state := h.sessions.State(session)
	max := services.NewSelectionService().MaxQuantity(session.Snapshot, state.Draft, showID, categoryID)
	return e.JSON(http.StatusOK, map[string]any{"max_quantity": max})
}

// ActivateShow syncs seat statuses for a show and toggles auto-reload.
func (h *CheckoutHandler) ActivateShow(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID     string `json:"show_id"`
		AutoReload bool   `json:"auto_reload"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.ActivateShow(e.Request.Context(), session, req.ShowID, req.AutoReload); err != nil {
		return apis.NewBadRequestError("Failed to load seats: "+err.Error(), err)
	}
	return e.JSON(http.StatusOK, map[string]any{"show_id": req.ShowID})
}

// SelectSeats replaces the full selected seat set for one show.
func (h *CheckoutHandler) SelectSeats(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID  string   `json:"show_id"`
		SeatIDs []string `json:"seat_ids"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	pending, err := h.sessions.SelectSeats(e.Request.Context(), session, req.ShowID, req.SeatIDs)
	if err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}

	reply := map[string]any{"state": h.sessions.State(session)}
	if pending != nil {
		reply["pending_seat"] = pending
	}
	return e.JSON(http.StatusOK, reply)
}

// ConfirmAudience resolves the pending ambiguous-audience seat.
func (h *CheckoutHandler) ConfirmAudience(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		AudienceID string `json:"audience_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.ConfirmAudience(session, req.AudienceID); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// CancelAudience dismisses the pending seat prompt.
func (h *CheckoutHandler) CancelAudience(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}
	h.sessions.CancelPendingSeat(session)
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// SetConcession upserts a concession line.
func (h *CheckoutHandler) SetConcession(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		ShowID       string `json:"show_id"`
		ConcessionID string `json:"concession_id"`
		Quantity     int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.SetConcessionQuantity(session, req.ShowID, req.ConcessionID, req.Quantity); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// ApplyVoucher validates and applies a voucher code.
func (h *CheckoutHandler) ApplyVoucher(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.sessions.ApplyVoucher(e.Request.Context(), session, req.Code)
	if err != nil {
		return apis.NewBadRequestError("Invalid voucher code", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"result": result,
		"state":  h.sessions.State(session),
	})
}

// PublicVouchers lists openly advertised voucher campaigns for the event.
func (h *CheckoutHandler) PublicVouchers(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	vouchers, err := h.sessions.PublicVouchers(e.Request.Context(), session)
	if err != nil {
		return apis.NewBadRequestError("Failed to list vouchers", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"vouchers": vouchers})
}

func (h *CheckoutHandler) ClearVoucher(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}
	h.sessions.ClearVoucher(session)
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// UpdateCustomer replaces buyer info, custom answers and the QR option.
func (h *CheckoutHandler) UpdateCustomer(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		Customer models.Customer `json:"customer"`
		Answers  map[string]any  `json:"answers"`
		QROption string          `json:"qr_option"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	h.sessions.UpdateCustomer(session, req.Customer, req.Answers)
	if req.QROption != "" {
		h.sessions.SetQROption(session, models.QROption(req.QROption))
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// SetHolder fills per-ticket holder info (required for separate QR codes).
func (h *CheckoutHandler) SetHolder(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		LineIndex int           `json:"line_index"`
		Holder    models.Holder `json:"holder"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.SetHolder(session, req.LineIndex, req.Holder); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// SetPayment records the chosen payment method and extra fee.
func (h *CheckoutHandler) SetPayment(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
		ExtraFee      int64  `json:"extra_fee"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	h.sessions.SetPayment(session, req.PaymentMethod, req.ExtraFee)
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// StageAvatar accepts raw file bytes and parks them on the session; the
// response carries the local blob reference for an AvatarRef.
func (h *CheckoutHandler) StageAvatar(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(e.Request.Body, h.maxUpload))
	if err != nil {
		return apis.NewBadRequestError("Failed to read file", err)
	}
	if len(data) == 0 {
		return apis.NewBadRequestError("Empty file", nil)
	}

	contentType := e.Request.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blobID := h.sessions.StageBlob(session, data, contentType)
	return e.JSON(http.StatusOK, map[string]any{"local_blob": blobID})
}

// Next advances the wizard one step.
func (h *CheckoutHandler) Next(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	if _, err := h.sessions.Next(session); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// Back steps backward unconditionally.
func (h *CheckoutHandler) Back(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}
	h.sessions.Back(session)
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// JumpTo goes directly to a step by name.
func (h *CheckoutHandler) JumpTo(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	var req struct {
		Step string `json:"step"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	target, ok := stepByName(req.Step)
	if !ok {
		return apis.NewBadRequestError("Unknown step", nil)
	}

	if _, err := h.sessions.JumpTo(session, target); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}
	return e.JSON(http.StatusOK, h.sessions.State(session))
}

// Submit runs the submission sequence, records the created transaction
// and closes the session. The draft survives a failed submission so the
// buyer can retry.
func (h *CheckoutHandler) Submit(e *core.RequestEvent) error {
	session, err := h.session(e)
	if err != nil {
		return err
	}

	reply, err := h.submission.Submit(e.Request.Context(), session)
	if err != nil {
		return apis.NewBadRequestError("Submission failed: "+err.Error(), err)
	}

	h.recordSubmission(e, session, reply.ID)
	h.sessions.EndSession(session.ID)

	return e.JSON(http.StatusOK, map[string]any{
		"transaction_id":       reply.ID,
		"payment_checkout_url": reply.PaymentCheckoutURL,
	})
}

// recordSubmission writes the audit record for a created transaction.
// Failures only get logged; the transaction already exists backend-side.
func (h *CheckoutHandler) recordSubmission(e *core.RequestEvent, session *services.CheckoutSession, transactionID string) {
	collection, err := h.app.FindCollectionByNameOrId("submissions")
	if err != nil {
		h.app.Logger().Error("submissions collection missing", "error", err)
		return
	}

	record := core.NewRecord(collection)
	record.Set("event_id", session.EventID)
	record.Set("transaction_id", transactionID)
	if e.Auth != nil {
		record.Set("submitted_by", e.Auth.Id)
	}

	if err := h.app.Save(record); err != nil {
		h.app.Logger().Error("failed to record submission", "transaction_id", transactionID, "error", err)
	}
}

// ListSubmissions returns the audit trail of created transactions for one
// event, newest first. Requires an authenticated caller.
func (h *CheckoutHandler) ListSubmissions(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	eventID := e.Request.PathValue("eventId")

	var rows []dbx.NullStringMap
	err := h.app.DB().
		NewQuery("SELECT id, event_id, transaction_id, submitted_by, created FROM submissions WHERE event_id = {:event} ORDER BY created DESC LIMIT 100").
		Bind(dbx.Params{"event": eventID}).
		All(&rows)
	if err != nil {
		return apis.NewBadRequestError("Failed to list submissions", err)
	}

	submissions := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		submissions = append(submissions, map[string]any{
			"id":             row["id"].String,
			"event_id":       row["event_id"].String,
			"transaction_id": row["transaction_id"].String,
			"submitted_by":   row["submitted_by"].String,
			"created":        row["created"].String,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"submissions": submissions})
}

func stepByName(name string) (services.Step, bool) {
	switch name {
	case "select_tickets":
		return services.StepSelectTickets, true
	case "buyer_info":
		return services.StepBuyerInfo, true
	case "payment":
		return services.StepPayment, true
	case "review":
		return services.StepReview, true
	}
	return 0, false
}
