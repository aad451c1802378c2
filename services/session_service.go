package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"event-checkout/config"
	"event-checkout/internal/services/ticketing"
	"event-checkout/internal/status"
	"event-checkout/models"
	"event-checkout/monitoring"
	"event-checkout/utils"
)

// StagedBlob is a file the buyer attached (an avatar) that has not been
// uploaded to durable storage yet. Blobs live only as long as the session;
// they are resolved to URLs at submission time.
type StagedBlob struct {
	Data        []byte
	ContentType string
}

// CheckoutSession is the wizard's top-level state container: one catalog
// snapshot, one order draft, the applied voucher held beside the draft,
// and the transient bits (pending audience prompt, staged quantity edits,
// staged blobs). All mutation goes through SessionService.
type CheckoutSession struct {
	ID       string
	EventID  string
	Snapshot *models.CatalogSnapshot

	mu      sync.Mutex
	draft   *models.OrderDraft
	voucher *models.Voucher
	pending *models.PendingSeat
	// staged per-category quantities, committed to the draft only on an
	// explicit confirm (the two-phase PendingEdit flow)
	pendingEdits map[string]int
	blobs        map[string]StagedBlob
	step         Step

	secretHash []byte
	createdAt  time.Time
	touchedAt  time.Time

	stopSeatReload context.CancelFunc
}

// SessionState is the read snapshot handed to the HTTP layer.
type SessionState struct {
	ID         string                 `json:"id"`
	EventID    string                 `json:"event_id"`
	Step       string                 `json:"step"`
	Draft      *models.OrderDraft     `json:"draft"`
	Voucher    *models.Voucher        `json:"voucher,omitempty"`
	VoucherRes VoucherResult          `json:"voucher_result"`
	Pending    *models.PendingSeat    `json:"pending_seat,omitempty"`
	Totals     map[string]string      `json:"totals"`
}

// SessionService owns every open checkout session. Sessions are ephemeral:
// in memory only, discarded on submission or expiry, with no draft
// recovery.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*CheckoutSession

	client    *ticketing.Client
	selection *SelectionService
	vouchers  *VoucherService
	wizard    *WizardService
	seats     *SeatCacheService
	notifier  Notifier
	cfg       *config.Config
}

func NewSessionService(client *ticketing.Client, seats *SeatCacheService, notifier Notifier, cfg *config.Config) *SessionService {
	return &SessionService{
		sessions:  make(map[string]*CheckoutSession),
		client:    client,
		selection: NewSelectionService(),
		vouchers:  NewVoucherService(),
		wizard:    NewWizardService(),
		seats:     seats,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// StartSession fetches the catalog snapshot once and opens a new session
// with an empty draft. The returned secret authorizes further calls and is
// never stored in clear.
func (s *SessionService) StartSession(ctx context.Context, eventID string) (*CheckoutSession, string, error) {
	snapshot, err := s.client.GetCheckoutInfo(ctx, eventID)
	if err != nil {
		monitoring.TrackOperation("start_session", "error")
		return nil, "", fmt.Errorf("startSession: %w", err)
	}

	secret, err := utils.GenerateCode(16)
	if err != nil {
		return nil, "", fmt.Errorf("startSession: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("startSession: %w", err)
	}

	session := &CheckoutSession{
		ID:           uuid.NewString(),
		EventID:      eventID,
		Snapshot:     snapshot,
		draft:        models.NewOrderDraft(),
		pendingEdits: make(map[string]int),
		blobs:        make(map[string]StagedBlob),
		step:         StepSelectTickets,
		secretHash:   hash,
		createdAt:    time.Now(),
		touchedAt:    time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()

	monitoring.TrackOperation("start_session", "ok")
	monitoring.SetActiveSessions(count)
	return session, secret, nil
}

// Authorize resolves a session and verifies the caller holds its secret.
func (s *SessionService) Authorize(sessionID, secret string) (*CheckoutSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, status.ErrSessionNotFound
	}

	if bcrypt.CompareHashAndPassword(session.secretHash, []byte(secret)) != nil {
		return nil, status.ErrSessionForbidden
	}

	session.mu.Lock()
	idle := time.Since(session.touchedAt)
	session.touchedAt = time.Now()
	session.mu.Unlock()

	// A session can outlive its TTL between janitor ticks.
	if idle > s.cfg.SessionTTL {
		s.EndSession(sessionID)
		return nil, status.ErrSessionExpired
	}
	return session, nil
}

// EndSession drops a session, stopping any seat auto-reload it started.
func (s *SessionService) EndSession(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	count := len(s.sessions)
	s.mu.Unlock()

	if ok && session.stopSeatReload != nil {
		session.stopSeatReload()
	}
	monitoring.SetActiveSessions(count)
}

// CleanupExpiredSessions expires idle sessions on an interval until the
// context is cancelled.
func (s *SessionService) CleanupExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.cfg.SessionTTL)

			s.mu.Lock()
			var expired []*CheckoutSession
			for id, session := range s.sessions {
				session.mu.Lock()
				idle := session.touchedAt.Before(cutoff)
				session.mu.Unlock()
				if idle {
					expired = append(expired, session)
					delete(s.sessions, id)
				}
			}
			count := len(s.sessions)
			s.mu.Unlock()

			for _, session := range expired {
				if session.stopSeatReload != nil {
					session.stopSeatReload()
				}
				log.Printf("expired checkout session %s for event %s", session.ID, session.EventID)
			}
			monitoring.SetActiveSessions(count)
		}
	}
}

// State renders the session for the HTTP layer, including current voucher
// evaluation and totals.
func (s *SessionService) State(session *CheckoutSession) SessionState {
	session.mu.Lock()
	defer session.mu.Unlock()

	res := s.vouchers.Evaluate(session.voucher, session.draft.Tickets)
	subtotal := session.draft.Subtotal()
	total := FinalTotal(subtotal, session.draft.ExtraFee, res.Discount)

	return SessionState{
		ID:         session.ID,
		EventID:    session.EventID,
		Step:       session.step.String(),
		Draft:      session.draft.Clone(),
		Voucher:    session.voucher,
		VoucherRes: res,
		Pending:    session.pending,
		Totals: map[string]string{
			"subtotal":  subtotal.String(),
			"extra_fee": session.draft.ExtraFee.String(),
			"discount":  res.Discount.String(),
			"total":     total.String(),
		},
	}
}

// SetTicketQuantity applies a quantity change for a non-seated category.
// Rejections leave the draft untouched and are surfaced as a warning on
// the session's notification channel.
func (s *SessionService) SetTicketQuantity(session *CheckoutSession, showID, categoryID string, quantity int) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	next, err := s.selection.SetTicketQuantity(session.Snapshot, session.draft, showID, categoryID, quantity)
	if err != nil {
		monitoring.TrackOperation("set_quantity", "rejected")
		s.notifier.Warning(session.ID, err.Error(), map[string]any{"ticket_category_id": categoryID})
		return err
	}

	session.draft = next
	monitoring.TrackOperation("set_quantity", "ok")
	return nil
}

// StageQuantity records a scratch quantity for a category without touching
// the draft; CommitStagedQuantity applies it on explicit confirm and
// DiscardStagedQuantity throws it away.
func (s *SessionService) StageQuantity(session *CheckoutSession, showID, categoryID string, quantity int) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.pendingEdits[pendingEditKey(showID, categoryID)] = quantity
}

func (s *SessionService) CommitStagedQuantity(session *CheckoutSession, showID, categoryID string) error {
	session.mu.Lock()
	key := pendingEditKey(showID, categoryID)
	quantity, ok := session.pendingEdits[key]
	delete(session.pendingEdits, key)
	session.mu.Unlock()

	if !ok {
		return nil
	}
	return s.SetTicketQuantity(session, showID, categoryID, quantity)
}

func (s *SessionService) DiscardStagedQuantity(session *CheckoutSession, showID, categoryID string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	delete(session.pendingEdits, pendingEditKey(showID, categoryID))
}

func pendingEditKey(showID, categoryID string) string {
	return showID + "/" + categoryID
}

// ActivateShow refreshes the seat cache for a seated show and optionally
// starts the fixed-interval auto-reload, replacing any previous one.
func (s *SessionService) ActivateShow(ctx context.Context, session *CheckoutSession, showID string, autoReload bool) error {
	if err := s.seats.SyncShowSeats(ctx, session.EventID, showID); err != nil {
		s.notifier.Error(session.ID, "could not load seat statuses", nil)
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.stopSeatReload != nil {
		session.stopSeatReload()
		session.stopSeatReload = nil
	}
	if autoReload {
		reloadCtx, cancel := context.WithCancel(context.Background())
		session.stopSeatReload = cancel
		go s.seats.AutoReload(reloadCtx, session.EventID, showID, s.cfg.SeatReloadEvery)
	}
	return nil
}

// SelectSeats replaces the selected seat set for one show. Seat ids are
// resolved against the show layout and the cached statuses; a seat whose
// category needs an audience choice leaves the draft unchanged and parks
// the seat on the session as pending.
func (s *SessionService) SelectSeats(ctx context.Context, session *CheckoutSession, showID string, seatIDs []string) (*models.PendingSeat, error) {
	show := session.Snapshot.FindShow(showID)
	if show == nil {
		return nil, status.ErrShowNotFound
	}

	statuses, err := s.seats.GetSeatStatuses(ctx, showID, seatIDs)
	if err != nil {
		s.notifier.Error(session.ID, "could not check seat availability", nil)
		return nil, err
	}

	seats := make([]models.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		seat := show.FindSeat(id)
		if seat == nil {
			return nil, status.ErrSeatNotFound
		}
		resolved := *seat
		resolved.Status = statuses[id]
		seats = append(seats, resolved)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	next, pending, err := s.selection.ApplySeatSelection(session.Snapshot, session.draft, showID, seats)
	if err != nil {
		monitoring.TrackOperation("select_seats", "rejected")
		s.notifier.Warning(session.ID, err.Error(), map[string]any{"show_id": showID})
		return nil, err
	}

	session.draft = next
	session.pending = pending
	monitoring.TrackOperation("select_seats", "ok")
	return pending, nil
}

// ConfirmAudience resolves the pending seat with the chosen audience.
func (s *SessionService) ConfirmAudience(session *CheckoutSession, audienceID string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	next, err := s.selection.ConfirmSeatAudience(session.Snapshot, session.draft, session.pending, audienceID)
	if err != nil {
		monitoring.TrackOperation("confirm_audience", "rejected")
		s.notifier.Warning(session.ID, err.Error(), nil)
		return err
	}

	session.draft = next
	session.pending = nil
	monitoring.TrackOperation("confirm_audience", "ok")
	return nil
}

// CancelPendingSeat dismisses the audience prompt; the seat selection
// reverts to its pre-click state because the pending seat never entered
// the draft.
func (s *SessionService) CancelPendingSeat(session *CheckoutSession) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.pending = nil
}

// SetConcessionQuantity upserts or removes a concession line.
func (s *SessionService) SetConcessionQuantity(session *CheckoutSession, showID, concessionID string, quantity int) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	next, err := s.selection.SetConcessionQuantity(session.Snapshot, session.draft, showID, concessionID, quantity)
	if err != nil {
		monitoring.TrackOperation("set_concession", "rejected")
		s.notifier.Warning(session.ID, err.Error(), nil)
		return err
	}

	session.draft = next
	monitoring.TrackOperation("set_concession", "ok")
	return nil
}

// ApplyVoucher validates a code with the backend and holds the definition
// beside the draft. A voucher that fails local scope checks stays applied
// and visible with its failure message.
func (s *SessionService) ApplyVoucher(ctx context.Context, session *CheckoutSession, code string) (VoucherResult, error) {
	voucher, err := s.client.ValidateVoucher(ctx, session.EventID, code)
	if err != nil {
		monitoring.TrackOperation("apply_voucher", "error")
		s.notifier.Error(session.ID, err.Error(), map[string]any{"code": code})
		return VoucherResult{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	session.voucher = voucher
	res := s.vouchers.Evaluate(voucher, session.draft.Tickets)
	monitoring.TrackOperation("apply_voucher", "ok")
	return res, nil
}

// PublicVouchers lists the voucher campaigns openly advertised for the
// session's event, so the UI can suggest codes before one is typed.
func (s *SessionService) PublicVouchers(ctx context.Context, session *CheckoutSession) ([]models.Voucher, error) {
	vouchers, err := s.client.GetPublicVouchers(ctx, session.EventID)
	if err != nil {
		return nil, fmt.Errorf("publicVouchers: %w", err)
	}
	return vouchers, nil
}

func (s *SessionService) ClearVoucher(session *CheckoutSession) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.voucher = nil
}

// UpdateCustomer replaces the buyer info and custom answers wholesale;
// the buyer form is edited as one block.
func (s *SessionService) UpdateCustomer(session *CheckoutSession, customer models.Customer, answers map[string]any) {
	session.mu.Lock()
	defer session.mu.Unlock()

	draft := session.draft.Clone()
	draft.Customer = customer
	if answers != nil {
		draft.Answers = answers
	}
	session.draft = draft
}

// SetQROption switches between one shared check-in code and per-ticket
// codes. Holder requirements are enforced by the buyer-info gate, not here.
func (s *SessionService) SetQROption(session *CheckoutSession, option models.QROption) {
	session.mu.Lock()
	defer session.mu.Unlock()

	draft := session.draft.Clone()
	draft.QROption = option
	session.draft = draft
}

// SetHolder fills holder info on one ticket line.
func (s *SessionService) SetHolder(session *CheckoutSession, lineIndex int, holder models.Holder) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if lineIndex < 0 || lineIndex >= len(session.draft.Tickets) {
		return fmt.Errorf("setHolder: line %d out of range", lineIndex)
	}

	draft := session.draft.Clone()
	draft.Tickets[lineIndex].Holder = &holder
	session.draft = draft
	return nil
}

// SetPayment records the payment method and the organizer-charged extra
// fee (never negative).
func (s *SessionService) SetPayment(session *CheckoutSession, method string, extraFee int64) {
	session.mu.Lock()
	defer session.mu.Unlock()

	draft := session.draft.Clone()
	draft.PaymentMethod = method
	if extraFee > 0 {
		draft.ExtraFee = decimal.NewFromInt(extraFee)
	} else {
		draft.ExtraFee = decimal.Zero
	}
	session.draft = draft
}

// StageBlob parks an uploaded file on the session and hands back the local
// reference to put into an AvatarRef.
func (s *SessionService) StageBlob(session *CheckoutSession, data []byte, contentType string) string {
	session.mu.Lock()
	defer session.mu.Unlock()

	id := uuid.NewString()
	session.blobs[id] = StagedBlob{Data: data, ContentType: contentType}
	return id
}

// Next advances the wizard one gated step.
func (s *SessionService) Next(session *CheckoutSession) (Step, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	next, err := s.wizard.Advance(session.step, session.Snapshot, session.draft)
	if err != nil {
		monitoring.TrackOperation("advance_step", "rejected")
		s.notifier.Warning(session.ID, err.Error(), map[string]any{"step": session.step.String()})
		return session.step, err
	}
	session.step = next
	monitoring.TrackOperation("advance_step", "ok")
	return next, nil
}

// Back steps backward, always allowed.
func (s *SessionService) Back(session *CheckoutSession) Step {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.step = s.wizard.Back(session.step)
	return session.step
}

// JumpTo goes to an arbitrary step, validating intermediate gates on
// forward jumps.
func (s *SessionService) JumpTo(session *CheckoutSession, target Step) (Step, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	next, err := s.wizard.JumpTo(session.step, target, session.Snapshot, session.draft)
	if err != nil {
		s.notifier.Warning(session.ID, err.Error(), nil)
		return session.step, err
	}
	session.step = next
	return next, nil
}
