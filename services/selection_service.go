package services

import (
	"event-checkout/internal/status"
	"event-checkout/models"
)

// SelectionService translates user selection intents into a new order
// draft, enforcing quantity, seat and audience invariants against the
// catalog snapshot. Every operation is pure with respect to its inputs:
// the incoming draft is never mutated, and a rejected operation returns
// the original draft untouched.
type SelectionService struct{}

func NewSelectionService() *SelectionService {
	return &SelectionService{}
}

// SetTicketQuantity sets the number of non-seated tickets held for one
// (show, category) pair. Growing appends freshly priced lines; shrinking
// keeps the first N existing lines so earliest-filled holder info survives;
// zero removes every line for the category. The whole operation is rejected
// if any purchase limit or the remaining stock would be exceeded.
func (s *SelectionService) SetTicketQuantity(snap *models.CatalogSnapshot, draft *models.OrderDraft, showID, categoryID string, desired int) (*models.OrderDraft, error) {
	if desired < 0 {
		desired = 0
	}

	show := snap.FindShow(showID)
	if show == nil {
		return draft, status.ErrShowNotFound
	}
	category := show.FindCategory(categoryID)
	if category == nil {
		return draft, status.ErrCategoryNotFound
	}

	current := draft.CountForCategory(showID, categoryID)
	if desired == current {
		return draft, nil
	}

	if desired > current {
		if !category.Purchasable() {
			return draft, status.ErrCategoryOffSale
		}
		if desired > category.RemainingStock() {
			return draft, status.ErrOutOfStock
		}
		if err := checkQuantityLimits(snap, draft, show, category, desired); err != nil {
			return draft, err
		}
	}

	out := draft.Clone()

	if desired < current {
		// Keep the first N lines of this category, in draft order, so
		// holder info already filled on the earliest tickets is retained.
		kept := 0
		lines := out.Tickets[:0]
		for _, t := range out.Tickets {
			if t.ShowID == showID && t.TicketCategoryID == categoryID {
				if kept >= desired {
					continue
				}
				kept++
			}
			lines = append(lines, t)
		}
		out.Tickets = lines
		return out, nil
	}

	price := category.Price
	audienceID, audienceName := "", ""
	if enabled := category.EnabledAudiences(); len(enabled) == 1 {
		price = enabled[0].Price
		audienceID = enabled[0].ID
		audienceName = enabled[0].Name
	}

	for i := current; i < desired; i++ {
		out.Tickets = append(out.Tickets, models.TicketLine{
			ShowID:           showID,
			TicketCategoryID: categoryID,
			Price:            price,
			AudienceID:       audienceID,
			AudienceName:     audienceName,
		})
	}

	return out, nil
}

// checkQuantityLimits validates the prospective quantity for one category
// against every applicable cap, tightest scope first. Each cross-category
// cap bounds the total ticket count in its scope, i.e. the other lines in
// scope plus the desired quantity for this category.
func checkQuantityLimits(snap *models.CatalogSnapshot, draft *models.OrderDraft, show *models.Show, category *models.TicketCategory, desired int) error {
	if category.LimitPerTransaction > 0 && desired > category.LimitPerTransaction {
		return &status.LimitError{Scope: status.ScopeCategory, Limit: category.LimitPerTransaction}
	}

	othersInShow := draft.CountForShow(show.ID) - draft.CountForCategory(show.ID, category.ID)
	if show.LimitPerTransaction > 0 && othersInShow+desired > show.LimitPerTransaction {
		return &status.LimitError{Scope: status.ScopeShow, Limit: show.LimitPerTransaction}
	}

	othersInEvent := draft.TicketCount() - draft.CountForCategory(show.ID, category.ID)
	if snap.Event.LimitPerTransaction > 0 && othersInEvent+desired > snap.Event.LimitPerTransaction {
		return &status.LimitError{Scope: status.ScopeEvent, Limit: snap.Event.LimitPerTransaction}
	}
	if snap.Event.LimitPerCustomer > 0 && othersInEvent+desired > snap.Event.LimitPerCustomer {
		return &status.LimitError{Scope: status.ScopeEventCustomer, Limit: snap.Event.LimitPerCustomer}
	}

	return nil
}

// MaxQuantity is the largest quantity the UI should offer for a category:
// bounded by remaining stock and every per-transaction/per-customer cap,
// but never below 1 so the picker always renders.
func (s *SelectionService) MaxQuantity(snap *models.CatalogSnapshot, draft *models.OrderDraft, showID, categoryID string) int {
	show := snap.FindShow(showID)
	if show == nil {
		return 1
	}
	category := show.FindCategory(categoryID)
	if category == nil {
		return 1
	}

	max := category.RemainingStock()
	if category.LimitPerTransaction > 0 && category.LimitPerTransaction < max {
		max = category.LimitPerTransaction
	}

	othersInShow := draft.CountForShow(showID) - draft.CountForCategory(showID, categoryID)
	if show.LimitPerTransaction > 0 && show.LimitPerTransaction-othersInShow < max {
		max = show.LimitPerTransaction - othersInShow
	}

	othersInEvent := draft.TicketCount() - draft.CountForCategory(showID, categoryID)
	if snap.Event.LimitPerTransaction > 0 && snap.Event.LimitPerTransaction-othersInEvent < max {
		max = snap.Event.LimitPerTransaction - othersInEvent
	}
	if snap.Event.LimitPerCustomer > 0 && snap.Event.LimitPerCustomer-othersInEvent < max {
		max = snap.Event.LimitPerCustomer - othersInEvent
	}

	if max < 1 {
		return 1
	}
	return max
}

// ApplySeatSelection replaces the selected seat set for one seated show
// with an idempotent diff: lines whose seat is still selected are kept
// as-is (price and audience retained), deselected seats are dropped, and
// each newly selected seat is resolved through its category's audiences.
// A seat whose category offers several active audiences suspends the
// whole operation and is returned as a PendingSeat: the draft is left
// unchanged (so cancelling the prompt reverts to the pre-click state) and
// every other new seat in the batch is dropped. All limits are validated
// on the kept+added union before anything is committed.
func (s *SelectionService) ApplySeatSelection(snap *models.CatalogSnapshot, draft *models.OrderDraft, showID string, seats []models.Seat) (*models.OrderDraft, *models.PendingSeat, error) {
	show := snap.FindShow(showID)
	if show == nil {
		return draft, nil, status.ErrShowNotFound
	}

	selected := make(map[string]bool, len(seats))
	for _, seat := range seats {
		selected[seat.ID] = true
	}

	previously := make(map[string]bool)
	var kept []models.TicketLine
	for _, t := range draft.Tickets {
		if t.ShowID != showID {
			kept = append(kept, t)
			continue
		}
		previously[t.SeatID] = true
		if selected[t.SeatID] {
			kept = append(kept, t)
		}
	}

	var added []models.TicketLine
	for _, seat := range seats {
		if previously[seat.ID] {
			continue
		}
		if seat.Status == models.SeatSold || seat.Status == models.SeatBlocked {
			return draft, nil, status.ErrSeatUnavailable
		}

		category := show.FindCategory(seat.TicketCategoryID)
		if category == nil {
			return draft, nil, status.ErrCategoryNotFound
		}

		line, pending, err := resolveSeatLine(showID, seat, category)
		if err != nil {
			return draft, nil, err
		}
		if pending != nil {
			// The first ambiguous seat suspends the whole batch: nothing
			// enters the draft until the prompt resolves, and the other
			// new seats are dropped.
			return draft, pending, nil
		}
		added = append(added, line)
	}

	prospective := append(append([]models.TicketLine{}, kept...), added...)
	if err := checkSeatBatchLimits(snap, show, prospective); err != nil {
		return draft, nil, err
	}

	out := draft.Clone()
	lines := out.Tickets[:0]
	for _, t := range out.Tickets {
		if t.ShowID != showID || selected[t.SeatID] {
			lines = append(lines, t)
		}
	}
	out.Tickets = append(lines, added...)
	return out, nil, nil
}

// resolveSeatLine turns a newly selected seat into a ticket line, or into
// a pending-audience prompt when the category price is ambiguous.
func resolveSeatLine(showID string, seat models.Seat, category *models.TicketCategory) (models.TicketLine, *models.PendingSeat, error) {
	line := models.TicketLine{
		ShowID:           showID,
		TicketCategoryID: category.ID,
		SeatID:           seat.ID,
		SeatLabel:        seat.Label(),
		Price:            category.Price,
	}

	if len(category.Audiences) == 0 {
		return line, nil, nil
	}

	enabled := category.EnabledAudiences()
	switch len(enabled) {
	case 0:
		return models.TicketLine{}, nil, status.ErrNoActiveAudience
	case 1:
		line.Price = enabled[0].Price
		line.AudienceID = enabled[0].ID
		line.AudienceName = enabled[0].Name
		return line, nil, nil
	default:
		return models.TicketLine{}, &models.PendingSeat{
			ShowID:    showID,
			Seat:      seat,
			Audiences: enabled,
		}, nil
	}
}

// checkSeatBatchLimits validates the whole prospective line set for a
// seated show, using the same scope ordering as the quantity path.
func checkSeatBatchLimits(snap *models.CatalogSnapshot, show *models.Show, prospective []models.TicketLine) error {
	perCategory := make(map[string]int)
	showTotal := 0
	eventTotal := len(prospective)
	for _, t := range prospective {
		if t.ShowID == show.ID {
			showTotal++
			perCategory[t.TicketCategoryID]++
		}
	}

	for categoryID, count := range perCategory {
		category := show.FindCategory(categoryID)
		if category == nil {
			continue
		}
		if category.LimitPerTransaction > 0 && count > category.LimitPerTransaction {
			return &status.LimitError{Scope: status.ScopeCategory, Limit: category.LimitPerTransaction}
		}
	}

	if show.LimitPerTransaction > 0 && showTotal > show.LimitPerTransaction {
		return &status.LimitError{Scope: status.ScopeShow, Limit: show.LimitPerTransaction}
	}
	if snap.Event.LimitPerTransaction > 0 && eventTotal > snap.Event.LimitPerTransaction {
		return &status.LimitError{Scope: status.ScopeEvent, Limit: snap.Event.LimitPerTransaction}
	}
	if snap.Event.LimitPerCustomer > 0 && eventTotal > snap.Event.LimitPerCustomer {
		return &status.LimitError{Scope: status.ScopeEventCustomer, Limit: snap.Event.LimitPerCustomer}
	}

	return nil
}

// ConfirmSeatAudience resolves a pending seat with the chosen audience and
// appends exactly one ticket line. Cancelling the prompt is simply
// discarding the pending seat; the draft needs no change for that.
func (s *SelectionService) ConfirmSeatAudience(snap *models.CatalogSnapshot, draft *models.OrderDraft, pending *models.PendingSeat, audienceID string) (*models.OrderDraft, error) {
	if pending == nil {
		return draft, status.ErrNoPendingSeat
	}

	var chosen *models.Audience
	for i := range pending.Audiences {
		if pending.Audiences[i].ID == audienceID {
			chosen = &pending.Audiences[i]
			break
		}
	}
	if chosen == nil {
		return draft, status.ErrAudienceNotFound
	}

	show := snap.FindShow(pending.ShowID)
	if show == nil {
		return draft, status.ErrShowNotFound
	}

	line := models.TicketLine{
		ShowID:           pending.ShowID,
		TicketCategoryID: pending.Seat.TicketCategoryID,
		SeatID:           pending.Seat.ID,
		SeatLabel:        pending.Seat.Label(),
		Price:            chosen.Price,
		AudienceID:       chosen.ID,
		AudienceName:     chosen.Name,
	}

	prospective := append(append([]models.TicketLine{}, draft.Tickets...), line)
	if err := checkSeatBatchLimits(snap, show, prospective); err != nil {
		return draft, err
	}

	out := draft.Clone()
	out.Tickets = append(out.Tickets, line)
	return out, nil
}

// SetConcessionQuantity upserts the single concession line for one
// (show, concession) pair at the show's effective price, or removes it
// when the quantity drops to zero. Concessions carry no cross-line caps.
func (s *SelectionService) SetConcessionQuantity(snap *models.CatalogSnapshot, draft *models.OrderDraft, showID, concessionID string, quantity int) (*models.OrderDraft, error) {
	show := snap.FindShow(showID)
	if show == nil {
		return draft, status.ErrShowNotFound
	}
	concession := show.FindConcession(concessionID)
	if concession == nil {
		return draft, status.ErrConcessionNotFound
	}

	out := draft.Clone()

	lines := out.Concessions[:0]
	for _, c := range out.Concessions {
		if c.ShowID == showID && c.ConcessionID == concessionID {
			continue
		}
		lines = append(lines, c)
	}
	out.Concessions = lines

	if quantity > 0 {
		out.Concessions = append(out.Concessions, models.ConcessionLine{
			ShowID:       showID,
			ConcessionID: concessionID,
			Quantity:     quantity,
			Price:        concession.EffectivePrice(),
		})
	}

	return out, nil
}
