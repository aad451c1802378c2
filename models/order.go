package models

import (
	"github.com/shopspring/decimal"
)

// QROption controls how check-in codes are issued for an order.
type QROption string

const (
	// QRShared issues one code covering the whole order.
	QRShared QROption = "shared"
	// QRSeparate issues one code per ticket and requires every ticket
	// line to carry holder identity and contact info before submission.
	QRSeparate QROption = "separate"
)

// AvatarRef points at a profile image either already uploaded to durable
// storage (Remote) or still staged locally in the session (LocalBlob).
// It is resolved to a remote URL only at submission time.
type AvatarRef struct {
	Remote    string `json:"remote,omitempty"`
	LocalBlob string `json:"local_blob,omitempty"`
}

func (a AvatarRef) IsZero() bool {
	return a.Remote == "" && a.LocalBlob == ""
}

// Pending reports whether the avatar still needs uploading.
func (a AvatarRef) Pending() bool {
	return a.Remote == "" && a.LocalBlob != ""
}

// PhoneNumber keeps the dial code and the national significant number
// apart; they are joined into international format only for the backend.
type PhoneNumber struct {
	CountryCode string `json:"country_code"` // e.g. "+856"
	National    string `json:"national"`
}

func (p PhoneNumber) IsZero() bool {
	return p.National == ""
}

type Customer struct {
	Title   string      `json:"title"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   PhoneNumber `json:"phone"`
	Address string      `json:"address"`
	DOB     string      `json:"dob"`
	IDCard  string      `json:"idcard"`
	Avatar  AvatarRef   `json:"avatar"`
}

// Holder is the per-ticket attendee, required in full when the order uses
// separate QR codes.
type Holder struct {
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Phone  PhoneNumber `json:"phone"`
	Avatar AvatarRef   `json:"avatar"`
}

// TicketLine is one purchasable unit. For seated shows it carries a unique
// seat id; otherwise lines are fungible and quantity is simply the count of
// lines sharing (ShowID, TicketCategoryID).
type TicketLine struct {
	ShowID           string          `json:"show_id"`
	TicketCategoryID string          `json:"ticket_category_id"`
	SeatID           string          `json:"seat_id,omitempty"`
	SeatLabel        string          `json:"seat_label,omitempty"`
	Price            decimal.Decimal `json:"price"`
	AudienceID       string          `json:"audience_id,omitempty"`
	AudienceName     string          `json:"audience_name,omitempty"`
	Holder           *Holder         `json:"holder,omitempty"`
}

// ConcessionLine holds Quantity > 0 by invariant; a zero-quantity line is
// removed from the draft, never kept.
type ConcessionLine struct {
	ShowID       string          `json:"show_id"`
	ConcessionID string          `json:"concession_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

// OrderDraft is the in-memory, not-yet-submitted purchase. It is owned by
// the checkout session and mutated only through the selection engine; it is
// discarded after submission, never persisted.
type OrderDraft struct {
	Customer      Customer         `json:"customer"`
	Tickets       []TicketLine     `json:"tickets"`
	Concessions   []ConcessionLine `json:"concessions"`
	QROption      QROption         `json:"qr_option"`
	PaymentMethod string           `json:"payment_method"`
	ExtraFee      decimal.Decimal  `json:"extra_fee"`
	Answers       map[string]any   `json:"answers,omitempty"`
}

func NewOrderDraft() *OrderDraft {
	return &OrderDraft{
		QROption: QRShared,
		ExtraFee: decimal.Zero,
		Answers:  map[string]any{},
	}
}

// Clone deep-copies the draft so engine operations can build a new draft
// without touching the one currently visible to the session.
func (d *OrderDraft) Clone() *OrderDraft {
	out := *d

	out.Tickets = make([]TicketLine, len(d.Tickets))
	for i, t := range d.Tickets {
		if t.Holder != nil {
			h := *t.Holder
			t.Holder = &h
		}
		out.Tickets[i] = t
	}

	out.Concessions = make([]ConcessionLine, len(d.Concessions))
	copy(out.Concessions, d.Concessions)

	if d.Answers != nil {
		out.Answers = make(map[string]any, len(d.Answers))
		for k, v := range d.Answers {
			out.Answers[k] = v
		}
	}

	return &out
}

// TicketCount is the total number of ticket lines across all shows.
func (d *OrderDraft) TicketCount() int {
	return len(d.Tickets)
}

// CountForShow counts ticket lines belonging to one show.
func (d *OrderDraft) CountForShow(showID string) int {
	count := 0
	for _, t := range d.Tickets {
		if t.ShowID == showID {
			count++
		}
	}
	return count
}

// CountForCategory counts ticket lines for one (show, category) pair.
func (d *OrderDraft) CountForCategory(showID, categoryID string) int {
	count := 0
	for _, t := range d.Tickets {
		if t.ShowID == showID && t.TicketCategoryID == categoryID {
			count++
		}
	}
	return count
}

// Subtotal is the sum of ticket and concession line amounts before any
// voucher discount and extra fee.
func (d *OrderDraft) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range d.Tickets {
		total = total.Add(t.Price)
	}
	for _, c := range d.Concessions {
		total = total.Add(c.Price.Mul(decimal.NewFromInt(int64(c.Quantity))))
	}
	return total
}

// TicketSubtotal sums ticket lines only; vouchers never discount
// concessions.
func (d *OrderDraft) TicketSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range d.Tickets {
		total = total.Add(t.Price)
	}
	return total
}

// PendingSeat is a seat whose category offers more than one active
// audience. The seat is not part of the draft until the audience prompt
// resolves; cancelling the prompt discards it with no draft change.
type PendingSeat struct {
	ShowID    string     `json:"show_id"`
	Seat      Seat       `json:"seat"`
	Audiences []Audience `json:"audiences"`
}
