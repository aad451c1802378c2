package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Seatmap modes for a show. A show either sells undifferentiated
// category quantities or requires picking individual seats.
const (
	SeatmapModeNone       = "none"
	SeatmapModeSelectSeat = "select_seat"
)

const CategoryStatusOnSale = "on_sale"

// Seat statuses as reported by the ticketing backend.
const (
	SeatAvailable = "available"
	SeatSold      = "sold"
	SeatBlocked   = "blocked"
)

// CatalogSnapshot is the read-only reference tree a checkout session works
// against. It is fetched once when the session starts and never mutated.
type CatalogSnapshot struct {
	Event          Event               `json:"event"`
	Shows          []Show              `json:"shows"`
	CheckoutFields []CheckoutFormField `json:"checkout_fields"`
}

type Event struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	LimitPerTransaction int    `json:"limit_per_transaction"` // 0 = unlimited
	LimitPerCustomer    int    `json:"limit_per_customer"`    // 0 = unlimited
}

type Show struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	SeatmapMode         string           `json:"seatmap_mode"`
	LimitPerTransaction int              `json:"limit_per_transaction"`
	LimitPerCustomer    int              `json:"limit_per_customer"`
	TicketCategories    []TicketCategory `json:"ticket_categories"`
	Concessions         []ShowConcession `json:"concessions"`
	Seats               []Seat           `json:"seats"`
}

type TicketCategory struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	Sold                int             `json:"sold"`
	Status              string          `json:"status"` // on_sale, paused, sold_out
	Disabled            bool            `json:"disabled"`
	LimitPerTransaction int             `json:"limit_per_transaction"`
	LimitPerCustomer    int             `json:"limit_per_customer"`
	Audiences           []Audience      `json:"audiences,omitempty"`
}

// Audience is a named price tier within a category (Adult/Child),
// selectable at seat-assignment time.
type Audience struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Enabled bool            `json:"enabled"`
}

type ShowConcession struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

type Seat struct {
	ID               string `json:"id"`
	TicketCategoryID string `json:"ticket_category_id"`
	Row              string `json:"row"`
	Number           int    `json:"number"`
	Section          string `json:"section"`
	Status           string `json:"status"`
}

// CheckoutFormField describes one field of the organizer-configured buyer
// form. Builtin fields map onto Customer; the rest are free-form answers.
type CheckoutFormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"` // text, email, phone, date, select, checkbox
	Builtin  bool   `json:"builtin"`
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
}

func (s *CatalogSnapshot) FindShow(showID string) *Show {
	for i := range s.Shows {
		if s.Shows[i].ID == showID {
			return &s.Shows[i]
		}
	}
	return nil
}

func (sh *Show) FindCategory(categoryID string) *TicketCategory {
	for i := range sh.TicketCategories {
		if sh.TicketCategories[i].ID == categoryID {
			return &sh.TicketCategories[i]
		}
	}
	return nil
}

func (sh *Show) FindConcession(concessionID string) *ShowConcession {
	for i := range sh.Concessions {
		if sh.Concessions[i].ID == concessionID {
			return &sh.Concessions[i]
		}
	}
	return nil
}

func (sh *Show) FindSeat(seatID string) *Seat {
	for i := range sh.Seats {
		if sh.Seats[i].ID == seatID {
			return &sh.Seats[i]
		}
	}
	return nil
}

// Seated reports whether tickets for this show must be bound to seats.
func (sh *Show) Seated() bool {
	return sh.SeatmapMode == SeatmapModeSelectSeat
}

// Purchasable reports whether the category can currently be added to an
// order: on sale, not disabled and not sold out.
func (c *TicketCategory) Purchasable() bool {
	return c.Status == CategoryStatusOnSale && !c.Disabled && c.Sold < c.Quantity
}

// RemainingStock never goes negative even if the backend reports
// sold > quantity.
func (c *TicketCategory) RemainingStock() int {
	if remaining := c.Quantity - c.Sold; remaining > 0 {
		return remaining
	}
	return 0
}

func (c *TicketCategory) EnabledAudiences() []Audience {
	var enabled []Audience
	for _, a := range c.Audiences {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	return enabled
}

// EffectivePrice is the show-level concession price with the optional
// override applied.
func (sc *ShowConcession) EffectivePrice() decimal.Decimal {
	if sc.PriceOverride != nil {
		return *sc.PriceOverride
	}
	return sc.Price
}

// Label renders the human seat label shown on tickets, e.g. "A-12".
func (s *Seat) Label() string {
	if s.Row == "" {
		return s.ID
	}
	return fmt.Sprintf("%s-%d", s.Row, s.Number)
}
