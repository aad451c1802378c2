package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderDraftClone_IsDeep(t *testing.T) {
	draft := NewOrderDraft()
	draft.Tickets = []TicketLine{
		{ShowID: "show1", TicketCategoryID: "cat-a", Price: decimal.NewFromInt(100),
			Holder: &Holder{Name: "Original"}},
	}
	draft.Concessions = []ConcessionLine{
		{ShowID: "show1", ConcessionID: "con-1", Quantity: 1, Price: decimal.NewFromInt(10)},
	}
	draft.Answers["q1"] = "yes"

	clone := draft.Clone()
	clone.Tickets[0].Holder.Name = "Changed"
	clone.Concessions[0].Quantity = 9
	clone.Answers["q1"] = "no"

	assert.Equal(t, "Original", draft.Tickets[0].Holder.Name)
	assert.Equal(t, 1, draft.Concessions[0].Quantity)
	assert.Equal(t, "yes", draft.Answers["q1"])
}

func TestOrderDraftCounts(t *testing.T) {
	draft := NewOrderDraft()
	draft.Tickets = []TicketLine{
		{ShowID: "show1", TicketCategoryID: "cat-a"},
		{ShowID: "show1", TicketCategoryID: "cat-a"},
		{ShowID: "show1", TicketCategoryID: "cat-b"},
		{ShowID: "show2", TicketCategoryID: "cat-a"},
	}

	assert.Equal(t, 4, draft.TicketCount())
	assert.Equal(t, 3, draft.CountForShow("show1"))
	assert.Equal(t, 2, draft.CountForCategory("show1", "cat-a"))
	assert.Equal(t, 0, draft.CountForCategory("show2", "cat-b"))
}

func TestOrderDraftSubtotals(t *testing.T) {
	draft := NewOrderDraft()
	draft.Tickets = []TicketLine{
		{Price: decimal.NewFromInt(100)},
		{Price: decimal.NewFromInt(250)},
	}
	draft.Concessions = []ConcessionLine{
		{Quantity: 3, Price: decimal.NewFromInt(20)},
	}

	assert.True(t, draft.TicketSubtotal().Equal(decimal.NewFromInt(350)))
	assert.True(t, draft.Subtotal().Equal(decimal.NewFromInt(410)))
}

func TestTicketCategoryStock(t *testing.T) {
	category := TicketCategory{
		Quantity: 10,
		Sold:     8,
		Status:   CategoryStatusOnSale,
	}
	assert.Equal(t, 2, category.RemainingStock())
	assert.True(t, category.Purchasable())

	category.Sold = 12 // backend oversold
	assert.Equal(t, 0, category.RemainingStock())
	assert.False(t, category.Purchasable())

	category.Sold = 0
	category.Disabled = true
	assert.False(t, category.Purchasable())
}

func TestEnabledAudiences(t *testing.T) {
	category := TicketCategory{
		Audiences: []Audience{
			{ID: "a1", Enabled: true},
			{ID: "a2", Enabled: false},
			{ID: "a3", Enabled: true},
		},
	}

	enabled := category.EnabledAudiences()
	require.Len(t, enabled, 2)
	assert.Equal(t, "a1", enabled[0].ID)
	assert.Equal(t, "a3", enabled[1].ID)
}

func TestSeatLabel(t *testing.T) {
	seat := Seat{ID: "s1", Row: "A", Number: 12}
	assert.Equal(t, "A-12", seat.Label())

	unlabeled := Seat{ID: "s2"}
	assert.Equal(t, "s2", unlabeled.Label())
}

func TestConcessionEffectivePrice(t *testing.T) {
	concession := ShowConcession{Price: decimal.NewFromInt(30)}
	assert.True(t, concession.EffectivePrice().Equal(decimal.NewFromInt(30)))

	override := decimal.NewFromInt(25)
	concession.PriceOverride = &override
	assert.True(t, concession.EffectivePrice().Equal(override))
}

func TestVoucherCovers(t *testing.T) {
	scoped := Voucher{TicketCategories: []string{"cat-a", "cat-b"}}
	assert.True(t, scoped.Covers("cat-a"))
	assert.False(t, scoped.Covers("cat-c"))

	all := Voucher{ApplyToAll: true}
	assert.True(t, all.Covers("anything"))
}

func TestAvatarRefStates(t *testing.T) {
	assert.True(t, AvatarRef{}.IsZero())
	assert.False(t, AvatarRef{}.Pending())

	staged := AvatarRef{LocalBlob: "blob1"}
	assert.True(t, staged.Pending())
	assert.False(t, staged.IsZero())

	uploaded := AvatarRef{Remote: "https://cdn.example.com/a.jpg"}
	assert.False(t, uploaded.Pending())
}
