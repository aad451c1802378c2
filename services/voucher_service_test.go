package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-checkout/models"
)

func ticketLines(prices ...int64) []models.TicketLine {
	lines := make([]models.TicketLine, len(prices))
	for i, p := range prices {
		lines[i] = models.TicketLine{
			ShowID:           "show1",
			TicketCategoryID: "cat-standard",
			Price:            decimal.NewFromInt(p),
		}
	}
	return lines
}

func TestEvaluate_NilVoucher(t *testing.T) {
	service := NewVoucherService()

	res := service.Evaluate(nil, ticketLines(100))
	assert.False(t, res.Valid)
	assert.Equal(t, "no voucher applied", res.Message)
	assert.True(t, res.Discount.IsZero())
}

func TestEvaluate_ValidationOrder(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:               "SAVE10",
		DiscountType:       models.DiscountPercentage,
		DiscountValue:      decimal.NewFromInt(10),
		ApplicationType:    models.ApplyTotalOrder,
		TicketCategories:   []string{"cat-vip"},
		MinTicketsRequired: 2,
		MaxTicketsAllowed:  3,
	}

	// scope failure wins over min-tickets even though both fail
	res := service.Evaluate(voucher, ticketLines(100))
	assert.False(t, res.Valid)
	assert.Equal(t, "no tickets in this voucher's scope", res.Message)

	// in scope but below the minimum
	vip := []models.TicketLine{{TicketCategoryID: "cat-vip", Price: decimal.NewFromInt(300)}}
	res = service.Evaluate(voucher, vip)
	assert.False(t, res.Valid)
	assert.Equal(t, "requires at least 2 eligible tickets", res.Message)

	// above the maximum
	four := make([]models.TicketLine, 4)
	for i := range four {
		four[i] = vip[0]
	}
	res = service.Evaluate(voucher, four)
	assert.False(t, res.Valid)
	assert.Equal(t, "allows at most 3 eligible tickets", res.Message)
}

func TestEvaluate_InvalidVoucherKeepsZeroDiscount(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:               "BULK",
		DiscountType:       models.DiscountFixed,
		DiscountValue:      decimal.NewFromInt(50),
		ApplicationType:    models.ApplyTotalOrder,
		ApplyToAll:         true,
		MinTicketsRequired: 5,
	}

	res := service.Evaluate(voucher, ticketLines(100, 100))
	assert.False(t, res.Valid)
	assert.True(t, res.Discount.IsZero())
}

func TestEvaluate_PercentageTotalOrder(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:            "SAVE10",
		DiscountType:    models.DiscountPercentage,
		DiscountValue:   decimal.NewFromInt(10),
		ApplicationType: models.ApplyTotalOrder,
		ApplyToAll:      true,
	}

	res := service.Evaluate(voucher, ticketLines(100, 200))
	require.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(30)), "got %s", res.Discount)
}

func TestEvaluate_FixedTotalOrderCappedAtSubtotal(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:            "BIG",
		DiscountType:    models.DiscountFixed,
		DiscountValue:   decimal.NewFromInt(500),
		ApplicationType: models.ApplyTotalOrder,
		ApplyToAll:      true,
	}

	res := service.Evaluate(voucher, ticketLines(100, 100))
	require.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(200)))
}

func TestEvaluate_PerTicketFixedCappedAtTicketPrice(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:            "PERTICKET",
		DiscountType:    models.DiscountFixed,
		DiscountValue:   decimal.NewFromInt(60),
		ApplicationType: models.ApplyPerTicket,
		ApplyToAll:      true,
	}

	// 60 off the 100 ticket, but only 50 off the 50 ticket
	res := service.Evaluate(voucher, ticketLines(100, 50))
	require.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(110)), "got %s", res.Discount)
}

func TestEvaluate_PerTicketMaxTicketsToDiscount(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:                 "FIRST2",
		DiscountType:         models.DiscountPercentage,
		DiscountValue:        decimal.NewFromInt(50),
		ApplicationType:      models.ApplyPerTicket,
		ApplyToAll:           true,
		MaxTicketsToDiscount: 2,
	}

	// only the first two lines in order are discounted
	res := service.Evaluate(voucher, ticketLines(100, 200, 400))
	require.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(150)), "got %s", res.Discount)
}

func TestEvaluate_ScopeFiltersCategories(t *testing.T) {
	service := NewVoucherService()
	voucher := &models.Voucher{
		Code:             "VIPONLY",
		DiscountType:     models.DiscountPercentage,
		DiscountValue:    decimal.NewFromInt(10),
		ApplicationType:  models.ApplyTotalOrder,
		TicketCategories: []string{"cat-vip"},
	}

	tickets := []models.TicketLine{
		{TicketCategoryID: "cat-standard", Price: decimal.NewFromInt(100)},
		{TicketCategoryID: "cat-vip", Price: decimal.NewFromInt(300)},
	}

	res := service.Evaluate(voucher, tickets)
	require.True(t, res.Valid)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(30)))
}

func TestFinalTotal_FlooredAtZero(t *testing.T) {
	total := FinalTotal(decimal.NewFromInt(100), decimal.NewFromInt(5), decimal.NewFromInt(30))
	assert.True(t, total.Equal(decimal.NewFromInt(75)))

	total = FinalTotal(decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(50))
	assert.True(t, total.IsZero())
}
