package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-checkout/internal/services/ticketing"
	"event-checkout/models"
)

func TestBuildPayload_MapsDraft(t *testing.T) {
	draft := models.NewOrderDraft()
	draft.Customer = models.Customer{
		Title:  "Mr",
		Name:   "Test Buyer",
		Email:  "buyer@example.com",
		Phone:  models.PhoneNumber{CountryCode: "+856", National: "020 5551 2345"},
		Avatar: models.AvatarRef{Remote: "https://cdn.example.com/a.jpg"},
	}
	draft.Tickets = []models.TicketLine{
		{
			ShowID:           "show1",
			TicketCategoryID: "cat-a",
			SeatID:           "s1",
			SeatLabel:        "A-1",
			Price:            decimal.NewFromInt(120),
			AudienceID:       "aud-adult",
			AudienceName:     "Adult",
			Holder: &models.Holder{
				Name:  "Attendee",
				Phone: models.PhoneNumber{CountryCode: "+66", National: "0812345678"},
			},
		},
	}
	draft.Concessions = []models.ConcessionLine{
		{ShowID: "show1", ConcessionID: "con-shirt", Quantity: 2, Price: decimal.NewFromInt(25)},
	}
	draft.QROption = models.QRSeparate
	draft.PaymentMethod = "card"
	draft.ExtraFee = decimal.NewFromInt(5)
	draft.Answers["shirt_size"] = "M"

	payload := BuildPayload(draft, "SAVE10")

	assert.Equal(t, "Test Buyer", payload.Customer.Name)
	assert.Equal(t, "+8562055512345", payload.Customer.Phone)
	assert.Equal(t, "https://cdn.example.com/a.jpg", payload.Customer.Avatar)
	assert.Equal(t, "card", payload.PaymentMethod)
	assert.Equal(t, "separate", payload.QROption)
	assert.Equal(t, "SAVE10", payload.VoucherCode)

	require.Len(t, payload.Tickets, 1)
	assert.Equal(t, "A-1", payload.Tickets[0].SeatLabel)
	assert.Equal(t, "aud-adult", payload.Tickets[0].AudienceID)
	require.NotNil(t, payload.Tickets[0].Holder)
	assert.Equal(t, "+66812345678", payload.Tickets[0].Holder.Phone)

	require.Len(t, payload.Concessions, 1)
	assert.Equal(t, 2, payload.Concessions[0].Quantity)

	require.Len(t, payload.Answers, 1)
	assert.Equal(t, "shirt_size", payload.Answers[0].Field)
}

// backendStub fakes the ticketing API endpoints submission touches.
type backendStub struct {
	failPresign bool
	captured    *ticketing.TransactionRequest
}

func (b *backendStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/common/s3/generate_presigned_url"):
			if b.failPresign {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"message": "storage unavailable"})
				return
			}
			scheme := "http://"
			json.NewEncoder(w).Encode(map[string]string{
				"presignedUrl": scheme + r.Host + "/upload/blob",
				"fileUrl":      "https://cdn.example.com/blob.jpg",
			})

		case strings.HasPrefix(r.URL.Path, "/upload/"):
			w.WriteHeader(http.StatusOK)

		case strings.HasSuffix(r.URL.Path, "/transactions"):
			var req ticketing.TransactionRequest
			json.NewDecoder(r.Body).Decode(&req)
			b.captured = &req
			json.NewEncoder(w).Encode(map[string]string{"id": "tx1"})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func submissionSession(blobs map[string]StagedBlob) *CheckoutSession {
	draft := models.NewOrderDraft()
	draft.Customer = models.Customer{
		Name:   "Test Buyer",
		Avatar: models.AvatarRef{LocalBlob: "blob1"},
	}
	draft.Tickets = []models.TicketLine{
		{ShowID: "show1", TicketCategoryID: "cat-a", Price: decimal.NewFromInt(100)},
	}
	draft.PaymentMethod = "card"

	return &CheckoutSession{
		ID:      "sess1",
		EventID: "evt1",
		draft:   draft,
		blobs:   blobs,
	}
}

func TestSubmit_UploadsAvatarThenPosts(t *testing.T) {
	stub := &backendStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := ticketing.NewClient(&ticketing.ClientConfig{BaseURL: srv.URL})
	service := NewSubmissionService(client, NopNotifier{})

	session := submissionSession(map[string]StagedBlob{
		"blob1": {Data: []byte("img"), ContentType: "image/jpeg"},
	})

	reply, err := service.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "tx1", reply.ID)

	require.NotNil(t, stub.captured)
	assert.Equal(t, "https://cdn.example.com/blob.jpg", stub.captured.Customer.Avatar)
}

func TestSubmit_AvatarFailureOmitsFieldNotOrder(t *testing.T) {
	stub := &backendStub{failPresign: true}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := ticketing.NewClient(&ticketing.ClientConfig{BaseURL: srv.URL})
	service := NewSubmissionService(client, NopNotifier{})

	session := submissionSession(map[string]StagedBlob{
		"blob1": {Data: []byte("img"), ContentType: "image/jpeg"},
	})

	reply, err := service.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "tx1", reply.ID)

	require.NotNil(t, stub.captured)
	assert.Empty(t, stub.captured.Customer.Avatar)
}

func TestSubmit_BackendFailureKeepsDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "tickets no longer available"})
	}))
	defer srv.Close()

	client := ticketing.NewClient(&ticketing.ClientConfig{BaseURL: srv.URL})
	service := NewSubmissionService(client, NopNotifier{})

	session := submissionSession(nil)
	session.draft.Customer.Avatar = models.AvatarRef{}

	_, err := service.Submit(context.Background(), session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tickets no longer available")

	// the draft survives so the buyer can retry
	assert.Len(t, session.draft.Tickets, 1)
}

func TestSubmit_InvalidVoucherNotForwarded(t *testing.T) {
	stub := &backendStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := ticketing.NewClient(&ticketing.ClientConfig{BaseURL: srv.URL})
	service := NewSubmissionService(client, NopNotifier{})

	session := submissionSession(nil)
	session.draft.Customer.Avatar = models.AvatarRef{}
	session.voucher = &models.Voucher{
		Code:               "SAVE10",
		DiscountType:       models.DiscountPercentage,
		DiscountValue:      decimal.NewFromInt(10),
		ApplyToAll:         true,
		MinTicketsRequired: 5, // draft only has one ticket
	}

	_, err := service.Submit(context.Background(), session)
	require.NoError(t, err)

	require.NotNil(t, stub.captured)
	assert.Empty(t, stub.captured.VoucherCode)
}
