package ticketing

import (
	"github.com/shopspring/decimal"
)

// TransactionRequest is the payload of the transaction-creation endpoint.
// It is assembled by the submission service from a finished order draft;
// every avatar must already be a durable URL and every phone an
// international-format string by the time it is built.
type TransactionRequest struct {
	Customer      CustomerPayload     `json:"customer"`
	Tickets       []TicketPayload     `json:"tickets"`
	Concessions   []ConcessionPayload `json:"concessions,omitempty"`
	PaymentMethod string              `json:"payment_method"`
	ExtraFee      decimal.Decimal     `json:"extra_fee"`
	QROption      string              `json:"qr_option"`
	VoucherCode   string              `json:"voucher_code,omitempty"`
	Answers       []AnswerPayload     `json:"answers,omitempty"`
}

type CustomerPayload struct {
	Title   string `json:"title,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	DOB     string `json:"dob,omitempty"`
	IDCard  string `json:"idcard,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
}

type TicketPayload struct {
	ShowID           string          `json:"show_id"`
	TicketCategoryID string          `json:"ticket_category_id"`
	SeatID           string          `json:"seat_id,omitempty"`
	SeatLabel        string          `json:"seat_label,omitempty"`
	Price            decimal.Decimal `json:"price"`
	AudienceID       string          `json:"audience_id,omitempty"`
	AudienceName     string          `json:"audience_name,omitempty"`
	Holder           *HolderPayload  `json:"holder,omitempty"`
}

type HolderPayload struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type ConcessionPayload struct {
	ShowID       string          `json:"show_id"`
	ConcessionID string          `json:"concession_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

type AnswerPayload struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// TransactionReply is the backend's answer to a created transaction. A
// non-empty PaymentCheckoutURL means the buyer must be redirected there to
// finish paying.
type TransactionReply struct {
	ID                 string `json:"id"`
	PaymentCheckoutURL string `json:"payment_checkout_url,omitempty"`
}

// PaymentNotification is pushed by the payment channel once an offsite
// checkout completes or fails.
type PaymentNotification struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}
