package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"event-checkout/internal/services/ticketing"
	"event-checkout/internal/status"
	"event-checkout/models"
	"event-checkout/monitoring"
	"event-checkout/utils"
)

// SubmissionService turns a finished order draft into the backend's
// transaction-creation payload and posts it exactly once per confirmation.
// Staged avatars are uploaded first (concurrently); a failed upload drops
// the avatar rather than the submission. Only the final POST can abort the
// flow, and it leaves the draft intact for retry.
type SubmissionService struct {
	client   *ticketing.Client
	vouchers *VoucherService
	notifier Notifier
}

func NewSubmissionService(client *ticketing.Client, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		client:   client,
		vouchers: NewVoucherService(),
		notifier: notifier,
	}
}

// Submit runs the full submission sequence for a session and returns the
// created transaction. The session draft is only discarded by the caller
// after success.
func (s *SubmissionService) Submit(ctx context.Context, session *CheckoutSession) (*ticketing.TransactionReply, error) {
	started := time.Now()

	session.mu.Lock()
	draft := session.draft.Clone()
	voucher := session.voucher
	blobs := make(map[string]StagedBlob, len(session.blobs))
	for id, blob := range session.blobs {
		blobs[id] = blob
	}
	session.mu.Unlock()

	s.resolveAvatars(ctx, draft, blobs)

	voucherCode := ""
	if res := s.vouchers.Evaluate(voucher, draft.Tickets); res.Valid {
		voucherCode = voucher.Code
	}

	payload := BuildPayload(draft, voucherCode)

	reply, err := s.client.CreateTransaction(ctx, session.EventID, payload)
	if err != nil {
		monitoring.TrackOperation("submit", "error")
		s.notifier.Error(session.ID, err.Error(), nil)
		return nil, err
	}

	monitoring.TrackOperation("submit", "ok")
	monitoring.TrackSubmission(time.Since(started))
	s.notifier.Success(session.ID, "order submitted", map[string]any{
		"transaction_id": reply.ID,
	})
	return reply, nil
}

// resolveAvatars uploads every still-pending avatar through the presigned
// url flow, concurrently across holders and the buyer. A failed upload
// clears the reference so the field is omitted from the payload.
func (s *SubmissionService) resolveAvatars(ctx context.Context, draft *models.OrderDraft, blobs map[string]StagedBlob) {
	var wg sync.WaitGroup

	resolve := func(ref *models.AvatarRef) {
		defer wg.Done()
		url, err := s.uploadBlob(ctx, *ref, blobs)
		if err != nil {
			log.Printf("avatar upload failed, omitting: %v", err)
			*ref = models.AvatarRef{}
			return
		}
		*ref = models.AvatarRef{Remote: url}
	}

	if draft.Customer.Avatar.Pending() {
		wg.Add(1)
		go resolve(&draft.Customer.Avatar)
	}
	for i := range draft.Tickets {
		if draft.Tickets[i].Holder != nil && draft.Tickets[i].Holder.Avatar.Pending() {
			wg.Add(1)
			go resolve(&draft.Tickets[i].Holder.Avatar)
		}
	}

	wg.Wait()
}

func (s *SubmissionService) uploadBlob(ctx context.Context, ref models.AvatarRef, blobs map[string]StagedBlob) (string, error) {
	blob, ok := blobs[ref.LocalBlob]
	if !ok {
		return "", fmt.Errorf("uploadBlob %s: %w", ref.LocalBlob, status.ErrBlobNotFound)
	}

	presignedURL, fileURL, err := s.client.GeneratePresignedURL(ctx, ref.LocalBlob, blob.ContentType)
	if err != nil {
		return "", err
	}
	if err := s.client.UploadToPresignedURL(ctx, presignedURL, blob.Data, blob.ContentType); err != nil {
		return "", err
	}
	return fileURL, nil
}

// BuildPayload assembles the transaction-creation request from a draft
// whose avatars are already resolved. Phone numbers are joined into
// international format here; everything else maps one to one.
func BuildPayload(draft *models.OrderDraft, voucherCode string) *ticketing.TransactionRequest {
	req := &ticketing.TransactionRequest{
		Customer: ticketing.CustomerPayload{
			Title:   draft.Customer.Title,
			Name:    draft.Customer.Name,
			Email:   draft.Customer.Email,
			Phone:   utils.NormalizePhone(draft.Customer.Phone.CountryCode, draft.Customer.Phone.National),
			Address: draft.Customer.Address,
			DOB:     draft.Customer.DOB,
			IDCard:  draft.Customer.IDCard,
			Avatar:  draft.Customer.Avatar.Remote,
		},
		PaymentMethod: draft.PaymentMethod,
		ExtraFee:      draft.ExtraFee,
		QROption:      string(draft.QROption),
		VoucherCode:   voucherCode,
	}

	req.Tickets = make([]ticketing.TicketPayload, len(draft.Tickets))
	for i, t := range draft.Tickets {
		ticket := ticketing.TicketPayload{
			ShowID:           t.ShowID,
			TicketCategoryID: t.TicketCategoryID,
			SeatID:           t.SeatID,
			SeatLabel:        t.SeatLabel,
			Price:            t.Price,
			AudienceID:       t.AudienceID,
			AudienceName:     t.AudienceName,
		}
		if t.Holder != nil {
			ticket.Holder = &ticketing.HolderPayload{
				Name:   t.Holder.Name,
				Email:  t.Holder.Email,
				Phone:  utils.NormalizePhone(t.Holder.Phone.CountryCode, t.Holder.Phone.National),
				Avatar: t.Holder.Avatar.Remote,
			}
		}
		req.Tickets[i] = ticket
	}

	for _, c := range draft.Concessions {
		req.Concessions = append(req.Concessions, ticketing.ConcessionPayload{
			ShowID:       c.ShowID,
			ConcessionID: c.ConcessionID,
			Quantity:     c.Quantity,
			Price:        c.Price,
		})
	}

	for field, value := range draft.Answers {
		req.Answers = append(req.Answers, ticketing.AnswerPayload{Field: field, Value: value})
	}

	return req
}
