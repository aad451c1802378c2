package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"event-checkout/models"
)

type ClientConfig struct {
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`
	APIKey  string `json:"apiKey" mapstructure:"api_key"`
}

// Client talks to the ticketing backend's JSON API. It owns no state
// beyond the connection settings; callers decide what to do with failures
// (no automatic retry, per the platform's error policy).
type Client struct {
	// baseURL is the base url of the ticketing backend.
	baseURL string

	// apiKey authenticates this service with the backend.
	apiKey string

	// hc is the http client.
	hc *http.Client
}

func NewClient(c *ClientConfig) *Client {
	return &Client{
		baseURL: c.BaseURL,
		apiKey:  c.APIKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetCheckoutInfo fetches the catalog snapshot a new checkout session works
// against: shows, categories, concessions, seat layout, form fields and
// purchase limits.
func (c *Client) GetCheckoutInfo(ctx context.Context, eventID string) (*models.CatalogSnapshot, error) {
	var snapshot models.CatalogSnapshot
	path := fmt.Sprintf("/events/%s/transactions/get-info-to-create-transaction", url.PathEscape(eventID))
	if err := c.getJSON(ctx, path, &snapshot); err != nil {
		return nil, fmt.Errorf("getCheckoutInfo: %w", err)
	}
	return &snapshot, nil
}

// GetShowSeats fetches the current seat statuses for one show.
func (c *Client) GetShowSeats(ctx context.Context, eventID, showID string) ([]models.Seat, error) {
	var reply struct {
		Seats []models.Seat `json:"seats"`
	}
	path := fmt.Sprintf("/events/%s/transactions/shows/%s/seats", url.PathEscape(eventID), url.PathEscape(showID))
	if err := c.getJSON(ctx, path, &reply); err != nil {
		return nil, fmt.Errorf("getShowSeats: %w", err)
	}
	return reply.Seats, nil
}

// GetPublicVouchers lists the voucher campaigns publicly applicable to the
// event.
func (c *Client) GetPublicVouchers(ctx context.Context, eventID string) ([]models.Voucher, error) {
	var reply struct {
		Vouchers []models.Voucher `json:"vouchers"`
	}
	path := fmt.Sprintf("/events/%s/voucher-campaigns/public/available", url.PathEscape(eventID))
	if err := c.getJSON(ctx, path, &reply); err != nil {
		return nil, fmt.Errorf("getPublicVouchers: %w", err)
	}
	return reply.Vouchers, nil
}

// ValidateVoucher resolves a voucher code to its definition, or fails with
// the backend's message when the code is unknown or exhausted.
func (c *Client) ValidateVoucher(ctx context.Context, eventID, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	path := fmt.Sprintf("/events/%s/voucher-campaigns/validate-voucher?code=%s", url.PathEscape(eventID), url.QueryEscape(code))
	if err := c.getJSON(ctx, path, &voucher); err != nil {
		return nil, fmt.Errorf("validateVoucher: %w", err)
	}
	return &voucher, nil
}

// GeneratePresignedURL asks the backend for a direct-to-storage upload
// target. The caller PUTs the file to presignedUrl and keeps fileUrl as the
// durable reference.
func (c *Client) GeneratePresignedURL(ctx context.Context, filename, contentType string) (presignedURL, fileURL string, err error) {
	body := map[string]string{
		"filename":     filename,
		"content_type": contentType,
	}
	var reply struct {
		PresignedURL string `json:"presignedUrl"`
		FileURL      string `json:"fileUrl"`
	}
	if err := c.postJSON(ctx, "/common/s3/generate_presigned_url", body, &reply); err != nil {
		return "", "", fmt.Errorf("generatePresignedURL: %w", err)
	}
	return reply.PresignedURL, reply.FileURL, nil
}

// UploadToPresignedURL PUTs file bytes straight to object storage.
func (c *Client) UploadToPresignedURL(ctx context.Context, presignedURL string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("upload: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("upload: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// CreateTransaction posts the finished order. This is the only call that
// commits anything; everything before it is local and disposable.
func (c *Client) CreateTransaction(ctx context.Context, eventID string, txn *TransactionRequest) (*TransactionReply, error) {
	var reply TransactionReply
	path := fmt.Sprintf("/events/%s/transactions", url.PathEscape(eventID))
	if err := c.postJSON(ctx, path, txn, &reply); err != nil {
		return nil, fmt.Errorf("createTransaction: %w", err)
	}
	return &reply, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("http.NewReq: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("http.NewReq: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Surface the backend's own message when it sends one; the UI
		// shows it verbatim.
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("backend: %s", apiErr.Message)
		}
		return fmt.Errorf("backend: unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}
	return nil
}
