// Package api is the thin HTTP client the field CLI uses to talk to the
// expensesync server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfield/expensesync/internal/common"
)

// Client talks JSON to the server API. The zero value is not usable;
// construct with New. Token management is the caller's concern: SetToken
// after login, ClearToken on logout.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SetToken(token string) { c.token = token }
func (c *Client) ClearToken()           { c.token = "" }
func (c *Client) HasToken() bool        { return c.token != "" }

// Ping probes server reachability. Used as the connectivity signal by the
// sync trigger controller.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/api/register", body, nil)
}

// Login authenticates and stores the session token on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// PresignedUpload is the server's answer to a presign request.
type PresignedUpload struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	PublicURL string `json:"public_url"`
}

func (c *Client) PresignReceipt(ctx context.Context, projectID, contentType string) (*PresignedUpload, error) {
	body := map[string]string{"project_id": projectID, "content_type": contentType}
	resp := &PresignedUpload{}
	if err := c.doJSON(ctx, http.MethodPost, "/api/uploads/presign", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ExpenseRecord is the payload for inserting one remote expense record.
type ExpenseRecord struct {
	ProjectID   string `json:"project_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	VendorName  string `json:"vendor_name"`
	Category    string `json:"category"`
	ExpenseDate string `json:"expense_date"`
	ReceiptKey  string `json:"receipt_key"`
}

func (c *Client) CreateExpense(ctx context.Context, record *ExpenseRecord) error {
	return c.doJSON(ctx, http.MethodPost, "/api/expenses", record, nil)
}

// Extraction mirrors the server's normalized OCR response.
type Extraction struct {
	ExpenseDate string           `json:"expense_date"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency"`
	VendorName  string           `json:"vendor_name"`
	Category    string           `json:"category"`
}

func (c *Client) ExtractReceipt(ctx context.Context, imageBase64, mimeType string) (*Extraction, error) {
	body := map[string]string{"imageBase64": imageBase64, "mimeType": mimeType}
	resp := &Extraction{}
	if err := c.doJSON(ctx, http.MethodPost, "/api/ocr/extract", body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return common.ErrorForbidden
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s %s: %s", method, path, apiError(raw, resp.Status))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError pulls the server's error field out of a failure body, falling
// back to the HTTP status line.
func apiError(raw []byte, status string) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return status
}
