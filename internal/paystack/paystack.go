package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// ErrSecretMissing means the server has no Paystack secret key. Verification
// cannot run without it, so the whole verified-payment path must fail.
var ErrSecretMissing = errors.New("paystack secret key not configured")

var ErrEmptyReference = errors.New("payment reference is required")

// VerificationError reports a reference that Paystack did not confirm as a
// successful transaction. Raw carries the provider body for diagnostics.
type VerificationError struct {
	Reference string
	Status    string
	Raw       json.RawMessage
}

func (e *VerificationError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("payment %s not successful (status %q)", e.Reference, e.Status)
	}
	return fmt.Sprintf("payment %s could not be verified", e.Reference)
}

// Transaction is the subset of Paystack's verify response the order flow needs.
// Amount is in kobo.
type Transaction struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type verifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	secret  string
	baseURL string
	http    *http.Client
}

func New(secret string) *Client {
	return &Client{
		secret:  strings.TrimSpace(secret),
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithBaseURL exists for tests that point the client at a stub server.
func NewWithBaseURL(secret, baseURL string) *Client {
	c := New(secret)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.secret != ""
}

// VerifyTransaction asks Paystack whether reference belongs to a completed,
// successful transaction. Any outcome other than a confirmed success returns
// an error; a timeout counts as failure (no order may be created on it).
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrEmptyReference
	}
	if !c.Configured() {
		return nil, ErrSecretMissing
	}

	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack verify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("paystack verify read failed: %w", err)
	}

	var envelope verifyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &VerificationError{Reference: reference, Raw: body}
	}
	if resp.StatusCode != http.StatusOK || !envelope.Status {
		return nil, &VerificationError{Reference: reference, Raw: body}
	}

	var tx Transaction
	if err := json.Unmarshal(envelope.Data, &tx); err != nil {
		return nil, &VerificationError{Reference: reference, Raw: body}
	}
	if tx.Status != "success" {
		return nil, &VerificationError{Reference: reference, Status: tx.Status, Raw: body}
	}

	return &tx, nil
}
