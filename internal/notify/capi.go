package notify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"backend/internal/models"
)

const capiBaseURL = "https://graph.facebook.com/v18.0"

// PurchaseEvent is one conversion reported to the Facebook Conversions API.
// Email and Phone are raw values; they are hashed before leaving the process.
// EventID deduplicates redelivery against the browser pixel's matching event.
type PurchaseEvent struct {
	Value      float64
	Currency   string
	ContentIDs []string
	EventID    string
	Email      string
	Phone      string
	Reference  string
}

func newEventID() string {
	return uuid.NewString()
}

// PurchaseEventFromOrder derives the attribution event fired on order creation.
func PurchaseEventFromOrder(order *models.Order) PurchaseEvent {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, strconv.FormatInt(item.ProductID, 10))
	}
	return PurchaseEvent{
		Value:      order.TotalAmount,
		Currency:   "NGN",
		ContentIDs: ids,
		EventID:    newEventID(),
		Email:      order.CustomerEmail,
		Phone:      order.CustomerPhone,
		Reference:  order.PaymentReference,
	}
}

type capiClient struct {
	pixelID     string
	accessToken string
	baseURL     string
	http        *http.Client
}

func newCAPIClient(pixelID, accessToken string) *capiClient {
	return &capiClient{
		pixelID:     pixelID,
		accessToken: accessToken,
		baseURL:     capiBaseURL,
		http:        &http.Client{Timeout: sendTimeout},
	}
}

// hashIdentifier normalizes then hashes a contact field the way the
// Conversions API expects: trimmed, lower-cased, SHA-256 hex. A value that is
// already a 64-char hex digest (pre-hashed by the relay caller) passes through.
func hashIdentifier(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	if isHexDigest(normalized) {
		return normalized
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	if _, err := hex.DecodeString(s); err != nil {
		return false
	}
	return true
}

// normalizePhone keeps digits only before hashing, per CAPI phone matching.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *capiClient) sendPurchase(ctx context.Context, ev PurchaseEvent) error {
	userData := map[string]any{}
	if h := hashIdentifier(ev.Email); h != "" {
		userData["em"] = []string{h}
	}
	if h := hashIdentifier(normalizePhone(ev.Phone)); h != "" {
		userData["ph"] = []string{h}
	}

	customData := map[string]any{
		"value":        ev.Value,
		"currency":     ev.Currency,
		"content_ids":  ev.ContentIDs,
		"content_type": "product",
	}
	if ev.Reference != "" {
		customData["order_id"] = ev.Reference
	}

	payload, err := json.Marshal(map[string]any{
		"data": []map[string]any{{
			"event_name":    "Purchase",
			"event_time":    time.Now().Unix(),
			"event_id":      ev.EventID,
			"action_source": "website",
			"user_data":     userData,
			"custom_data":   customData,
		}},
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s", c.baseURL, c.pixelID, url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("capi returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
