package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"backend/internal/models"
)

const atBaseURL = "https://api.africastalking.com"

type atClient struct {
	apiKey   string
	username string
	senderID string
	baseURL  string
	http     *http.Client
}

func newATClient(apiKey, username, senderID string) *atClient {
	return &atClient{
		apiKey:   apiKey,
		username: username,
		senderID: senderID,
		baseURL:  atBaseURL,
		http:     &http.Client{Timeout: sendTimeout},
	}
}

func orderSMS(order *models.Order) string {
	return fmt.Sprintf(
		"Thank you for your order! Your payment of ₦%.0f has been confirmed. Reference: %s. We'll contact you soon for delivery details.",
		order.TotalAmount, order.PaymentReference,
	)
}

func (c *atClient) send(ctx context.Context, phone, message string) error {
	form := url.Values{
		"username": {c.username},
		"to":       {phone},
		"message":  {message},
		"from":     {c.senderID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("africastalking returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
