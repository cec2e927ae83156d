package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"backend/internal/models"
)

const resendBaseURL = "https://api.resend.com"

type resendClient struct {
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
}

func newResendClient(apiKey, fromName, fromEmail string) *resendClient {
	return &resendClient{
		apiKey:  apiKey,
		from:    fmt.Sprintf("%s <%s>", fromName, fromEmail),
		baseURL: resendBaseURL,
		http:    &http.Client{Timeout: sendTimeout},
	}
}

type emailMessage struct {
	subject string
	html    string
}

func orderEmail(order *models.Order) emailMessage {
	var lines bytes.Buffer
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "<li>%s × %d — ₦%.0f</li>", item.ProductName, item.Quantity, item.Subtotal)
	}
	html := fmt.Sprintf(
		"<h2>Order Received</h2>"+
			"<p><strong>Order ID:</strong> %s</p>"+
			"<p><strong>Customer:</strong> %s (%s, %s)</p>"+
			"<p><strong>Address:</strong> %s</p>"+
			"<ul>%s</ul>"+
			"<p><strong>Total:</strong> ₦%.0f</p>"+
			"<p><strong>Payment Reference:</strong> %s</p>",
		order.ID.Hex(),
		order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.CustomerAddress,
		lines.String(),
		order.TotalAmount,
		order.PaymentReference,
	)
	return emailMessage{
		subject: fmt.Sprintf("Order #%s - SolarNaija", order.ID.Hex()),
		html:    html,
	}
}

func (c *resendClient) send(ctx context.Context, to []string, subject, html string) error {
	payload, err := json.Marshal(map[string]any{
		"from":    c.from,
		"to":      to,
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
