package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
	"backend/internal/notify"
)

type notifyRequest struct {
	Type    string        `json:"type" binding:"required"`
	Order   *models.Order `json:"order"`
	Phone   string        `json:"phone"`
	Message string        `json:"message"`
}

// Notify re-triggers confirmation messages for an order, or sends a one-off
// SMS. Dispatch is queued; the response never waits on a provider.
func Notify(notifier OrderNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /notify"
		defer handlePanic(c, route)

		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid payload")
			return
		}

		switch req.Type {
		case "order":
			if req.Order == nil {
				respondWithError(c, http.StatusBadRequest, route, "order is required")
				return
			}
			notifier.NotifyOrder(req.Order)
			c.JSON(http.StatusOK, gin.H{"ok": true})

		case "sms":
			phone := strings.TrimSpace(req.Phone)
			if phone == "" || strings.TrimSpace(req.Message) == "" {
				respondWithError(c, http.StatusBadRequest, route, "phone and message are required")
				return
			}
			if !notifier.SMSConfigured() {
				respondWithError(c, http.StatusInternalServerError, route, "SMS provider not configured")
				return
			}
			notifier.SendSMS(phone, req.Message)
			c.JSON(http.StatusOK, gin.H{"ok": true})

		default:
			respondWithError(c, http.StatusBadRequest, route, "invalid payload")
		}
	}
}

type capiRequest struct {
	Value      float64  `json:"value" binding:"required"`
	Currency   string   `json:"currency"`
	ContentIDs []string `json:"content_ids"`
	EventID    string   `json:"event_id"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Reference  string   `json:"reference"`
}

// FacebookCAPI relays a purchase conversion to the attribution API. Contact
// fields may arrive plain or pre-hashed; plain values are hashed before
// transmission and never forwarded raw.
func FacebookCAPI(notifier OrderNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /fb-capi"
		defer handlePanic(c, route)

		var req capiRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid payload")
			return
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = "NGN"
		}

		notifier.SendPurchaseEvent(notify.PurchaseEvent{
			Value:      req.Value,
			Currency:   currency,
			ContentIDs: req.ContentIDs,
			EventID:    strings.TrimSpace(req.EventID),
			Email:      req.Email,
			Phone:      req.Phone,
			Reference:  strings.TrimSpace(req.Reference),
		})

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
