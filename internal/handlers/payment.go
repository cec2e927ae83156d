package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/paystack"
)

type verifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// VerifyPayment confirms a payment reference against Paystack. The provider's
// raw response rides along on failure so support can diagnose declined or
// reversed transactions.
func VerifyPayment(verifier PaymentVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /verify-payment"
		defer handlePanic(c, route)

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "missing reference")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
		defer cancel()

		tx, err := verifier.VerifyTransaction(ctx, req.Reference)
		if err != nil {
			if errors.Is(err, paystack.ErrSecretMissing) {
				respondWithError(c, http.StatusInternalServerError, route, "paystack secret not configured")
				return
			}
			var verr *paystack.VerificationError
			if errors.As(err, &verr) {
				status := http.StatusBadGateway
				if verr.Status != "" {
					status = http.StatusBadRequest
				}
				body := gin.H{"ok": false, "error": "payment not successful"}
				if len(verr.Raw) > 0 {
					body["details"] = json.RawMessage(verr.Raw)
				}
				c.AbortWithStatusJSON(status, body)
				return
			}
			respondWithError(c, http.StatusBadGateway, route, "verification failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "data": tx})
	}
}
