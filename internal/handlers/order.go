package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
	"backend/internal/paystack"
	"backend/internal/store"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderItemRequest struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type createOrderCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
}

type createOrderRequest struct {
	Customer         createOrderCustomerRequest `json:"customer" binding:"required"`
	Items            []createOrderItemRequest   `json:"items" binding:"required"`
	PaymentReference string                     `json:"paymentReference"`
	Verify           *bool                      `json:"verify"`
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

/* =========================
   CREATE ORDER
========================= */

// CreateOrder is the checkout orchestrator: validate, verify payment, persist
// exactly once per reference, fan out notifications, answer the caller.
// Notification outcome never changes the response.
func CreateOrder(orders OrderCreator, verifier PaymentVerifier, notifier OrderNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /create-order"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		customer, items, err := buildOrderInput(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		reference := strings.TrimSpace(req.PaymentReference)
		total := store.ComputeTotal(items)

		// Verification is on unless the caller explicitly opts out.
		shouldVerify := req.Verify == nil || *req.Verify
		if shouldVerify {
			tx, err := verifyReference(c.Request.Context(), verifier, reference)
			if err != nil {
				status, msg := verificationErrorResponse(err, reference)
				respondWithError(c, status, route, msg)
				return
			}
			// Paystack reports kobo; the catalog prices in naira. Round
			// rather than truncate: float totals can land a hair under
			// the true kobo value.
			if tx.Amount > 0 && tx.Amount != int64(math.Round(total*100)) {
				respondWithError(c, http.StatusBadRequest, route,
					fmt.Sprintf("payment amount mismatch for reference %s", reference))
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, created, err := orders.CreateOrder(ctx, customer, items, reference)
		if err != nil {
			// Payment may already be captured. Tell the user to contact
			// support with the reference, never to retry payment.
			respondWithError(c, http.StatusInternalServerError, route,
				fmt.Sprintf("order could not be saved; payment reference %s — do not retry payment, contact support", reference))
			return
		}

		if created {
			log.Printf("[%s] order %s created for reference %q", route, order.ID.Hex(), reference)
			notifier.OrderCreated(order)
			c.JSON(http.StatusOK, gin.H{"ok": true, "order": order})
			return
		}

		log.Printf("[%s] replay for reference %q, returning order %s", route, reference, order.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"ok": true, "order": order, "message": "existing"})
	}
}

func verifyReference(ctx context.Context, verifier PaymentVerifier, reference string) (*paystack.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	return verifier.VerifyTransaction(ctx, reference)
}

func verificationErrorResponse(err error, reference string) (int, string) {
	if errors.Is(err, paystack.ErrSecretMissing) {
		return http.StatusInternalServerError, "payment verification not configured"
	}
	if errors.Is(err, paystack.ErrEmptyReference) {
		return http.StatusBadRequest, "paymentReference is required"
	}
	var verr *paystack.VerificationError
	if errors.As(err, &verr) && verr.Status != "" {
		return http.StatusBadRequest, fmt.Sprintf("payment not confirmed (reference %s), please retry payment", reference)
	}
	// Provider unreachable, timed out, or returned garbage. Fail closed.
	return http.StatusBadGateway, fmt.Sprintf("payment verification failed (reference %s)", reference)
}

/* =========================
   BUILD ORDER INPUT
========================= */

func buildOrderInput(req createOrderRequest) (models.Customer, []models.OrderItem, error) {
	customer := models.Customer{
		Name:    strings.TrimSpace(req.Customer.Name),
		Email:   strings.TrimSpace(req.Customer.Email),
		Phone:   strings.TrimSpace(req.Customer.Phone),
		Address: strings.TrimSpace(req.Customer.Address),
	}
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" || customer.Address == "" {
		return models.Customer{}, nil, errors.New("all customer fields are required")
	}
	if !emailShape.MatchString(customer.Email) {
		return models.Customer{}, nil, errors.New("invalid email address")
	}

	if len(req.Items) == 0 {
		return models.Customer{}, nil, errors.New("at least one item is required")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return models.Customer{}, nil, errors.New("quantity must be at least 1")
		}
		if item.Price < 0 {
			return models.Customer{}, nil, errors.New("price cannot be negative")
		}
		items = append(items, models.OrderItem{
			ProductID:    item.ID,
			ProductName:  strings.TrimSpace(item.Name),
			ProductPrice: item.Price,
			Quantity:     item.Quantity,
		})
	}

	return customer, items, nil
}
