package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/paystack"
)

// PaymentVerifier is the server-side payment confirmation dependency.
// Satisfied by *paystack.Client; stubbed in tests.
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// OrderCreator persists orders idempotently by payment reference.
// Satisfied by *store.OrderStore; stubbed in tests.
type OrderCreator interface {
	CreateOrder(ctx context.Context, customer models.Customer, items []models.OrderItem, reference string) (*models.Order, bool, error)
}

// OrderNotifier is the fire-and-forget fan-out dependency.
// Satisfied by *notify.Notifier; stubbed in tests.
type OrderNotifier interface {
	OrderCreated(order *models.Order)
	NotifyOrder(order *models.Order)
	SendSMS(phone, message string)
	SendPurchaseEvent(ev notify.PurchaseEvent)
	SMSConfigured() bool
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": message})
}
