package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// ErrOrderNotFound is returned by lookups, never by CreateOrder.
var ErrOrderNotFound = errors.New("order not found")

// UnavailableError wraps a persistence failure. The payment reference rides
// along because by the time the store is called the payment may already be
// captured, and support needs the reference to reconcile.
type UnavailableError struct {
	Reference string
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("order store unavailable (payment reference %q): %v", e.Reference, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// OrderStore persists orders with an at-most-once-per-reference guarantee.
// The unique partial index on paymentReference (see internal/database) is the
// actual guarantee; the lookup before insert only short-circuits the common
// replay case.
type OrderStore struct {
	db *mongo.Database
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{db: db}
}

// ComputeTotal sums price*quantity over the submitted items. Client-submitted
// totals are never trusted.
func ComputeTotal(items []models.OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.ProductPrice * float64(item.Quantity)
	}
	return total
}

// CreateOrder persists the order exactly once per non-empty payment reference.
// The returned bool is true when a new order was written, false on an
// idempotent replay of an existing one.
func (s *OrderStore) CreateOrder(ctx context.Context, customer models.Customer, items []models.OrderItem, reference string) (*models.Order, bool, error) {
	reference = strings.TrimSpace(reference)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if reference != "" {
		existing, err := s.FindByReference(ctx, reference)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, false, &UnavailableError{Reference: reference, Err: err}
		}
	}

	for i := range items {
		items[i].Subtotal = items[i].ProductPrice * float64(items[i].Quantity)
	}

	order := models.Order{
		CustomerName:     customer.Name,
		CustomerEmail:    customer.Email,
		CustomerPhone:    customer.Phone,
		CustomerAddress:  customer.Address,
		Items:            items,
		TotalAmount:      ComputeTotal(items),
		Status:           models.OrderStatusConfirmed,
		PaymentReference: reference,
		CreatedAt:        time.Now().UTC(),
	}

	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		// Another writer won the race on the reference index. Fetch and
		// return that order instead of failing the request.
		if reference != "" && mongo.IsDuplicateKeyError(err) {
			winner, findErr := s.FindByReference(ctx, reference)
			if findErr == nil {
				return winner, false, nil
			}
			return nil, false, &UnavailableError{Reference: reference, Err: findErr}
		}
		return nil, false, &UnavailableError{Reference: reference, Err: err}
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}

	return &order, true, nil
}

// FindByReference returns the order holding the given payment reference.
func (s *OrderStore) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"paymentReference": reference}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
