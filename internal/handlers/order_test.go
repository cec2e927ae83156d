package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/paystack"
	"backend/internal/store"
)

// stubVerifier implements PaymentVerifier.
type stubVerifier struct {
	tx    *paystack.Transaction
	err   error
	calls int
}

func (s *stubVerifier) VerifyTransaction(_ context.Context, reference string) (*paystack.Transaction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	tx := *s.tx
	if tx.Reference == "" {
		tx.Reference = reference
	}
	return &tx, nil
}

// stubStore implements OrderCreator with in-memory idempotency by reference.
type stubStore struct {
	byReference map[string]*models.Order
	err         error
	calls       int
}

func newStubStore() *stubStore {
	return &stubStore{byReference: map[string]*models.Order{}}
}

func (s *stubStore) CreateOrder(_ context.Context, customer models.Customer, items []models.OrderItem, reference string) (*models.Order, bool, error) {
	s.calls++
	if s.err != nil {
		return nil, false, s.err
	}
	if existing, ok := s.byReference[reference]; ok && reference != "" {
		return existing, false, nil
	}
	for i := range items {
		items[i].Subtotal = items[i].ProductPrice * float64(items[i].Quantity)
	}
	order := &models.Order{
		ID:               primitive.NewObjectID(),
		CustomerName:     customer.Name,
		CustomerEmail:    customer.Email,
		CustomerPhone:    customer.Phone,
		CustomerAddress:  customer.Address,
		Items:            items,
		TotalAmount:      store.ComputeTotal(items),
		Status:           models.OrderStatusConfirmed,
		PaymentReference: reference,
	}
	if reference != "" {
		s.byReference[reference] = order
	}
	return order, true, nil
}

// stubNotifier implements OrderNotifier and records dispatches.
type stubNotifier struct {
	orderCreated int
	orders       int
	sms          int
	purchases    []notify.PurchaseEvent
	smsReady     bool
}

func (s *stubNotifier) OrderCreated(*models.Order) { s.orderCreated++ }
func (s *stubNotifier) NotifyOrder(*models.Order)  { s.orders++ }
func (s *stubNotifier) SendSMS(string, string)     { s.sms++ }
func (s *stubNotifier) SendPurchaseEvent(ev notify.PurchaseEvent) {
	s.purchases = append(s.purchases, ev)
}
func (s *stubNotifier) SMSConfigured() bool { return s.smsReady }

func performCreateOrder(t *testing.T, orders OrderCreator, verifier PaymentVerifier, notifier OrderNotifier, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/create-order", CreateOrder(orders, verifier, notifier))

	req := httptest.NewRequest("POST", "/create-order", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testCartBody(reference string) string {
	return fmt.Sprintf(`{
		"customer": {"name":"Ada Obi","email":"ada@example.com","phone":"+2348012345678","address":"12 Marina Rd, Lagos"},
		"items": [{"id":101,"name":"Test Panel","price":25000,"quantity":1}],
		"paymentReference": %q
	}`, reference)
}

func TestCreateOrderComputesTotalServerSide(t *testing.T) {
	orders := newStubStore()
	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success", Amount: 2500000, Currency: "NGN"}}
	notifier := &stubNotifier{}

	w := performCreateOrder(t, orders, verifier, notifier, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		OK    bool         `json:"ok"`
		Order models.Order `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if !resp.OK {
		t.Fatal("expected ok=true")
	}
	if resp.Order.TotalAmount != 25000 {
		t.Fatalf("expected total_amount=25000, got %v", resp.Order.TotalAmount)
	}
	if notifier.orderCreated != 1 {
		t.Fatalf("expected 1 fan-out dispatch, got %d", notifier.orderCreated)
	}
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	orders := newStubStore()
	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success"}}
	notifier := &stubNotifier{}

	first := performCreateOrder(t, orders, verifier, notifier, testCartBody("TEST-REF-12345"))
	second := performCreateOrder(t, orders, verifier, notifier, testCartBody("TEST-REF-12345"))

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", first.Code, second.Code)
	}

	var a, b struct {
		Order   models.Order `json:"order"`
		Message string       `json:"message"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("first decode failed: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("second decode failed: %v", err)
	}

	if a.Order.ID != b.Order.ID {
		t.Fatalf("expected same order id on replay, got %s then %s", a.Order.ID.Hex(), b.Order.ID.Hex())
	}
	if b.Message != "existing" {
		t.Fatalf("expected existing marker on replay, got %q", b.Message)
	}
	if len(orders.byReference) != 1 {
		t.Fatalf("expected exactly one persisted order, got %d", len(orders.byReference))
	}
	if notifier.orderCreated != 1 {
		t.Fatalf("replay must not re-notify, got %d dispatches", notifier.orderCreated)
	}
}

func TestCreateOrderRejectsUnverifiedPayment(t *testing.T) {
	orders := newStubStore()
	verifier := &stubVerifier{err: &paystack.VerificationError{Reference: "TEST-REF-12345", Status: "abandoned"}}

	w := performCreateOrder(t, orders, verifier, &stubNotifier{}, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if orders.calls != 0 {
		t.Fatal("no order may be created when verification fails")
	}
}

func TestCreateOrderEmptyItemsFailsBeforeVerification(t *testing.T) {
	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success"}}
	body := `{
		"customer": {"name":"Ada Obi","email":"ada@example.com","phone":"+2348012345678","address":"12 Marina Rd"},
		"items": [],
		"paymentReference": "TEST-REF-12345"
	}`

	w := performCreateOrder(t, newStubStore(), verifier, &stubNotifier{}, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if verifier.calls != 0 {
		t.Fatal("verifier must not be called for an empty cart")
	}
}

func TestCreateOrderInvalidCustomer(t *testing.T) {
	tests := []string{
		`{"customer":{"name":"","email":"ada@example.com","phone":"1","address":"a"},"items":[{"id":1,"name":"x","price":10,"quantity":1}]}`,
		`{"customer":{"name":"Ada","email":"not-an-email","phone":"1","address":"a"},"items":[{"id":1,"name":"x","price":10,"quantity":1}]}`,
		`{"customer":{"name":"Ada","email":"ada@example.com","phone":"1","address":"a"},"items":[{"id":1,"name":"x","price":10,"quantity":0}]}`,
		`{"customer":{"name":"Ada","email":"ada@example.com","phone":"1","address":"a"},"items":[{"id":1,"name":"x","price":-5,"quantity":1}]}`,
	}
	for i, body := range tests {
		w := performCreateOrder(t, newStubStore(), &stubVerifier{tx: &paystack.Transaction{Status: "success"}}, &stubNotifier{}, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, w.Code)
		}
	}
}

func TestCreateOrderMissingSecretIsServerError(t *testing.T) {
	verifier := &stubVerifier{err: paystack.ErrSecretMissing}

	w := performCreateOrder(t, newStubStore(), verifier, &stubNotifier{}, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCreateOrderProviderOutageIsBadGateway(t *testing.T) {
	verifier := &stubVerifier{err: &paystack.VerificationError{Reference: "TEST-REF-12345"}}

	w := performCreateOrder(t, newStubStore(), verifier, &stubNotifier{}, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestCreateOrderAmountMismatchFails(t *testing.T) {
	orders := newStubStore()
	// Cart totals 25000 naira = 2500000 kobo; provider reports less.
	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success", Amount: 100000}}

	w := performCreateOrder(t, orders, verifier, &stubNotifier{}, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if orders.calls != 0 {
		t.Fatal("no order may be created on amount mismatch")
	}
}

func TestCreateOrderFractionalPriceMatchesProviderAmount(t *testing.T) {
	// 19999.55 * 3 = 59998.65 naira = 5999865 kobo, but the float product
	// lands just under it; a truncating conversion would reject the
	// correctly paid order.
	orders := newStubStore()
	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success", Amount: 5999865, Currency: "NGN"}}
	body := `{
		"customer": {"name":"Ada Obi","email":"ada@example.com","phone":"+2348012345678","address":"12 Marina Rd"},
		"items": [{"id":201,"name":"Lithium Battery","price":19999.55,"quantity":3}],
		"paymentReference": "TEST-REF-FRAC"
	}`

	w := performCreateOrder(t, orders, verifier, &stubNotifier{}, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for exact provider amount, got %d: %s", w.Code, w.Body.String())
	}
	if orders.calls != 1 {
		t.Fatalf("expected order to be persisted, got %d store calls", orders.calls)
	}
}

func TestCreateOrderStoreFailureKeepsReference(t *testing.T) {
	orders := newStubStore()
	orders.err = &store.UnavailableError{Reference: "TEST-REF-12345", Err: fmt.Errorf("connection refused")}
	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success", Amount: 2500000}}

	w := performCreateOrder(t, orders, verifier, &stubNotifier{}, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "TEST-REF-12345") {
		t.Fatalf("store failure response must carry the payment reference, got %s", body)
	}
	if !strings.Contains(body, "do not retry payment") {
		t.Fatalf("store failure response must warn against retrying payment, got %s", body)
	}
}

func TestCreateOrderSucceedsWithRealNotifier(t *testing.T) {
	// A real Notifier with no channel configured: every channel is skipped
	// and the checkout response is unaffected.
	notifier := notify.New(config.Config{AdminEmail: "support@solarnaija.store"})
	notifier.Start()
	defer notifier.Close()

	verifier := &stubVerifier{tx: &paystack.Transaction{Status: "success", Amount: 2500000}}
	w := performCreateOrder(t, newStubStore(), verifier, notifier, testCartBody("TEST-REF-12345"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateOrderSkipVerifyHonored(t *testing.T) {
	orders := newStubStore()
	verifier := &stubVerifier{err: paystack.ErrSecretMissing}
	body := `{
		"customer": {"name":"Ada Obi","email":"ada@example.com","phone":"+2348012345678","address":"12 Marina Rd"},
		"items": [{"id":101,"name":"Test Panel","price":25000,"quantity":1}],
		"paymentReference": "MANUAL-REF-1",
		"verify": false
	}`

	w := performCreateOrder(t, orders, verifier, &stubNotifier{}, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if verifier.calls != 0 {
		t.Fatal("verify:false must skip the provider call")
	}
}
