package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestHashIdentifierNormalizes(t *testing.T) {
	want := sha256.Sum256([]byte("ada@example.com"))
	got := hashIdentifier("  Ada@Example.COM ")
	if got != hex.EncodeToString(want[:]) {
		t.Fatalf("expected normalized hash, got %s", got)
	}
}

func TestHashIdentifierPassesThroughDigest(t *testing.T) {
	digest := hashIdentifier("ada@example.com")
	if hashIdentifier(digest) != digest {
		t.Fatal("a pre-hashed value must pass through unchanged")
	}
	if hashIdentifier("") != "" {
		t.Fatal("empty input must stay empty")
	}
}

func TestNormalizePhoneKeepsDigitsOnly(t *testing.T) {
	if got := normalizePhone("+234 (801) 234-5678"); got != "2348012345678" {
		t.Fatalf("expected digits only, got %q", got)
	}
}

func TestPurchaseEventFromOrder(t *testing.T) {
	order := &models.Order{
		ID:               primitive.NewObjectID(),
		CustomerEmail:    "ada@example.com",
		CustomerPhone:    "+2348012345678",
		TotalAmount:      25000,
		PaymentReference: "TEST-REF-12345",
		Items: []models.OrderItem{
			{ProductID: 101, ProductName: "Test Panel", ProductPrice: 25000, Quantity: 1},
		},
	}

	ev := PurchaseEventFromOrder(order)
	if ev.EventID == "" {
		t.Fatal("expected a generated event id")
	}
	if ev.Value != 25000 || ev.Currency != "NGN" {
		t.Fatalf("unexpected value/currency: %+v", ev)
	}
	if len(ev.ContentIDs) != 1 || ev.ContentIDs[0] != "101" {
		t.Fatalf("unexpected content ids: %v", ev.ContentIDs)
	}
}

func TestSendPurchasePayload(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "tok" {
			t.Errorf("missing access token, url %s", r.URL.String())
		}
		captured, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newCAPIClient("12345", "tok")
	c.baseURL = srv.URL

	err := c.sendPurchase(context.Background(), PurchaseEvent{
		Value:      25000,
		Currency:   "NGN",
		ContentIDs: []string{"101"},
		EventID:    "evt-1",
		Email:      "Ada@Example.com",
		Phone:      "+234 801 234 5678",
		Reference:  "TEST-REF-12345",
	})
	if err != nil {
		t.Fatalf("sendPurchase failed: %v", err)
	}

	var payload struct {
		Data []struct {
			EventName string `json:"event_name"`
			EventID   string `json:"event_id"`
			UserData  struct {
				Em []string `json:"em"`
				Ph []string `json:"ph"`
			} `json:"user_data"`
			CustomData struct {
				Value    float64 `json:"value"`
				Currency string  `json:"currency"`
				OrderID  string  `json:"order_id"`
			} `json:"custom_data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(captured, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if len(payload.Data) != 1 {
		t.Fatalf("expected 1 event, got %d", len(payload.Data))
	}
	ev := payload.Data[0]
	if ev.EventName != "Purchase" || ev.EventID != "evt-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.UserData.Em) != 1 || ev.UserData.Em[0] != hashIdentifier("ada@example.com") {
		t.Fatal("email must be hashed before transmission")
	}
	if len(ev.UserData.Ph) != 1 || ev.UserData.Ph[0] != hashIdentifier("2348012345678") {
		t.Fatal("phone must be digit-normalized and hashed")
	}
	if ev.CustomData.Value != 25000 || ev.CustomData.Currency != "NGN" || ev.CustomData.OrderID != "TEST-REF-12345" {
		t.Fatalf("unexpected custom data: %+v", ev.CustomData)
	}
}
