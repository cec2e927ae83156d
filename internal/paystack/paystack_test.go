package paystack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func verifyServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/transaction/verify/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestVerifyTransactionSuccess(t *testing.T) {
	srv := verifyServer(t, http.StatusOK, `{
		"status": true,
		"message": "Verification successful",
		"data": {"status":"success","reference":"TEST-REF-12345","amount":2500000,"currency":"NGN"}
	}`)
	defer srv.Close()

	client := NewWithBaseURL("sk_test_abc", srv.URL)
	tx, err := client.VerifyTransaction(context.Background(), "TEST-REF-12345")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if tx.Amount != 2500000 || tx.Currency != "NGN" || tx.Reference != "TEST-REF-12345" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}

func TestVerifyTransactionNotSuccessful(t *testing.T) {
	srv := verifyServer(t, http.StatusOK, `{
		"status": true,
		"message": "Verification successful",
		"data": {"status":"abandoned","reference":"TEST-REF-12345","amount":0}
	}`)
	defer srv.Close()

	client := NewWithBaseURL("sk_test_abc", srv.URL)
	_, err := client.VerifyTransaction(context.Background(), "TEST-REF-12345")

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if verr.Status != "abandoned" {
		t.Fatalf("expected status abandoned, got %q", verr.Status)
	}
}

func TestVerifyTransactionUnknownReference(t *testing.T) {
	srv := verifyServer(t, http.StatusNotFound, `{"status": false, "message": "Transaction reference not found"}`)
	defer srv.Close()

	client := NewWithBaseURL("sk_test_abc", srv.URL)
	_, err := client.VerifyTransaction(context.Background(), "NOPE")

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if len(verr.Raw) == 0 {
		t.Fatal("expected raw provider body to be attached")
	}
	if verr.Status != "" {
		t.Fatalf("envelope failure must not carry a transaction status, got %q", verr.Status)
	}
}

func TestVerifyTransactionGarbageBody(t *testing.T) {
	srv := verifyServer(t, http.StatusOK, `<html>gateway error</html>`)
	defer srv.Close()

	client := NewWithBaseURL("sk_test_abc", srv.URL)
	_, err := client.VerifyTransaction(context.Background(), "TEST-REF-12345")

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
}

func TestVerifyTransactionMissingSecret(t *testing.T) {
	client := New("")
	_, err := client.VerifyTransaction(context.Background(), "TEST-REF-12345")
	if !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestVerifyTransactionEmptyReference(t *testing.T) {
	client := New("sk_test_abc")
	_, err := client.VerifyTransaction(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyReference) {
		t.Fatalf("expected ErrEmptyReference, got %v", err)
	}
}

func TestVerifyTransactionContextCancelled(t *testing.T) {
	srv := verifyServer(t, http.StatusOK, `{"status":true,"data":{"status":"success"}}`)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewWithBaseURL("sk_test_abc", srv.URL)
	if _, err := client.VerifyTransaction(ctx, "TEST-REF-12345"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
