package paystack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/pkg/config"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(context.Background(), config.PaystackConfig{
		SecretKey: "sk_test_secret",
		BaseURL:   baseURL,
	}, logg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresSecret(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	if _, err := NewClient(context.Background(), config.PaystackConfig{}, logg); err == nil {
		t.Fatal("expected missing secret key to error")
	}
}

func TestInitializeTransactionConvertsToKobo(t *testing.T) {
	var captured initializePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "ref-123",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	data, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:        "buyer@example.com",
		Amount:       decimal.RequireFromString("1500.50"),
		ProductID:    "prod-1",
		ReferralCode: "ref-code",
	})
	if err != nil {
		t.Fatalf("InitializeTransaction: %v", err)
	}

	if captured.Amount != 150050 {
		t.Fatalf("expected 150050 kobo on the wire, got %d", captured.Amount)
	}
	if captured.Metadata.ProductID != "prod-1" || captured.Metadata.ReferralCode != "ref-code" {
		t.Fatalf("metadata not forwarded: %+v", captured.Metadata)
	}
	if data.Reference != "ref-123" {
		t.Fatalf("unexpected reference %q", data.Reference)
	}
}

func TestInitializeTransactionRejectsInvalidRequests(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")

	cases := []InitializeRequest{
		{Amount: decimal.NewFromInt(100)},
		{Email: "x@y.z", Amount: decimal.Zero},
		{Email: "x@y.z", Amount: decimal.NewFromInt(-5)},
		{Email: "x@y.z", Amount: decimal.NewFromInt(100), ProductID: "p", PlanID: "s"},
	}
	for i, req := range cases {
		if _, err := client.InitializeTransaction(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		} else if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation code, got %v", i, err)
		}
	}
}

func TestInitializeTransactionSurfacesGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Invalid key"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:  "buyer@example.com",
		Amount: decimal.NewFromInt(100),
	})
	if err == nil {
		t.Fatal("expected gateway failure to surface")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation mapping for 400, got %v", err)
	}
}

func TestVerifyTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-9" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status":    "success",
				"reference": "ref-9",
				"amount":    250000,
				"customer":  map[string]string{"email": "buyer@example.com"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	data, err := client.VerifyTransaction(context.Background(), "ref-9")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if data.Status != "success" || data.Amount != 250000 {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestWebhookEventValidate(t *testing.T) {
	valid := &WebhookEvent{
		Event: EventChargeSuccess,
		Data: WebhookData{
			Reference: "ref-1",
			Amount:    100000,
			Customer:  WebhookCustomer{Email: "buyer@example.com"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	ignored := &WebhookEvent{Event: "charge.failed"}
	if err := ignored.Validate(); err != nil {
		t.Fatalf("non-settlement events should pass shape validation: %v", err)
	}

	broken := []*WebhookEvent{
		nil,
		{},
		{Event: EventChargeSuccess},
		{Event: EventChargeSuccess, Data: WebhookData{Reference: "r", Amount: 0, Customer: WebhookCustomer{Email: "a@b.c"}}},
		{Event: EventChargeSuccess, Data: WebhookData{Reference: "r", Amount: 100}},
	}
	for i, event := range broken {
		if err := event.Validate(); err == nil {
			t.Fatalf("case %d: expected malformed event to be rejected", i)
		}
	}
}
