package paystack

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
)

// EventChargeSuccess is the only webhook event type settlement acts on.
const EventChargeSuccess = "charge.success"

// InitializeRequest describes a hosted checkout session to open. Amount is in
// naira; the wire call converts to kobo.
type InitializeRequest struct {
	Email        string
	Amount       decimal.Decimal
	ProductID    string
	PlanID       string
	ReferralCode string
}

// Validate enforces the initialize contract before any network call.
func (r InitializeRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !r.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if r.ProductID != "" && r.PlanID != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "productId and planId are mutually exclusive")
	}
	return nil
}

// InitializeData is the subset of the gateway's initialize response callers use.
type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// TransactionData is the verify-transaction response payload.
type TransactionData struct {
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Customer  WebhookCustomer `json:"customer"`
}

// WebhookEvent is the parsed shape of a gateway notification. Amounts arrive
// in kobo and stay that way until settlement converts at its boundary.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the charge payload of a webhook event.
type WebhookData struct {
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Customer  WebhookCustomer `json:"customer"`
	Metadata  WebhookMetadata `json:"metadata"`
}

// WebhookCustomer identifies the paying customer.
type WebhookCustomer struct {
	Email string `json:"email"`
}

// WebhookMetadata echoes back the checkout metadata set at initialize time.
type WebhookMetadata struct {
	ProductID    string `json:"productId"`
	PlanID       string `json:"planId"`
	ReferralCode string `json:"referralCode"`
}

// Validate rejects malformed charge payloads instead of trusting ambient
// shapes from the gateway.
func (e *WebhookEvent) Validate() error {
	if e == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event payload required")
	}
	if strings.TrimSpace(e.Event) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event type missing")
	}
	if e.Event != EventChargeSuccess {
		return nil
	}
	if strings.TrimSpace(e.Data.Reference) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "charge reference missing")
	}
	if e.Data.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	if strings.TrimSpace(e.Data.Customer.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email missing")
	}
	return nil
}
