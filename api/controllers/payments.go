package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/api/validators"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/paystack"
)

type paystackInitializer interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeData, error)
}

type initializePaymentRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	ProductID    string          `json:"productId" validate:"omitempty,uuid4"`
	PlanID       string          `json:"planId" validate:"omitempty,uuid4"`
	ReferralCode string          `json:"referralCode" validate:"omitempty,max=64"`
}

// InitializePayment opens a hosted checkout session at the gateway. The
// metadata echoed back on the webhook is set here, so this is where a charge
// is bound to its product or plan.
func InitializePayment(client paystackInitializer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments unavailable"))
			return
		}

		var body initializePaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		data, err := client.InitializeTransaction(ctx, paystack.InitializeRequest{
			Email:        body.Email,
			Amount:       body.Amount,
			ProductID:    body.ProductID,
			PlanID:       body.PlanID,
			ReferralCode: body.ReferralCode,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, data)
	}
}
