package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/api/validators"
	"github.com/digimartng/digimart-backend/internal/withdrawals"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
)

type resolveWithdrawalRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=500"`
}

// CompleteWithdrawal marks a pending payout as paid out.
func CompleteWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return resolveWithdrawal(svc, logg, svcComplete)
}

// FailWithdrawal rejects a pending payout and refunds the hold.
func FailWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return resolveWithdrawal(svc, logg, svcFail)
}

type withdrawalResolution int

const (
	svcComplete withdrawalResolution = iota
	svcFail
)

func resolveWithdrawal(svc withdrawals.Service, logg *logger.Logger, resolution withdrawalResolution) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		rawID := strings.TrimSpace(chi.URLParam(r, "withdrawalId"))
		requestID, err := uuid.Parse(rawID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid withdrawal id"))
			return
		}

		var body resolveWithdrawalRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if body.Notes != nil {
			cleaned := validators.SanitizeString(*body.Notes, 500)
			body.Notes = &cleaned
		}

		switch resolution {
		case svcFail:
			err = svc.Fail(ctx, requestID, body.Notes)
		default:
			err = svc.Complete(ctx, requestID, body.Notes)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "resolved"})
	}
}
