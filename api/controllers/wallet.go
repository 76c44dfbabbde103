package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/api/middleware"
	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/api/validators"
	"github.com/digimartng/digimart-backend/internal/wallets"
	"github.com/digimartng/digimart-backend/internal/withdrawals"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/pagination"
)

type walletResponse struct {
	UserID         uuid.UUID       `json:"userId"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"totalEarned"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
}

// GetWallet returns the caller's earnings wallet.
func GetWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		wallet, err := svc.GetWallet(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletResponse{
			UserID:         wallet.UserID,
			Balance:        wallet.Balance,
			TotalEarned:    wallet.TotalEarned,
			TotalWithdrawn: wallet.TotalWithdrawn,
		})
	}
}

type createWithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type withdrawalResponse struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	NetAmount     decimal.Decimal `json:"netAmount"`
	ProcessingFee decimal.Decimal `json:"processingFee"`
	AccountName   string          `json:"accountName"`
	AccountNumber string          `json:"accountNumber"`
	BankName      string          `json:"bankName"`
	Status        string          `json:"status"`
	ProcessedAt   *time.Time      `json:"processedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toWithdrawalResponse(request models.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:            request.ID,
		Amount:        request.Amount,
		NetAmount:     request.NetAmount,
		ProcessingFee: request.ProcessingFee,
		AccountName:   request.AccountName,
		AccountNumber: request.AccountNumber,
		BankName:      request.BankName,
		Status:        request.Status.String(),
		ProcessedAt:   request.ProcessedAt,
		CreatedAt:     request.CreatedAt,
	}
}

// CreateWithdrawal places a payout request against the caller's wallet.
func CreateWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body createWithdrawalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.CreateRequest(ctx, withdrawals.CreateRequestInput{
			UserID: userID,
			Amount: body.Amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toWithdrawalResponse(*request))
	}
}

type withdrawalListResponse struct {
	Items  []withdrawalResponse `json:"items"`
	Cursor string               `json:"cursor,omitempty"`
}

// ListWithdrawals returns the caller's payout history, newest first.
func ListWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := paginationParamsFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, next, err := svc.List(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := withdrawalListResponse{Items: make([]withdrawalResponse, 0, len(rows))}
		for _, row := range rows {
			payload.Items = append(payload.Items, toWithdrawalResponse(row))
		}
		if next != nil {
			payload.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func paginationParamsFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
