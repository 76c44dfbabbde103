package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/internal/sales"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/pagination"
)

type saleResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"productId"`
	SaleAmount    decimal.Decimal `json:"saleAmount"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type saleListResponse struct {
	Items  []saleResponse `json:"items"`
	Cursor string         `json:"cursor,omitempty"`
}

func toSaleResponse(sale models.Sale) saleResponse {
	return saleResponse{
		ID:            sale.ID,
		ProductID:     sale.ProductID,
		SaleAmount:    sale.SaleAmount,
		TransactionID: sale.TransactionID,
		Status:        sale.Status.String(),
		CreatedAt:     sale.CreatedAt,
	}
}

// ListSales returns the caller's purchases, newest first.
func ListSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
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

		rows, next, err := svc.ListPurchases(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := saleListResponse{Items: make([]saleResponse, 0, len(rows))}
		for _, row := range rows {
			payload.Items = append(payload.Items, toSaleResponse(row))
		}
		if next != nil {
			payload.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}
