package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/internal/subscriptions"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
)

type planResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	DurationMonths int             `json:"durationMonths"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

type subscriptionResponse struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"planId"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

func toSubscriptionResponse(sub models.UserSubscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        sub.ID,
		PlanID:    sub.PlanID,
		Status:    sub.Status.String(),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}
}

// ListPlans returns the subscription catalog, cheapest first.
func ListPlans(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		plans, err := svc.ListPlans(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := make([]planResponse, 0, len(plans))
		for _, plan := range plans {
			payload = append(payload, planResponse{
				ID:             plan.ID,
				Name:           plan.Name,
				Price:          plan.Price,
				DurationMonths: plan.DurationMonths,
				CommissionRate: plan.CommissionRate,
			})
		}
		responses.WriteSuccess(w, payload)
	}
}

// ActivateFreeSubscription puts the caller on the free tier.
func ActivateFreeSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.ActivateFree(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toSubscriptionResponse(*sub))
	}
}

// GetActiveSubscription returns the caller's current subscription, if any.
func GetActiveSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.GetActive(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if sub == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, toSubscriptionResponse(*sub))
	}
}
