package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/digimartng/digimart-backend/api/middleware"
	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/api/validators"
	"github.com/digimartng/digimart-backend/internal/downloads"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
)

type downloadResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     uuid.UUID  `json:"productId"`
	DownloadCount int        `json:"downloadCount"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ListDownloads returns the caller's download grants, newest first.
func ListDownloads(svc downloads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "downloads service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		grants, err := svc.ListForUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := make([]downloadResponse, 0, len(grants))
		for _, grant := range grants {
			payload = append(payload, downloadResponse{
				ID:            grant.ID,
				ProductID:     grant.ProductID,
				DownloadCount: grant.DownloadCount,
				ExpiresAt:     grant.ExpiresAt,
				CreatedAt:     grant.CreatedAt,
			})
		}
		responses.WriteSuccess(w, payload)
	}
}

type generateLinkRequest struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// GenerateDownloadLink issues a short-lived link for a purchased product.
// Account holders are matched by their id; guest buyers supply the email the
// purchase was made with.
func GenerateDownloadLink(svc downloads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "downloads service unavailable"))
			return
		}

		var body generateLinkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		input := downloads.GenerateLinkInput{
			ProductID: productID,
			Email:     validators.SanitizeString(body.Email, 254),
		}
		if raw := middleware.UserIDFromContext(ctx); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			input.UserID = userID
		}
		if input.UserID == uuid.Nil && input.Email == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email required for guest downloads"))
			return
		}

		link, err := svc.GenerateLink(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, link)
	}
}
