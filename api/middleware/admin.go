package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
)

type profileFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// RequireAdmin rejects callers whose profile does not carry the admin flag.
// It must run after Identity.
func RequireAdmin(profiles profileFinder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, err := uuid.Parse(UserIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			profile, err := profiles.FindByUserID(ctx, userID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile"))
				return
			}
			if !profile.IsAdmin {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
