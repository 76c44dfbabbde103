package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/enums"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes membership operations for account holders.
type Service interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error)
	ActivateFree(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error)
}

// ServiceParams wire the subscription service dependencies.
type ServiceParams struct {
	Repo Repository
	Tx   txRunner
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo: params.Repo,
		tx:   params.Tx,
		now:  time.Now,
	}, nil
}

func (s *service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return plans, nil
}

// GetActive returns the user's current membership or nil when none is in
// force.
func (s *service) GetActive(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	subscription, err := s.repo.FindActiveByUser(ctx, userID, s.now().UTC())
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active subscription")
	}
	return subscription, nil
}

// ActivateFree enrolls the user on the zero-price tier. Paid tiers only
// activate through gateway settlement, never through this path.
func (s *service) ActivateFree(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var created *models.UserSubscription
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now().UTC()

		plan, err := repo.FindFreePlan(ctx)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "free plan not configured")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load free plan")
		}

		if current, err := repo.FindActiveByUser(ctx, userID, now); err == nil {
			if current.PlanID == plan.ID {
				created = current
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "an active subscription already exists")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
		}

		subscription := &models.UserSubscription{
			UserID:    userID,
			PlanID:    plan.ID,
			Status:    enums.SubscriptionStatusActive,
			StartDate: now,
			EndDate:   now.AddDate(0, plan.DurationMonths, 0),
		}
		if err := repo.Create(ctx, subscription); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create free subscription")
		}
		created = subscription
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
