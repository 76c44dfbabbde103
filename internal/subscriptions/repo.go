package subscriptions

import (
	"context"
	"time"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for subscription plans and memberships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	FindPlanByID(ctx context.Context, planID uuid.UUID) (*models.SubscriptionPlan, error)
	FindFreePlan(ctx context.Context) (*models.SubscriptionPlan, error)
	Create(ctx context.Context, subscription *models.UserSubscription) error
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.UserSubscription, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.UserSubscription, error)
	ExpireActiveForUser(ctx context.Context, userID uuid.UUID) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Order("price ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) FindPlanByID(ctx context.Context, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("id = ?", planID).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindFreePlan(ctx context.Context) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("price = 0").
		Order("created_at ASC").
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) Create(ctx context.Context, subscription *models.UserSubscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

// FindActiveByUser returns the membership that is both flagged active and
// still inside its paid window. The status flag alone can lag behind the
// expiry sweep, so the end date is checked here too.
func (r *repository) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.UserSubscription, error) {
	var subscription models.UserSubscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND end_date > ?", userID, enums.SubscriptionStatusActive, now).
		Order("end_date DESC").
		First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.UserSubscription, error) {
	var subscription models.UserSubscription
	if err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) ExpireActiveForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("user_id = ? AND status = ?", userID, enums.SubscriptionStatusActive).
		UpdateColumn("status", enums.SubscriptionStatusExpired).
		Error
}

// ExpireLapsed flips memberships whose window has closed. Run by the cron
// sweep; reads stay correct between sweeps because activeness always rechecks
// the end date.
func (r *repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("status = ? AND end_date <= ?", enums.SubscriptionStatusActive, now).
		UpdateColumn("status", enums.SubscriptionStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
