package referrals

import (
	"context"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for referral commission records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, commission *models.ReferralCommission) error
	ListByReferrer(ctx context.Context, params ListParams) ([]models.ReferralCommission, *pagination.Cursor, error)
}

// ListParams scope a commission listing to one referrer with cursor pagination.
type ListParams struct {
	ReferrerID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a referral commission repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, commission *models.ReferralCommission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) ListByReferrer(ctx context.Context, params ListParams) ([]models.ReferralCommission, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.ReferralCommission{}).
		Where("referrer_id = ?", params.ReferrerID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.ReferralCommission
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}
