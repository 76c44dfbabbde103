package sales

import (
	"context"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for settled sales.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Sale, error)
	ListByBuyer(ctx context.Context, params ListParams) ([]models.Sale, *pagination.Cursor, error)
}

// ListParams scope a sale listing to one buyer with cursor pagination.
type ListParams struct {
	BuyerID uuid.UUID
	Limit   int
	Cursor  *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListByBuyer(ctx context.Context, params ListParams) ([]models.Sale, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Sale{}).Where("buyer_id = ?", params.BuyerID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Sale
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
