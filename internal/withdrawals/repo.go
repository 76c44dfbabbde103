package withdrawals

import (
	"context"
	"time"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/enums"
	"github.com/digimartng/digimart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	FindByID(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, params ListParams) ([]models.WithdrawalRequest, *pagination.Cursor, error)
	MarkProcessed(ctx context.Context, requestID uuid.UUID, status enums.WithdrawalStatus, notes *string, processedAt time.Time) (bool, error)
}

// ListParams scope a withdrawal listing to one user with cursor pagination.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByUser(ctx context.Context, params ListParams) ([]models.WithdrawalRequest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.WithdrawalRequest
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

// MarkProcessed resolves a pending request. The pending guard rides in the
// WHERE clause so two admins cannot resolve the same request twice.
func (r *repository) MarkProcessed(ctx context.Context, requestID uuid.UUID, status enums.WithdrawalStatus, notes *string, processedAt time.Time) (bool, error) {
	updates := map[string]any{
		"status":       status,
		"processed_at": processedAt,
	}
	if notes != nil {
		updates["admin_notes"] = *notes
	}
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", requestID, enums.WithdrawalStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
