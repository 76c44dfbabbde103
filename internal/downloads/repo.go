package downloads

import (
	"context"
	"strings"
	"time"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for download entitlements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, download *models.Download) error
	FindByID(ctx context.Context, downloadID uuid.UUID) (*models.Download, error)
	FindForUser(ctx context.Context, userID, productID uuid.UUID) (*models.Download, error)
	FindForEmail(ctx context.Context, email string, productID uuid.UUID) (*models.Download, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Download, error)
	IncrementCount(ctx context.Context, downloadID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a download repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, download *models.Download) error {
	return r.db.WithContext(ctx).Create(download).Error
}

func (r *repository) FindByID(ctx context.Context, downloadID uuid.UUID) (*models.Download, error) {
	var download models.Download
	if err := r.db.WithContext(ctx).
		Where("id = ?", downloadID).
		First(&download).Error; err != nil {
		return nil, err
	}
	return &download, nil
}

func (r *repository) FindForUser(ctx context.Context, userID, productID uuid.UUID) (*models.Download, error) {
	var download models.Download
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Order("created_at DESC").
		First(&download).Error; err != nil {
		return nil, err
	}
	return &download, nil
}

func (r *repository) FindForEmail(ctx context.Context, email string, productID uuid.UUID) (*models.Download, error) {
	var download models.Download
	if err := r.db.WithContext(ctx).
		Where("LOWER(buyer_email) = ? AND product_id = ?", strings.ToLower(strings.TrimSpace(email)), productID).
		Order("created_at DESC").
		First(&download).Error; err != nil {
		return nil, err
	}
	return &download, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Download, error) {
	var rows []models.Download
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) IncrementCount(ctx context.Context, downloadID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Download{}).
		Where("id = ?", downloadID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).
		Error
}

// DeleteExpired purges guest grants whose window has closed.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&models.Download{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
