package wallets

import (
	"context"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for earnings wallets. Every mutation is a
// single SQL statement with server-side arithmetic so concurrent settlements
// and withdrawals never lose updates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	Refund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	RecordWithdrawn(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit adds earnings to the user's wallet, creating the row on first use.
// The upsert keeps the operation a single statement under concurrency.
func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	wallet := models.Wallet{
		ID:          uuid.New(),
		UserID:      userID,
		Balance:     amount,
		TotalEarned: amount,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance":      gorm.Expr("wallets.balance + ?", amount),
				"total_earned": gorm.Expr("wallets.total_earned + ?", amount),
			}),
		}).
		Create(&wallet).Error
}

// Debit places a withdrawal hold. It reports false when the balance cannot
// cover the amount; the guard rides in the WHERE clause so the check and the
// decrement are one atomic statement.
func (r *repository) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Refund returns a failed withdrawal's hold to the balance.
func (r *repository) Refund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).
		Error
}

// RecordWithdrawn moves a completed withdrawal into the lifetime total.
func (r *repository) RecordWithdrawn(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_withdrawn", gorm.Expr("total_withdrawn + ?", amount)).
		Error
}
