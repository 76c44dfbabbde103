package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's withdrawable earnings. Balance never goes below zero;
// TotalEarned and TotalWithdrawn are monotonic running totals. All mutations
// are single-statement server-side arithmetic, never read-modify-write.
type Wallet struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_wallets_user_id"`
	Balance        decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	TotalEarned    decimal.Decimal `gorm:"column:total_earned;type:numeric(12,2);not null;default:0"`
	TotalWithdrawn decimal.Decimal `gorm:"column:total_withdrawn;type:numeric(12,2);not null;default:0"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
