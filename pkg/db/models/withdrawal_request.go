package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/pkg/enums"
)

// WithdrawalRequest is a user's payout instruction. The wallet balance is
// debited when the request is created, not when an admin approves it;
// TotalWithdrawn moves on completion, and a failed request refunds the hold.
type WithdrawalRequest struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Amount        decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	NetAmount     decimal.Decimal        `gorm:"column:net_amount;type:numeric(12,2);not null"`
	ProcessingFee decimal.Decimal        `gorm:"column:processing_fee;type:numeric(12,2);not null;default:0"`
	AccountName   string                 `gorm:"column:account_name;not null"`
	AccountNumber string                 `gorm:"column:account_number;not null"`
	BankName      string                 `gorm:"column:bank_name;not null"`
	BankCode      *string                `gorm:"column:bank_code"`
	Status        enums.WithdrawalStatus `gorm:"column:status;not null;default:'pending'"`
	AdminNotes    *string                `gorm:"column:admin_notes"`
	ProcessedAt   *time.Time             `gorm:"column:processed_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
