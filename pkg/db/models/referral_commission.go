package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/pkg/enums"
)

// ReferralCommission records the secondary cut paid to the user whose referral
// code was attached to a purchase. ProductID and SaleID are nil for
// subscription purchases.
type ReferralCommission struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReferrerID       uuid.UUID              `gorm:"column:referrer_id;type:uuid;not null;index"`
	ReferredUserID   uuid.UUID              `gorm:"column:referred_user_id;type:uuid;not null"`
	ProductID        *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	SaleID           *uuid.UUID             `gorm:"column:sale_id;type:uuid"`
	CommissionAmount decimal.Decimal        `gorm:"column:commission_amount;type:numeric(12,2);not null;default:0"`
	CommissionRate   decimal.Decimal        `gorm:"column:commission_rate;type:numeric(5,4);not null;default:0"`
	Status           enums.CommissionStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
