package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/digimartng/digimart-backend/pkg/enums"
)

// Sale records one settled product purchase. TransactionID is the gateway
// reference and is unique; a second delivery of the same event must not insert
// a second row. BuyerID is nil for guest checkouts. CommissionAmount and
// AdminAmount are gross figures; any referral cut lives on the linked
// ReferralCommission row and is netted out of the buyer's wallet credit.
type Sale struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	BuyerID          *uuid.UUID       `gorm:"column:buyer_id;type:uuid;index"`
	BuyerEmail       string           `gorm:"column:buyer_email;not null"`
	SaleAmount       decimal.Decimal  `gorm:"column:sale_amount;type:numeric(12,2);not null"`
	CommissionAmount decimal.Decimal  `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	AdminAmount      decimal.Decimal  `gorm:"column:admin_amount;type:numeric(12,2);not null"`
	TransactionID    string           `gorm:"column:transaction_id;not null;uniqueIndex:uq_sales_transaction_id"`
	ReferralLink     *string          `gorm:"column:referral_link"`
	Status           enums.SaleStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}
