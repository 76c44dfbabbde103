package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan is seeded reference data. Exactly one plan carries a zero
// price (the free tier). CommissionRate is the fraction of a sale the buyer
// keeps while subscribed to this plan, in [0,1].
type SubscriptionPlan struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DurationMonths int             `gorm:"column:duration_months;not null"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
