package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/digimartng/digimart-backend/pkg/enums"
)

// UserSubscription ties a user to a plan for a period. PaymentReference holds
// the gateway reference for paid tiers and is unique, which makes webhook
// replays for subscription purchases a no-op. Effective activeness is
// status=active AND end_date in the future; the status flag alone can go stale
// between cron sweeps.
type UserSubscription struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	PlanID           uuid.UUID                `gorm:"column:plan_id;type:uuid;not null"`
	Status           enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	PaymentReference *string                  `gorm:"column:payment_reference;uniqueIndex:uq_user_subscriptions_payment_reference"`
	StartDate        time.Time                `gorm:"column:start_date;not null"`
	EndDate          time.Time                `gorm:"column:end_date;not null"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
}
