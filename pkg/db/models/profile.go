package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public-facing identity of a registered user. ReferralCode is
// the share token other buyers can attach to a purchase; ReferredBy links back
// to the profile whose code was used at signup.
type Profile struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Email          string     `gorm:"column:email;not null;index"`
	FullName       *string    `gorm:"column:full_name"`
	Phone          *string    `gorm:"column:phone"`
	ReferralCode   *string    `gorm:"column:referral_code;uniqueIndex"`
	ReferredBy     *uuid.UUID `gorm:"column:referred_by;type:uuid"`
	ReferredByCode *string    `gorm:"column:referred_by_code"`
	IsAdmin        bool       `gorm:"column:is_admin;not null;default:false"`
	AccountName    *string    `gorm:"column:account_name"`
	AccountNumber  *string    `gorm:"column:account_number"`
	BankName       *string    `gorm:"column:bank_name"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
