package models

import (
	"time"

	"github.com/google/uuid"
)

// Download is a buyer's entitlement to fetch a purchased file. UserID is nil
// for guest buyers, who are matched by email instead. DownloadCount counts
// authorized fetches, not the product-level sales counter.
type Download struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	ProductID     uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	BuyerEmail    string     `gorm:"column:buyer_email;not null;index"`
	SaleID        *uuid.UUID `gorm:"column:sale_id;type:uuid"`
	DownloadCount int        `gorm:"column:download_count;not null;default:0"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
