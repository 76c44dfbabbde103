package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a digital good offered in the catalog. DownloadCount only ever
// grows; settlement bumps it server-side once per completed sale.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string          `gorm:"column:title;not null"`
	Description   *string         `gorm:"column:description"`
	Category      string          `gorm:"column:category;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ThumbnailURL  *string         `gorm:"column:thumbnail_url"`
	FileURL       *string         `gorm:"column:file_url"`
	FileSizeMB    *float64        `gorm:"column:file_size_mb;type:numeric(10,2)"`
	Tags          pq.StringArray  `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	DownloadCount int             `gorm:"column:download_count;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
