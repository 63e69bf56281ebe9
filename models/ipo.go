package models

import (
	"time"

	"github.com/google/uuid"
)

// IPO is the raw gateway row for one issue as stored in ipo_offerings.
// Upstream data is frequently incomplete, so every figure the scrapers
// fill in is nullable; OfferingFromRecord resolves the gaps once.
type IPO struct {
	// Primary identification
	ID      uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StockID string    `json:"stock_id" gorm:"type:varchar(100);not null;uniqueIndex"`

	// Basic information
	Name        string  `json:"name" gorm:"type:varchar(255);not null"`
	CompanyName *string `json:"company_name" gorm:"type:varchar(255)"`
	Slug        *string `json:"slug" gorm:"type:varchar(255)"`
	Segment     *string `json:"segment" gorm:"type:varchar(20)"`

	// Pricing information
	PriceBandLow  *float64 `json:"price_band_low" gorm:"type:decimal(10,2)"`
	PriceBandHigh *float64 `json:"price_band_high" gorm:"type:decimal(10,2)"`
	LotSize       *int     `json:"lot_size"`
	IssueSize     *string  `json:"issue_size" gorm:"type:varchar(100)"`

	// Live subscription figures (oversubscription ratios per category)
	SubscriptionRetail *float64 `json:"subscription_retail" gorm:"type:decimal(10,2)"`
	SubscriptionSNII   *float64 `json:"subscription_snii" gorm:"type:decimal(10,2)"`
	SubscriptionBNII   *float64 `json:"subscription_bnii" gorm:"type:decimal(10,2)"`
	SubscriptionQIB    *float64 `json:"subscription_qib" gorm:"type:decimal(10,2)"`
	SubscriptionTotal  *float64 `json:"subscription_total" gorm:"type:decimal(10,2)"`

	// Live grey market premium figures
	GMPAmount  *float64 `json:"gmp_amount" gorm:"type:decimal(10,2)"`
	GMPPercent *float64 `json:"gmp_percent" gorm:"type:decimal(10,2)"`

	// Per-category lot bounds when the prospectus specifies them
	RetailMinLots *int `json:"retail_min_lots"`
	RetailMaxLots *int `json:"retail_max_lots"`
	SNIIMinLots   *int `json:"snii_min_lots"`
	SNIIMaxLots   *int `json:"snii_max_lots"`
	BNIIMinLots   *int `json:"bnii_min_lots"`
	BNIIMaxLots   *int `json:"bnii_max_lots"`

	// Shareholder quota
	HasShareholderQuota          bool `json:"has_shareholder_quota"`
	SharesOfferedShareholder     *int `json:"shares_offered_shareholder"`
	ApplicationsCountShareholder *int `json:"applications_count_shareholder"`

	// Date information
	OpenDate    *time.Time `json:"open_date"`
	CloseDate   *time.Time `json:"close_date"`
	ListingDate *time.Time `json:"listing_date"`

	// Status information
	Status string `json:"status" gorm:"type:varchar(50);not null;default:'UNKNOWN'"`

	// Audit fields
	CreatedAt time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"default:CURRENT_TIMESTAMP"`
}
