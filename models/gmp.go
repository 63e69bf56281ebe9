package models

import "time"

// GMPData is one scraped grey-market premium row before it is merged
// into the offering table.
type GMPData struct {
	IPOName          string     `json:"ipo_name"`
	StockID          string     `json:"stock_id"`
	IPOPrice         float64    `json:"ipo_price"`
	GMPValue         float64    `json:"gmp_value"`
	GainPercent      float64    `json:"gain_percent"`
	EstimatedListing float64    `json:"estimated_listing"`
	ListingDate      *time.Time `json:"listing_date,omitempty"`
	DataSource       string     `json:"data_source"`
	LastUpdated      time.Time  `json:"last_updated"`
}

// SubscriptionData is one scraped subscription-figures row: the
// per-category oversubscription ratios for an open issue.
type SubscriptionData struct {
	IPOName     string    `json:"ipo_name"`
	StockID     string    `json:"stock_id"`
	Retail      float64   `json:"retail"`
	SNII        float64   `json:"snii"`
	BNII        float64   `json:"bnii"`
	QIB         float64   `json:"qib"`
	Total       float64   `json:"total"`
	DataSource  string    `json:"data_source"`
	LastUpdated time.Time `json:"last_updated"`
}
