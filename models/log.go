package models

import (
	"time"

	"github.com/google/uuid"
)

// IPOUpdateLog records one upstream-driven field change on an offering
// row (GMP or subscription refresh), kept for audit and debugging of
// the scrape pipeline.
type IPOUpdateLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid()"`
	StockID   string    `json:"stock_id"`
	FieldName string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewIPOUpdateLog builds an update-log entry stamped with the current time.
func NewIPOUpdateLog(stockID, field, oldValue, newValue, source string) IPOUpdateLog {
	return IPOUpdateLog{
		ID:        uuid.New(),
		StockID:   stockID,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Source:    source,
		Timestamp: time.Now(),
	}
}
