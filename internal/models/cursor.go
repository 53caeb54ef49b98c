package models

import (
	"time"

	"github.com/google/uuid"
)

// Cursor is the per-channel ingestion watermark: the newest post we have
// already seen. It only ever advances.
type Cursor struct {
	ID      uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Channel string    `json:"channel" db:"channel" gorm:"uniqueIndex;not null"`

	LastExternalID string    `json:"last_external_id" db:"last_external_id"`
	LastPostedAt   time.Time `json:"last_posted_at" db:"last_posted_at"`

	// Cumulative count of items processed for this channel across all runs
	ProcessedCount int64 `json:"processed_count" db:"processed_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the Cursor model
func (Cursor) TableName() string {
	return "cursors"
}
