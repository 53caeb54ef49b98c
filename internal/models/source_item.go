package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProcessingStatus tracks where a source item is in the analysis lifecycle
type ProcessingStatus string

const (
	StatusUnprocessed ProcessingStatus = "unprocessed"
	StatusProcessed   ProcessingStatus = "processed"
	StatusFailed      ProcessingStatus = "failed"
)

// SourceItem represents one ingested forum post
type SourceItem struct {
	ID uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`

	// Identity on the source forum. ExternalID is unique per channel.
	ExternalID string `json:"external_id" db:"external_id" gorm:"uniqueIndex:idx_source_items_channel_external;not null"`
	Channel    string `json:"channel" db:"channel" gorm:"uniqueIndex:idx_source_items_channel_external;index;not null"`
	Author     string `json:"author" db:"author" gorm:"index"`

	Title     string `json:"title" db:"title"`
	Body      string `json:"body" db:"body" gorm:"type:text"` // empty for link-type posts
	Permalink string `json:"permalink" db:"permalink"`

	// Engagement counters from the forum, refreshed on duplicate re-sighting
	Score        int `json:"score" db:"score" gorm:"default:0"`
	CommentCount int `json:"comment_count" db:"comment_count" gorm:"default:0"`
	Upvotes      int `json:"upvotes" db:"upvotes" gorm:"default:0"`
	Downvotes    int `json:"downvotes" db:"downvotes" gorm:"default:0"`

	// When the post was created on the forum (not when we saw it)
	PostedAt time.Time `json:"posted_at" db:"posted_at" gorm:"index"`

	// Analysis outcome. ProcessedAt is set exactly once and never reset.
	Status           ProcessingStatus `json:"status" db:"status" gorm:"type:text;default:unprocessed;index"`
	ProcessedAt      *time.Time       `json:"processed_at" db:"processed_at"`
	Confidence       *float64         `json:"confidence" db:"confidence"`
	RejectionReasons pq.StringArray   `json:"rejection_reasons" db:"rejection_reasons" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the SourceItem model
func (SourceItem) TableName() string {
	return "source_items"
}

// IsProcessed reports whether the item has reached a terminal analysis state.
func (si *SourceItem) IsProcessed() bool {
	return si.ProcessedAt != nil
}
