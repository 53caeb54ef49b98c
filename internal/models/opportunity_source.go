package models

import (
	"time"

	"github.com/google/uuid"
)

// Link types for opportunity-source associations
const (
	LinkTypePrimary    = "primary"    // the item the opportunity was first derived from
	LinkTypeAdditional = "additional" // a later item merged into the same opportunity
)

// OpportunitySource links an opportunity to one of the source items it was
// derived from. At most one link exists per (opportunity, source item) pair.
type OpportunitySource struct {
	ID            uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	OpportunityID uuid.UUID `json:"opportunity_id" db:"opportunity_id" gorm:"uniqueIndex:idx_opportunity_sources_pair;not null"`
	SourceItemID  uuid.UUID `json:"source_item_id" db:"source_item_id" gorm:"uniqueIndex:idx_opportunity_sources_pair;not null"`

	LinkType   string  `json:"link_type" db:"link_type" gorm:"default:primary"`
	Confidence float64 `json:"confidence" db:"confidence" gorm:"default:0"` // [0,1]

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	// Relationships
	Opportunity Opportunity `json:"opportunity,omitempty" gorm:"foreignKey:OpportunityID;references:ID"`
	SourceItem  SourceItem  `json:"source_item,omitempty" gorm:"foreignKey:SourceItemID;references:ID"`
}

// TableName sets the table name for the OpportunitySource model
func (OpportunitySource) TableName() string {
	return "opportunity_sources"
}
