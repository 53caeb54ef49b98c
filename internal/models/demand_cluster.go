package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DemandCluster groups semantically similar demand signals within one coarse
// category. Embedding dimensionality is fixed and consistent across the store.
type DemandCluster struct {
	ID       uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Category string    `json:"category" db:"category" gorm:"index;not null"`

	// Representative signal text (the phrase that seeded the cluster)
	Signal    string          `json:"signal" db:"signal" gorm:"type:text;not null"`
	Embedding pq.Float64Array `json:"embedding" db:"embedding" gorm:"type:float8[]"`

	OccurrenceCount int            `json:"occurrence_count" db:"occurrence_count" gorm:"default:1"`
	Channels        pq.StringArray `json:"channels" db:"channels" gorm:"type:text[]"`

	// Opportunities whose source items produced signals in this cluster
	LinkedOpportunityIDs pq.StringArray `json:"linked_opportunity_ids" db:"linked_opportunity_ids" gorm:"type:text[]"`

	LastSeenAt time.Time `json:"last_seen_at" db:"last_seen_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the DemandCluster model
func (DemandCluster) TableName() string {
	return "demand_clusters"
}
