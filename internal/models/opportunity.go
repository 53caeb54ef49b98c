package models

import (
	"time"

	"demand-scout/internal/scoring"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MarketValidation captures the model's read on how validated the demand is
type MarketValidation struct {
	EngagementTier       string `json:"engagement_tier" gorm:"column:mv_engagement_tier"`
	ProblemFrequency     string `json:"problem_frequency" gorm:"column:mv_problem_frequency"`
	PaymentWillingness   string `json:"payment_willingness" gorm:"column:mv_payment_willingness"`
	CompetitiveIntensity string `json:"competitive_intensity" gorm:"column:mv_competitive_intensity"`
	ValidationTier       string `json:"validation_tier" gorm:"column:mv_validation_tier"`
}

// Opportunity is a derived, AI-scored candidate business idea produced from
// one or more source items
type Opportunity struct {
	ID uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`

	Title            string `json:"title" db:"title" gorm:"not null;index"`
	Description      string `json:"description" db:"description" gorm:"type:text"`
	ProposedSolution string `json:"proposed_solution" db:"proposed_solution" gorm:"type:text"`

	// Coarse niche bucket, shared taxonomy with demand clusters
	Niche string `json:"niche" db:"niche" gorm:"index"`

	// Rubric sub-scores, each bounded [0,10]
	Scores scoring.SubScores `json:"scores" gorm:"embedded"`

	// Derived: always the weighted function of the sub-scores. Overwritten
	// only when a higher-confidence re-analysis supersedes it.
	OverallScore float64 `json:"overall_score" db:"overall_score" gorm:"default:0"`
	Viable       bool    `json:"viable" db:"viable" gorm:"default:false;index"`
	Confidence   float64 `json:"confidence" db:"confidence" gorm:"default:0"`

	// Categorical business dimensions assigned by the model, validated
	// against an allow-list at the boundary. Kept as strings because the
	// taxonomy drifts with the model, not with code.
	Tags pq.StringArray `json:"tags" db:"tags" gorm:"type:text[]"`

	Validation MarketValidation `json:"validation" gorm:"embedded"`

	// Number of linked source items; always equals the count of
	// OpportunitySource rows and is only moved by atomic increments
	SourceCount int `json:"source_count" db:"source_count" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Sources []OpportunitySource `json:"sources,omitempty" gorm:"foreignKey:OpportunityID"`
}

// TableName sets the table name for the Opportunity model
func (Opportunity) TableName() string {
	return "opportunities"
}
