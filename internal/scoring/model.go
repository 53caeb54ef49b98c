// Package scoring computes the weighted opportunity rubric. It is pure: no
// storage, no I/O, so the viability gate stays deterministic and auditable.
package scoring

import "math"

// ViabilityThreshold is the minimum overall score (0-10 scale) for an
// opportunity to be flagged as worth surfacing.
const ViabilityThreshold = 4.0

// SubScores holds the ten rubric dimensions. Each is bounded [0,10]; values
// coming from the model are clamped again here because schema validation
// happens before the application trust boundary.
type SubScores struct {
	Speed            float64 `json:"speed" gorm:"column:speed_score;default:0"`
	Convenience      float64 `json:"convenience" gorm:"column:convenience_score;default:0"`
	Trust            float64 `json:"trust" gorm:"column:trust_score;default:0"`
	Price            float64 `json:"price" gorm:"column:price_score;default:0"`
	Status           float64 `json:"status" gorm:"column:status_score;default:0"`
	Predictability   float64 `json:"predictability" gorm:"column:predictability_score;default:0"`
	UIUX             float64 `json:"uiUx" gorm:"column:ui_ux_score;default:0"`
	EaseOfUse        float64 `json:"easeOfUse" gorm:"column:ease_of_use_score;default:0"`
	LegalFriction    float64 `json:"legalFriction" gorm:"column:legal_friction_score;default:0"`
	EmotionalComfort float64 `json:"emotionalComfort" gorm:"column:emotional_comfort_score;default:0"`
}

// Dimension weights. They sum to 1.0; speed and convenience dominate because
// they are the strongest predictors of willingness to switch.
const (
	weightSpeed            = 0.15
	weightConvenience      = 0.15
	weightTrust            = 0.10
	weightPrice            = 0.10
	weightStatus           = 0.10
	weightPredictability   = 0.10
	weightUIUX             = 0.05
	weightEaseOfUse        = 0.10
	weightLegalFriction    = 0.05
	weightEmotionalComfort = 0.10
)

// Clamp bounds a raw sub-score into [0,10].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// Clamped returns a copy of s with every dimension bounded into [0,10].
func (s SubScores) Clamped() SubScores {
	return SubScores{
		Speed:            Clamp(s.Speed),
		Convenience:      Clamp(s.Convenience),
		Trust:            Clamp(s.Trust),
		Price:            Clamp(s.Price),
		Status:           Clamp(s.Status),
		Predictability:   Clamp(s.Predictability),
		UIUX:             Clamp(s.UIUX),
		EaseOfUse:        Clamp(s.EaseOfUse),
		LegalFriction:    Clamp(s.LegalFriction),
		EmotionalComfort: Clamp(s.EmotionalComfort),
	}
}

// Overall computes the weighted overall score from the sub-scores, rounded to
// 2 decimal places. This is always recomputed locally and never trusted from
// model output.
func Overall(s SubScores) float64 {
	c := s.Clamped()
	sum := c.Speed*weightSpeed +
		c.Convenience*weightConvenience +
		c.Trust*weightTrust +
		c.Price*weightPrice +
		c.Status*weightStatus +
		c.Predictability*weightPredictability +
		c.UIUX*weightUIUX +
		c.EaseOfUse*weightEaseOfUse +
		c.LegalFriction*weightLegalFriction +
		c.EmotionalComfort*weightEmotionalComfort
	return math.Round(sum*100) / 100
}

// Viable reports whether an overall score clears the viability threshold.
// The boundary is inclusive: exactly 4.00 is viable.
func Viable(overall float64) bool {
	return overall >= ViabilityThreshold
}
