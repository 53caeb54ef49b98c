// Package analysis turns a stored source item into a structured, scored
// opportunity via the external generative model, then merges or creates the
// derived opportunity through the dedup engine.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"demand-scout/internal/dedup"
	"demand-scout/internal/llm"
	"demand-scout/internal/models"
	"demand-scout/internal/scoring"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxFailureReasonLength = 500

// Service is the analysis pipeline
type Service struct {
	db        *gorm.DB
	generator llm.Generator
	windows   *dedup.Windows
	logger    zerolog.Logger
}

// NewService creates an analysis service
func NewService(db *gorm.DB, generator llm.Generator, logger zerolog.Logger) *Service {
	return &Service{
		db:        db,
		generator: generator,
		windows:   dedup.NewWindows(db),
		logger:    logger,
	}
}

// Result is the outcome of analyzing one item
type Result struct {
	IsOpportunity    bool
	Confidence       float64
	OpportunityID    uuid.UUID
	Merged           bool
	Viable           bool
	Reasons          []string
	AlreadyProcessed bool
}

// AnalyzeItem runs the full pipeline for one stored item. It is safe under
// at-least-once delivery: a re-delivered item that already reached terminal
// state is a no-op.
func (s *Service) AnalyzeItem(ctx context.Context, itemID uuid.UUID) (Result, error) {
	var item models.SourceItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		return Result{}, fmt.Errorf("failed to load source item %s: %w", itemID, err)
	}

	if item.IsProcessed() {
		s.logger.Debug().Str("item", itemID.String()).Msg("item already processed, skipping")
		return Result{AlreadyProcessed: true}, nil
	}

	raw, err := s.generator.Generate(ctx, systemPrompt, buildPrompt(&item))
	if err != nil {
		return s.handleModelError(&item, err)
	}

	out, err := ValidateOutput(raw)
	if err != nil {
		return s.handleModelError(&item, err)
	}

	return s.apply(&item, out)
}

// handleModelError routes a model failure: transient errors propagate so the
// queue redelivers, fatal ones mark the item with an explicit error state so
// it does not stay perpetually unprocessed.
func (s *Service) handleModelError(item *models.SourceItem, cause error) (Result, error) {
	if llm.IsRetryable(cause) {
		return Result{}, cause
	}

	reason := cause.Error()
	if len(reason) > maxFailureReasonLength {
		reason = reason[:maxFailureReasonLength]
	}

	res := s.db.Model(&models.SourceItem{}).
		Where("id = ? AND processed_at IS NULL", item.ID).
		Updates(map[string]interface{}{
			"status":            models.StatusFailed,
			"processed_at":      time.Now().UTC(),
			"rejection_reasons": pq.StringArray{reason},
		})
	if res.Error != nil {
		return Result{}, fmt.Errorf("analysis failed (%v); failed to mark item failed: %w", cause, res.Error)
	}

	s.logger.Warn().
		Str("item", item.ID.String()).
		Str("channel", item.Channel).
		Err(cause).
		Msg("analysis failed terminally")
	return Result{}, cause
}

// apply persists the validated model output: dedup handoff for opportunities
// and the exactly-once terminal mark for the source item in both branches.
func (s *Service) apply(item *models.SourceItem, out *Output) (Result, error) {
	if !out.IsOpportunity {
		reasons := out.Reasons
		if len(reasons) == 0 {
			reasons = []string{"no opportunity identified"}
		}
		if err := s.finalize(item, out.Confidence, reasons); err != nil {
			return Result{}, err
		}
		return Result{IsOpportunity: false, Confidence: out.Confidence, Reasons: reasons}, nil
	}

	payload := out.Opportunity
	scores := payload.Scores.Clamped()
	overall := scoring.Overall(scores)
	viable := scoring.Viable(overall)
	niche := normalizeNiche(payload.Niche)

	recent, err := s.windows.RecentOpportunities(niche, payload.Title, time.Now().UTC())
	if err != nil {
		// retryable: nothing has been committed yet
		return Result{}, err
	}

	check := dedup.CheckOpportunity(dedup.OpportunityCandidate{
		Title:       payload.Title,
		Description: payload.Description,
		Solution:    payload.ProposedSolution,
		Niche:       niche,
	}, recent)

	var oppID uuid.UUID
	merged := false

	if check.IsDuplicate {
		oppID = check.MatchedID
		merged = true
		if err := s.mergeOpportunity(item, oppID, out.Confidence, scores, overall, viable); err != nil {
			return Result{}, err
		}
		s.logger.Info().
			Str("item", item.ID.String()).
			Str("opportunity", oppID.String()).
			Str("reason", check.Reason).
			Float64("similarity", check.Similarity).
			Msg("merged into existing opportunity")
	} else {
		created, err := s.createOpportunity(item, payload, niche, out.Confidence, scores, overall, viable)
		if err != nil {
			return Result{}, err
		}
		oppID = created
		s.logger.Info().
			Str("item", item.ID.String()).
			Str("opportunity", oppID.String()).
			Float64("overall", overall).
			Bool("viable", viable).
			Msg("created opportunity")
	}

	if err := s.finalize(item, out.Confidence, nil); err != nil {
		return Result{}, err
	}

	return Result{
		IsOpportunity: true,
		Confidence:    out.Confidence,
		OpportunityID: oppID,
		Merged:        merged,
		Viable:        viable,
	}, nil
}

// mergeOpportunity links the item to an existing opportunity. The link is
// idempotent via the (opportunity, item) unique constraint, and sourceCount
// only moves when a link row was actually inserted, so redelivery cannot
// double-count. The stored score is overwritten only above the confidence
// bar.
func (s *Service) mergeOpportunity(
	item *models.SourceItem,
	oppID uuid.UUID,
	confidence float64,
	scores scoring.SubScores,
	overall float64,
	viable bool,
) error {
	link := models.OpportunitySource{
		ID:            uuid.New(),
		OpportunityID: oppID,
		SourceItemID:  item.ID,
		LinkType:      models.LinkTypeAdditional,
		Confidence:    confidence,
	}

	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link)
	if res.Error != nil {
		return fmt.Errorf("failed to link item %s to opportunity %s: %w", item.ID, oppID, res.Error)
	}

	if res.RowsAffected == 1 {
		err := s.db.Model(&models.Opportunity{}).
			Where("id = ?", oppID).
			UpdateColumn("source_count", gorm.Expr("source_count + ?", 1)).Error
		if err != nil {
			return fmt.Errorf("failed to increment source count for %s: %w", oppID, err)
		}
	}

	if confidence > dedup.ConfidenceOverwriteBar {
		err := s.db.Model(&models.Opportunity{}).
			Where("id = ?", oppID).
			Updates(map[string]interface{}{
				"speed_score":             scores.Speed,
				"convenience_score":       scores.Convenience,
				"trust_score":             scores.Trust,
				"price_score":             scores.Price,
				"status_score":            scores.Status,
				"predictability_score":    scores.Predictability,
				"ui_ux_score":             scores.UIUX,
				"ease_of_use_score":       scores.EaseOfUse,
				"legal_friction_score":    scores.LegalFriction,
				"emotional_comfort_score": scores.EmotionalComfort,
				"overall_score":           overall,
				"viable":                  viable,
				"confidence":              confidence,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to refresh opportunity %s scores: %w", oppID, err)
		}
	}

	return nil
}

// createOpportunity persists a novel opportunity plus its first source link
// in one transaction.
func (s *Service) createOpportunity(
	item *models.SourceItem,
	payload *OpportunityPayload,
	niche string,
	confidence float64,
	scores scoring.SubScores,
	overall float64,
	viable bool,
) (uuid.UUID, error) {
	opp := models.Opportunity{
		ID:               uuid.New(),
		Title:            payload.Title,
		Description:      payload.Description,
		ProposedSolution: payload.ProposedSolution,
		Niche:            niche,
		Scores:           scores,
		OverallScore:     overall,
		Viable:           viable,
		Confidence:       confidence,
		Tags:             pq.StringArray(FilterTags(payload.Tags)),
		Validation:       normalizeValidation(payload.MarketValidation),
		SourceCount:      1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&opp).Error; err != nil {
			return err
		}
		link := models.OpportunitySource{
			ID:            uuid.New(),
			OpportunityID: opp.ID,
			SourceItemID:  item.ID,
			LinkType:      models.LinkTypePrimary,
			Confidence:    confidence,
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create opportunity for item %s: %w", item.ID, err)
	}

	return opp.ID, nil
}

// finalize writes the terminal state for the item exactly once. The guard on
// processed_at means a concurrent redelivery that lost the race becomes a
// no-op instead of a double write.
func (s *Service) finalize(item *models.SourceItem, confidence float64, reasons []string) error {
	updates := map[string]interface{}{
		"status":       models.StatusProcessed,
		"processed_at": time.Now().UTC(),
		"confidence":   confidence,
	}
	if len(reasons) > 0 {
		updates["rejection_reasons"] = pq.StringArray(reasons)
	}

	res := s.db.Model(&models.SourceItem{}).
		Where("id = ? AND processed_at IS NULL", item.ID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to finalize item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Debug().Str("item", item.ID.String()).Msg("item finalized concurrently")
	}
	return nil
}

func normalizeNiche(raw string) string {
	niche := strings.ToLower(strings.TrimSpace(raw))
	if niche == "" {
		return "general"
	}
	return niche
}

func normalizeValidation(payload *ValidationPayload) models.MarketValidation {
	if payload == nil {
		return models.MarketValidation{
			EngagementTier:       "none",
			ProblemFrequency:     "none",
			PaymentWillingness:   "none",
			CompetitiveIntensity: "none",
			ValidationTier:       "none",
		}
	}
	return models.MarketValidation{
		EngagementTier:       NormalizeTier(payload.EngagementTier),
		ProblemFrequency:     NormalizeTier(payload.ProblemFrequency),
		PaymentWillingness:   NormalizeTier(payload.PaymentWillingness),
		CompetitiveIntensity: NormalizeTier(payload.CompetitiveIntensity),
		ValidationTier:       NormalizeTier(payload.ValidationTier),
	}
}
