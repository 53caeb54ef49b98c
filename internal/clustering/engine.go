// Package clustering maintains the incremental demand-signal clusters:
// phrase extraction, embedding, per-category cosine matching and cluster
// upkeep.
package clustering

import (
	"context"
	"fmt"
	"time"

	"demand-scout/internal/llm"
	"demand-scout/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Defaults for the matching policy. The candidate limit is an explicit
// cost/recall tradeoff: matching scans only the top-K most-frequent clusters
// in the phrase's category, not the whole store.
const (
	DefaultSimilarityThreshold = 0.85
	DefaultCandidateLimit      = 100
	DefaultStaleDays           = 60
	DefaultOccurrenceFloor     = 3
)

// Engine processes demand signals against the cluster store
type Engine struct {
	db        *gorm.DB
	embedder  llm.Embedder
	threshold float64
	limit     int
	logger    zerolog.Logger
}

// NewEngine creates a clustering engine. Zero-valued policy knobs fall back
// to the defaults.
func NewEngine(db *gorm.DB, embedder llm.Embedder, threshold float64, candidateLimit int, logger zerolog.Logger) *Engine {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	return &Engine{
		db:        db,
		embedder:  embedder,
		threshold: threshold,
		limit:     candidateLimit,
		logger:    logger,
	}
}

// ProcessResult reports the decision for one signal
type ProcessResult struct {
	IsNewCluster bool
	ClusterID    uuid.UUID
	Similarity   float64
}

// ProcessSignal embeds one phrase, searches its category for the best cosine
// match, and either augments that cluster or creates a new one.
func (e *Engine) ProcessSignal(ctx context.Context, signal Signal, channel string, opportunityID *uuid.UUID) (ProcessResult, error) {
	vector, err := e.embedder.Embed(ctx, signal.Phrase)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to embed signal %q: %w", signal.Phrase, err)
	}

	var candidates []models.DemandCluster
	err = e.db.
		Where("category = ?", signal.Category).
		Order("occurrence_count DESC").
		Limit(e.limit).
		Find(&candidates).Error
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to load clusters for %s: %w", signal.Category, err)
	}

	var best *models.DemandCluster
	bestSimilarity := 0.0
	for i := range candidates {
		similarity := Cosine(vector, candidates[i].Embedding)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = &candidates[i]
		}
	}

	now := time.Now().UTC()

	if best != nil && bestSimilarity >= e.threshold {
		if err := e.augment(best, channel, opportunityID, now); err != nil {
			return ProcessResult{}, err
		}
		e.logger.Debug().
			Str("cluster", best.ID.String()).
			Str("category", signal.Category).
			Float64("similarity", bestSimilarity).
			Msg("signal matched existing cluster")
		return ProcessResult{IsNewCluster: false, ClusterID: best.ID, Similarity: bestSimilarity}, nil
	}

	cluster := models.DemandCluster{
		ID:              uuid.New(),
		Category:        signal.Category,
		Signal:          signal.Phrase,
		Embedding:       pq.Float64Array(vector),
		OccurrenceCount: 1,
		Channels:        pq.StringArray{channel},
		LastSeenAt:      now,
	}
	if opportunityID != nil {
		cluster.LinkedOpportunityIDs = pq.StringArray{opportunityID.String()}
	}

	if err := e.db.Create(&cluster).Error; err != nil {
		return ProcessResult{}, fmt.Errorf("failed to create cluster for %q: %w", signal.Phrase, err)
	}

	e.logger.Debug().
		Str("cluster", cluster.ID.String()).
		Str("category", signal.Category).
		Str("phrase", signal.Phrase).
		Msg("created new cluster")
	return ProcessResult{IsNewCluster: true, ClusterID: cluster.ID}, nil
}

// augment folds a new sighting into an existing cluster: occurrence count by
// atomic increment, channel set and opportunity links unioned, last-seen
// refreshed.
func (e *Engine) augment(cluster *models.DemandCluster, channel string, opportunityID *uuid.UUID, now time.Time) error {
	updates := map[string]interface{}{
		"occurrence_count": gorm.Expr("occurrence_count + ?", 1),
		"last_seen_at":     now,
	}

	if channel != "" && !contains(cluster.Channels, channel) {
		updates["channels"] = pq.StringArray(append(cluster.Channels, channel))
	}
	if opportunityID != nil && !contains(cluster.LinkedOpportunityIDs, opportunityID.String()) {
		updates["linked_opportunity_ids"] = pq.StringArray(append(cluster.LinkedOpportunityIDs, opportunityID.String()))
	}

	err := e.db.Model(&models.DemandCluster{}).
		Where("id = ?", cluster.ID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to augment cluster %s: %w", cluster.ID, err)
	}
	return nil
}

// ProcessText extracts all demand signals from an item's text and clusters
// each one. Per-signal failures are collected, not fatal to siblings.
func (e *Engine) ProcessText(ctx context.Context, text, channel string, opportunityID *uuid.UUID) ([]ProcessResult, error) {
	signals := ExtractSignals(text, channel)
	if len(signals) == 0 {
		return nil, nil
	}

	results := make([]ProcessResult, 0, len(signals))
	var firstErr error
	for _, signal := range signals {
		result, err := e.ProcessSignal(ctx, signal, channel, opportunityID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			e.logger.Warn().Str("phrase", signal.Phrase).Err(err).Msg("failed to process signal")
			continue
		}
		results = append(results, result)
	}
	return results, firstErr
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
