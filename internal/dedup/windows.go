package dedup

import (
	"fmt"
	"time"

	"demand-scout/internal/models"

	"gorm.io/gorm"
)

// Windows loads the bounded recent-history windows the comparison functions
// consume. A lookup error here propagates to the caller, which must treat
// the whole check as retryable; nothing is partially committed.
type Windows struct {
	db *gorm.DB
}

// NewWindows creates a window loader backed by the given database
func NewWindows(db *gorm.DB) *Windows {
	return &Windows{db: db}
}

// RecentItems returns the candidate window for source-item dedup: same
// channel, bounded lookback, capped sample, newest first. The row matching
// externalID is always included even when it falls outside the window, so
// the exact-id check cannot be starved by the sample cap.
func (w *Windows) RecentItems(channel, externalID string, now time.Time) ([]ItemHistory, error) {
	since := now.AddDate(0, 0, -ItemLookbackDays)

	var rows []models.SourceItem
	err := w.db.
		Where("channel = ? AND (posted_at >= ? OR external_id = ?)", channel, since, externalID).
		Order("posted_at DESC").
		Limit(ItemSampleCap).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent items for %s: %w", channel, err)
	}

	history := make([]ItemHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, ItemHistory{
			ID:         row.ID,
			ExternalID: row.ExternalID,
			Title:      row.Title,
			Body:       row.Body,
			Author:     row.Author,
		})
	}
	return history, nil
}

// RecentOpportunities returns the candidate window for opportunity dedup,
// scoped to the same coarse niche. The exact-title match is included
// regardless of age for the same reason as RecentItems.
func (w *Windows) RecentOpportunities(niche, title string, now time.Time) ([]OpportunityHistory, error) {
	since := now.AddDate(0, 0, -OpportunityLookbackDays)

	var rows []models.Opportunity
	err := w.db.
		Where("niche = ? AND (created_at >= ? OR LOWER(title) = LOWER(?))", niche, since, title).
		Order("created_at DESC").
		Limit(OpportunitySampleCap).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent opportunities for %s: %w", niche, err)
	}

	history := make([]OpportunityHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, OpportunityHistory{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Solution:    row.ProposedSolution,
		})
	}
	return history, nil
}
