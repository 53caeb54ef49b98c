package clustering

import (
	"fmt"
	"time"

	"demand-scout/internal/models"
)

// ReapStale removes clusters that are both old and low-occurrence: not seen
// within staleDays AND below occurrenceFloor. One-off noise ages out while
// clusters with sustained signal are protected regardless of age.
func (e *Engine) ReapStale(staleDays, occurrenceFloor int, now time.Time) (int64, error) {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	if occurrenceFloor <= 0 {
		occurrenceFloor = DefaultOccurrenceFloor
	}

	cutoff := now.AddDate(0, 0, -staleDays)

	res := e.db.
		Where("last_seen_at < ? AND occurrence_count < ?", cutoff, occurrenceFloor).
		Delete(&models.DemandCluster{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reap stale clusters: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		e.logger.Info().Int64("reaped", res.RowsAffected).Msg("removed stale clusters")
	}
	return res.RowsAffected, nil
}
