package analysis

import (
	"context"
	"fmt"

	"demand-scout/internal/llm"
	"demand-scout/internal/models"

	"github.com/google/uuid"
)

// BatchResult collects per-item outcomes; one item's failure never fails its
// siblings.
type BatchResult struct {
	Results map[uuid.UUID]Result
	Failed  map[uuid.UUID]error
}

// AnalyzeBatch embeds several items into one model invocation. The response
// is expected to be a one-to-one ordered results array, but the model is not
// trusted to honor that: missing or invalid entries degrade to individual
// invocations for just those items, and a whole-batch failure degrades to
// per-item retries.
func (s *Service) AnalyzeBatch(ctx context.Context, itemIDs []uuid.UUID) (BatchResult, error) {
	out := BatchResult{
		Results: make(map[uuid.UUID]Result, len(itemIDs)),
		Failed:  make(map[uuid.UUID]error),
	}
	if len(itemIDs) == 0 {
		return out, nil
	}

	var items []models.SourceItem
	if err := s.db.Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
		return out, fmt.Errorf("failed to load batch items: %w", err)
	}

	// The SELECT returns rows in store order; re-walk the requested IDs so the
	// prompt and the response array stay paired with the caller's ordering.
	byID := make(map[uuid.UUID]*models.SourceItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	pending := make([]*models.SourceItem, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		item, ok := byID[id]
		if !ok {
			out.Failed[id] = fmt.Errorf("source item %s not found", id)
			continue
		}
		if item.IsProcessed() {
			out.Results[id] = Result{AlreadyProcessed: true}
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) == 0 {
		return out, nil
	}

	raw, err := s.generator.Generate(ctx, systemPrompt, buildBatchPrompt(pending))
	if err != nil {
		if llm.IsRetryable(err) {
			return out, err
		}
		s.logger.Warn().Err(err).Int("items", len(pending)).Msg("batch invocation failed, falling back to individual analysis")
		s.analyzeIndividually(ctx, pending, &out)
		return out, nil
	}

	entries, err := SplitBatchOutput(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("batch response unparseable, falling back to individual analysis")
		s.analyzeIndividually(ctx, pending, &out)
		return out, nil
	}

	if len(entries) != len(pending) {
		s.logger.Warn().
			Int("requested", len(pending)).
			Int("returned", len(entries)).
			Msg("batch response length mismatch")
	}

	var missing []*models.SourceItem
	for i, item := range pending {
		if i >= len(entries) {
			missing = append(missing, item)
			continue
		}

		validated, err := ValidateOutput(entries[i])
		if err != nil {
			s.logger.Warn().
				Str("item", item.ID.String()).
				Err(err).
				Msg("batch entry invalid, retrying individually")
			missing = append(missing, item)
			continue
		}

		result, err := s.apply(item, validated)
		if err != nil {
			out.Failed[item.ID] = err
			continue
		}
		out.Results[item.ID] = result
	}

	if len(missing) > 0 {
		s.analyzeIndividually(ctx, missing, &out)
	}

	return out, nil
}

// analyzeIndividually is the degradation path: each item gets its own model
// invocation, with failures collected instead of propagated.
func (s *Service) analyzeIndividually(ctx context.Context, items []*models.SourceItem, out *BatchResult) {
	for _, item := range items {
		result, err := s.AnalyzeItem(ctx, item.ID)
		if err != nil {
			out.Failed[item.ID] = err
			continue
		}
		out.Results[item.ID] = result
	}
}
