// Package ingest is the per-channel ingestion pipeline: cursor-bounded
// fetch, quality filtering, dedup, per-item storage and cursor advancement.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"demand-scout/internal/dedup"
	"demand-scout/internal/forum"
	"demand-scout/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Run statuses
const (
	StatusCompleted = "completed"
	StatusBlocked   = "blocked"
)

// Fetcher is the source-content API contract the pipeline depends on
type Fetcher interface {
	FetchPage(ctx context.Context, channel string, sortOrder forum.SortOrder, limit int) ([]forum.Post, error)
}

// Queue receives newly inserted items for asynchronous analysis
type Queue interface {
	EnqueueAnalysis(itemIDs []uuid.UUID)
}

// Options configures one ingestion run
type Options struct {
	SortOrder forum.SortOrder
	Limit     int
	// Backfill bypasses cursor truncation and leaves the live cursor
	// untouched: an append-only recovery pass.
	Backfill bool
}

// RunReport summarizes one ingestion run for a channel
type RunReport struct {
	Channel        string
	Status         string
	Fetched        int
	Truncated      int
	Filtered       int
	Duplicates     int
	Updated        int
	Inserted       int
	Failed         int
	NewItemIDs     []uuid.UUID
	CursorAdvanced bool
}

// Pipeline runs ingestion for channels
type Pipeline struct {
	db      *gorm.DB
	fetcher Fetcher
	windows *dedup.Windows
	queue   Queue
	logger  zerolog.Logger
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(db *gorm.DB, fetcher Fetcher, queue Queue, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		db:      db,
		fetcher: fetcher,
		windows: dedup.NewWindows(db),
		queue:   queue,
		logger:  logger,
	}
}

// Run executes one ingestion pass for a channel. Blocked sources return a
// no-op report with an explicit status so the caller can back off for a long
// interval; rate limits and other transient failures propagate as retryable
// errors. The run is idempotent: re-feeding the same page inserts nothing.
func (p *Pipeline) Run(ctx context.Context, channel string, opts Options) (RunReport, error) {
	report := RunReport{Channel: channel, Status: StatusCompleted}

	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.SortOrder == "" {
		opts.SortOrder = forum.SortNew
	}

	cursor, hasCursor, err := p.loadCursor(channel)
	if err != nil {
		return report, err
	}

	posts, err := p.fetcher.FetchPage(ctx, channel, opts.SortOrder, opts.Limit)
	if err != nil {
		if forum.IsBlocked(err) {
			p.logger.Warn().Str("channel", channel).Err(err).Msg("channel blocked, backing off")
			report.Status = StatusBlocked
			return report, nil
		}
		return report, err
	}

	report.Fetched = len(posts)
	if len(posts) == 0 {
		return report, nil
	}

	// newest of the whole fetched page, not just the inserted items; this
	// guarantees forward progress even on a run that inserts nothing new
	newest := posts[0]
	for _, post := range posts[1:] {
		if post.CreatedAt.After(newest.CreatedAt) {
			newest = post
		}
	}

	unseen := posts
	if hasCursor && !opts.Backfill {
		unseen = truncateAtCursor(posts, cursor)
		report.Truncated = len(posts) - len(unseen)
	}

	kept, rejected := Filter(unseen)
	report.Filtered = len(rejected)
	for _, r := range rejected {
		p.logger.Debug().
			Str("channel", channel).
			Str("external_id", r.Post.ExternalID).
			Strs("reasons", r.Reasons).
			Msg("post filtered")
	}

	now := time.Now().UTC()
	for _, post := range kept {
		if err := p.storeOne(channel, post, now, &report); err != nil {
			// per-item isolation: log and leave the item for a later
			// reattempt instead of aborting the whole run
			report.Failed++
			p.logger.Error().
				Str("channel", channel).
				Str("external_id", post.ExternalID).
				Err(err).
				Msg("failed to store post")
		}
	}

	if len(report.NewItemIDs) > 0 && p.queue != nil {
		p.queue.EnqueueAnalysis(report.NewItemIDs)
	}

	if !opts.Backfill {
		if err := p.advanceCursor(channel, newest, int64(len(unseen)), now); err != nil {
			return report, err
		}
		report.CursorAdvanced = true
	}

	p.logger.Info().
		Str("channel", channel).
		Int("fetched", report.Fetched).
		Int("truncated", report.Truncated).
		Int("filtered", report.Filtered).
		Int("inserted", report.Inserted).
		Int("updated", report.Updated).
		Int("duplicates", report.Duplicates).
		Int("failed", report.Failed).
		Msg("ingestion run completed")

	return report, nil
}

// truncateAtCursor drops everything at and after the first already-seen
// post. Posts arrive sorted descending by creation time.
func truncateAtCursor(posts []forum.Post, cursor models.Cursor) []forum.Post {
	for i, post := range posts {
		if post.ExternalID == cursor.LastExternalID || !post.CreatedAt.After(cursor.LastPostedAt) {
			return posts[:i]
		}
	}
	return posts
}

// storeOne runs dedup for a single surviving post and applies the resulting
// action: engagement refresh, silent skip, or insert.
func (p *Pipeline) storeOne(channel string, post forum.Post, now time.Time, report *RunReport) error {
	history, err := p.windows.RecentItems(channel, post.ExternalID, now)
	if err != nil {
		return err
	}

	check := dedup.CheckItem(dedup.ItemCandidate{
		ExternalID: post.ExternalID,
		Title:      post.Title,
		Body:       post.Body,
		Author:     post.Author,
	}, history)

	if check.IsDuplicate {
		if check.Reason == dedup.ReasonExactID {
			// re-sighting: refresh the engagement counters in place
			err := p.db.Model(&models.SourceItem{}).
				Where("id = ?", check.MatchedID).
				Updates(map[string]interface{}{
					"score":         post.Score,
					"comment_count": post.CommentCount,
					"upvotes":       post.Upvotes,
					"downvotes":     post.Downvotes,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to refresh engagement for %s: %w", post.ExternalID, err)
			}
			report.Updated++
			return nil
		}
		report.Duplicates++
		return nil
	}

	item := models.SourceItem{
		ID:           uuid.New(),
		ExternalID:   post.ExternalID,
		Channel:      channel,
		Author:       post.Author,
		Title:        post.Title,
		Body:         post.Body,
		Permalink:    post.Permalink,
		Score:        post.Score,
		CommentCount: post.CommentCount,
		Upvotes:      post.Upvotes,
		Downvotes:    post.Downvotes,
		PostedAt:     post.CreatedAt,
		Status:       models.StatusUnprocessed,
	}

	// the unique (channel, external_id) constraint is the idempotence
	// backstop for concurrent runs of the same channel
	res := p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
	if res.Error != nil {
		return fmt.Errorf("failed to insert %s: %w", post.ExternalID, res.Error)
	}
	if res.RowsAffected == 0 {
		report.Duplicates++
		return nil
	}

	report.Inserted++
	report.NewItemIDs = append(report.NewItemIDs, item.ID)
	return nil
}

func (p *Pipeline) loadCursor(channel string) (models.Cursor, bool, error) {
	var cursor models.Cursor
	err := p.db.Where("channel = ?", channel).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Cursor{}, false, nil
	}
	if err != nil {
		return models.Cursor{}, false, fmt.Errorf("failed to load cursor for %s: %w", channel, err)
	}
	return cursor, true, nil
}

// advanceCursor upserts the channel watermark atomically. The conditional
// assignments keep it monotonic under concurrent runs, and the processed
// count moves by increment-in-place rather than read-modify-write.
func (p *Pipeline) advanceCursor(channel string, newest forum.Post, processedDelta int64, now time.Time) error {
	cursor := models.Cursor{
		ID:             uuid.New(),
		Channel:        channel,
		LastExternalID: newest.ExternalID,
		LastPostedAt:   newest.CreatedAt,
		ProcessedCount: processedDelta,
	}

	err := p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_external_id": gorm.Expr(
				"CASE WHEN excluded.last_posted_at > cursors.last_posted_at THEN excluded.last_external_id ELSE cursors.last_external_id END"),
			"last_posted_at": gorm.Expr(
				"CASE WHEN excluded.last_posted_at > cursors.last_posted_at THEN excluded.last_posted_at ELSE cursors.last_posted_at END"),
			"processed_count": gorm.Expr("cursors.processed_count + ?", processedDelta),
			"updated_at":      now,
		}),
	}).Create(&cursor).Error
	if err != nil {
		return fmt.Errorf("failed to advance cursor for %s: %w", channel, err)
	}
	return nil
}
