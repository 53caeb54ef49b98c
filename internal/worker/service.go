// Package worker manages the background pipeline workers: scheduled
// ingestion runs, the analysis queue consumer, and periodic maintenance.
package worker

import (
	"context"
	"sync"
	"time"

	"demand-scout/internal/analysis"
	"demand-scout/internal/clustering"
	"demand-scout/internal/config"
	"demand-scout/internal/forum"
	"demand-scout/internal/ingest"
	"demand-scout/internal/llm"
	"demand-scout/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	requeueBaseDelay = 30 * time.Second
	staleItemAge     = 30 * time.Minute
	staleItemBatch   = 25
)

// Service manages the background workers for the pipeline
type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	pipeline *ingest.Pipeline
	analyzer *analysis.Service
	clusters *clustering.Engine
	queue    *AnalysisQueue
	logger   zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	startedAt time.Time
	mu        sync.RWMutex

	// per-channel pause deadlines after blocked / rate-limited responses.
	// Guarded by its own lock so ingest goroutines never contend with Stop,
	// which holds mu while waiting for them to exit.
	pauseMu     sync.RWMutex
	pausedUntil map[string]time.Time
}

// NewService wires the pipeline components into a worker service
func NewService(cfg *config.Config, db *gorm.DB, logger zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	queue := NewAnalysisQueue(256, logger)

	fetcher := forum.NewClient(cfg.ForumBaseURL, cfg.ForumUserAgent, cfg.ForumRPS, logger)

	modelClient := llm.NewClient(llm.Options{
		BaseURL:    cfg.ModelBaseURL,
		APIKey:     cfg.ModelAPIKey,
		Model:      cfg.ModelName,
		EmbedModel: cfg.EmbedModel,
		EmbedDim:   cfg.EmbedDim,
		Timeout:    cfg.ModelTimeout,
	}, logger)
	embedder := llm.NewCachedEmbedder(modelClient, cfg.EmbedCacheTTL)

	return &Service{
		cfg:         cfg,
		db:          db,
		pipeline:    ingest.NewPipeline(db, fetcher, queue, logger),
		analyzer:    analysis.NewService(db, modelClient, logger),
		clusters:    clustering.NewEngine(db, embedder, cfg.ClusterSimilarityThreshold, cfg.ClusterCandidateLimit, logger),
		queue:       queue,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		pausedUntil: make(map[string]time.Time),
	}
}

// Start starts all background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.logger.Info().Strs("channels", s.cfg.Channels).Msg("starting background workers")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runIngestLoop()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runAnalysisConsumer()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runMaintenance()
	}()

	s.running = true
	s.startedAt = time.Now().UTC()
	return nil
}

// Stop stops all background workers and waits for them to finish
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.logger.Info().Msg("stopping background workers")
	s.cancel()
	s.wg.Wait()
	s.running = false
}

// IsRunning reports whether the workers are active
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// TriggerIngest runs one ingestion pass for a channel outside the schedule
func (s *Service) TriggerIngest(ctx context.Context, channel string, backfill bool) (ingest.RunReport, error) {
	return s.pipeline.Run(ctx, channel, ingest.Options{
		SortOrder: forum.SortNew,
		Limit:     s.cfg.FetchLimit,
		Backfill:  backfill,
	})
}

// runIngestLoop runs scheduled ingestion for every configured channel
func (s *Service) runIngestLoop() {
	// first pass immediately, then on the interval
	s.ingestAll()

	ticker := time.NewTicker(s.cfg.IngestEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info().Msg("ingest loop stopped")
			return
		case <-ticker.C:
			s.ingestAll()
		}
	}
}

func (s *Service) ingestAll() {
	for _, channel := range s.cfg.Channels {
		if s.ctx.Err() != nil {
			return
		}
		if until, paused := s.pauseDeadline(channel); paused {
			s.logger.Debug().Str("channel", channel).Time("until", until).Msg("channel paused, skipping")
			continue
		}

		report, err := s.pipeline.Run(s.ctx, channel, ingest.Options{
			SortOrder: forum.SortNew,
			Limit:     s.cfg.FetchLimit,
		})
		if err != nil {
			if forum.IsRateLimited(err) {
				backoff := forum.SuggestedBackoff(err, time.Minute)
				s.pauseChannel(channel, backoff)
				s.logger.Warn().Str("channel", channel).Dur("backoff", backoff).Msg("rate limited, pausing channel")
				continue
			}
			s.logger.Error().Str("channel", channel).Err(err).Msg("ingestion run failed")
			continue
		}

		if report.Status == ingest.StatusBlocked {
			s.pauseChannel(channel, s.cfg.BlockedPause)
		}
	}
}

// runAnalysisConsumer drains the analysis queue. Retryable failures are
// redelivered with exponential backoff up to the attempt cap.
func (s *Service) runAnalysisConsumer() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info().Msg("analysis consumer stopped")
			return
		case task := <-s.queue.tasks:
			s.handleAnalysisTask(task)
		}
	}
}

// handleAnalysisTask splits the task into model-sized batches so an
// ingestion run's full page never lands on a single invocation.
func (s *Service) handleAnalysisTask(task AnalysisTask) {
	size := s.cfg.AnalysisBatch
	if size < 1 {
		size = 1
	}
	for start := 0; start < len(task.ItemIDs); start += size {
		end := start + size
		if end > len(task.ItemIDs) {
			end = len(task.ItemIDs)
		}
		s.analyzeChunk(AnalysisTask{ItemIDs: task.ItemIDs[start:end], Attempts: task.Attempts})
		if s.ctx.Err() != nil {
			return
		}
	}
}

func (s *Service) analyzeChunk(task AnalysisTask) {
	batch, err := s.analyzer.AnalyzeBatch(s.ctx, task.ItemIDs)
	if err != nil {
		// whole-batch retryable failure
		s.retryTask(task, err)
		return
	}

	var retryIDs []uuid.UUID
	for itemID, itemErr := range batch.Failed {
		if llm.IsRetryable(itemErr) {
			retryIDs = append(retryIDs, itemID)
		}
	}
	if len(retryIDs) > 0 {
		s.retryTask(AnalysisTask{ItemIDs: retryIDs, Attempts: task.Attempts}, nil)
	}

	for itemID, result := range batch.Results {
		if result.AlreadyProcessed {
			continue
		}
		s.clusterItemSignals(itemID, result)
	}
}

func (s *Service) retryTask(task AnalysisTask, cause error) {
	if task.Attempts+1 >= s.cfg.AnalysisMaxAttempts {
		s.logger.Error().
			Int("items", len(task.ItemIDs)).
			Int("attempts", task.Attempts+1).
			Err(cause).
			Msg("analysis task exhausted retries")
		return
	}
	delay := requeueBaseDelay << uint(task.Attempts)
	s.queue.requeueLater(task, delay)
}

// clusterItemSignals feeds an analyzed item's text into the clustering
// engine. Best-effort: the item is already terminal, so failures here are
// logged and the signal is simply lost until the phrase recurs.
func (s *Service) clusterItemSignals(itemID uuid.UUID, result analysis.Result) {
	var item models.SourceItem
	if err := s.db.First(&item, "id = ?", itemID).Error; err != nil {
		s.logger.Warn().Str("item", itemID.String()).Err(err).Msg("failed to load item for clustering")
		return
	}

	var opportunityID *uuid.UUID
	if result.IsOpportunity {
		opportunityID = &result.OpportunityID
	}

	text := item.Title + ". " + item.Body
	if _, err := s.clusters.ProcessText(s.ctx, text, item.Channel, opportunityID); err != nil {
		s.logger.Warn().Str("item", itemID.String()).Err(err).Msg("signal clustering incomplete")
	}
}

// runMaintenance runs the periodic sweeps: stale-cluster reaping and
// re-enqueueing items that never reached a terminal state.
func (s *Service) runMaintenance() {
	ticker := time.NewTicker(s.cfg.MaintainEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info().Msg("maintenance worker stopped")
			return
		case <-ticker.C:
			if _, err := s.clusters.ReapStale(s.cfg.ClusterStaleDays, s.cfg.ClusterOccurrenceFloor, time.Now().UTC()); err != nil {
				s.logger.Error().Err(err).Msg("cluster reaping failed")
			}
			s.requeueStaleItems()
		}
	}
}

// requeueStaleItems picks up unprocessed items that fell through (dropped
// task, crash mid-batch) and hands them back to the analysis queue.
func (s *Service) requeueStaleItems() {
	cutoff := time.Now().UTC().Add(-staleItemAge)

	var ids []uuid.UUID
	err := s.db.Model(&models.SourceItem{}).
		Where("processed_at IS NULL AND created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(staleItemBatch).
		Pluck("id", &ids).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to find stale items")
		return
	}

	if len(ids) > 0 {
		s.logger.Info().Int("items", len(ids)).Msg("requeueing stale unprocessed items")
		s.queue.EnqueueAnalysis(ids)
	}
}

// Status reports the current worker state for the ops endpoint
func (s *Service) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"running":     s.running,
		"channels":    s.cfg.Channels,
		"queue_depth": s.queue.Depth(),
	}
	if s.running {
		status["uptime"] = time.Since(s.startedAt).String()
	}

	paused := make(map[string]string)
	now := time.Now().UTC()
	s.pauseMu.RLock()
	for channel, until := range s.pausedUntil {
		if until.After(now) {
			paused[channel] = until.Format(time.RFC3339)
		}
	}
	s.pauseMu.RUnlock()
	if len(paused) > 0 {
		status["paused_channels"] = paused
	}

	return status
}

func (s *Service) pauseChannel(channel string, d time.Duration) {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	s.pausedUntil[channel] = time.Now().UTC().Add(d)
}

func (s *Service) pauseDeadline(channel string) (time.Time, bool) {
	s.pauseMu.RLock()
	defer s.pauseMu.RUnlock()
	until, ok := s.pausedUntil[channel]
	if !ok || time.Now().UTC().After(until) {
		return time.Time{}, false
	}
	return until, true
}
