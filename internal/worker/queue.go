package worker

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AnalysisTask is one unit of analysis work: a batch of newly inserted item
// ids. Tasks are delivered at least once; the analysis pipeline is
// idempotent, so redelivery is safe.
type AnalysisTask struct {
	ItemIDs  []uuid.UUID
	Attempts int
}

// AnalysisQueue is the in-process work queue between ingestion and analysis.
// It stands in for a durable external queue; the contract the consumers rely
// on (at-least-once, retry with backoff) is the same.
type AnalysisQueue struct {
	tasks  chan AnalysisTask
	logger zerolog.Logger
}

// NewAnalysisQueue creates a bounded analysis queue
func NewAnalysisQueue(size int, logger zerolog.Logger) *AnalysisQueue {
	if size <= 0 {
		size = 256
	}
	return &AnalysisQueue{
		tasks:  make(chan AnalysisTask, size),
		logger: logger,
	}
}

// EnqueueAnalysis satisfies the ingest.Queue contract. A full queue drops
// the task with a warning; the maintenance sweep re-enqueues unprocessed
// items, so nothing is lost permanently.
func (q *AnalysisQueue) EnqueueAnalysis(itemIDs []uuid.UUID) {
	q.enqueue(AnalysisTask{ItemIDs: itemIDs})
}

func (q *AnalysisQueue) enqueue(task AnalysisTask) {
	select {
	case q.tasks <- task:
	default:
		q.logger.Warn().Int("items", len(task.ItemIDs)).Msg("analysis queue full, dropping task")
	}
}

// requeueLater redelivers a task after a backoff, bumping its attempt count
func (q *AnalysisQueue) requeueLater(task AnalysisTask, delay time.Duration) {
	task.Attempts++
	time.AfterFunc(delay, func() {
		q.enqueue(task)
	})
}

// Depth reports how many tasks are waiting
func (q *AnalysisQueue) Depth() int {
	return len(q.tasks)
}
