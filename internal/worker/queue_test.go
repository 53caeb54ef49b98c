package worker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestEnqueueAndDepth(t *testing.T) {
	queue := NewAnalysisQueue(4, zerolog.Nop())

	queue.EnqueueAnalysis([]uuid.UUID{uuid.New(), uuid.New()})
	queue.EnqueueAnalysis([]uuid.UUID{uuid.New()})

	if got := queue.Depth(); got != 2 {
		t.Errorf("Depth() = %d, want 2", got)
	}

	task := <-queue.tasks
	if len(task.ItemIDs) != 2 {
		t.Errorf("first task items = %d, want 2", len(task.ItemIDs))
	}
	if task.Attempts != 0 {
		t.Errorf("fresh task attempts = %d, want 0", task.Attempts)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	queue := NewAnalysisQueue(1, zerolog.Nop())

	queue.EnqueueAnalysis([]uuid.UUID{uuid.New()})
	// must not block; the maintenance sweep recovers dropped items
	done := make(chan struct{})
	go func() {
		queue.EnqueueAnalysis([]uuid.UUID{uuid.New()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EnqueueAnalysis blocked on a full queue")
	}

	if got := queue.Depth(); got != 1 {
		t.Errorf("Depth() = %d after overflow, want 1", got)
	}
}

func TestRequeueLaterBumpsAttempts(t *testing.T) {
	queue := NewAnalysisQueue(4, zerolog.Nop())

	queue.requeueLater(AnalysisTask{ItemIDs: []uuid.UUID{uuid.New()}, Attempts: 1}, time.Millisecond)

	select {
	case task := <-queue.tasks:
		if task.Attempts != 2 {
			t.Errorf("attempts = %d after requeue, want 2", task.Attempts)
		}
	case <-time.After(time.Second):
		t.Fatal("requeued task never arrived")
	}
}
