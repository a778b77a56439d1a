package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"order-import-service/internal/models"
	"order-import-service/internal/util"

	"github.com/google/uuid"
)

var (
	ErrQueueFull     = errors.New("import queue is full")
	ErrWorkerStopped = errors.New("import worker is stopped")
)

// Importer runs one full import from the partner source
type Importer interface {
	ImportFromSource(ctx context.Context) *models.ImportResult
}

// Job is a queued import request
type Job struct {
	ID          string
	SubmittedAt time.Time
}

// ImportWorker runs import jobs one at a time in the background
type ImportWorker struct {
	importer Importer
	jobs     chan Job
	done     chan struct{}

	mu      sync.RWMutex
	stopped bool
}

// NewImportWorker creates a worker with a bounded job queue
func NewImportWorker(importer Importer, queueSize int) *ImportWorker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &ImportWorker{
		importer: importer,
		jobs:     make(chan Job, queueSize),
		done:     make(chan struct{}),
	}
}

// Submit queues an import and returns its job ID without waiting for it
func (w *ImportWorker) Submit() (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return "", ErrWorkerStopped
	}

	job := Job{ID: uuid.New().String(), SubmittedAt: time.Now()}
	select {
	case w.jobs <- job:
		util.ImportQueueDepth.Inc()
		return job.ID, nil
	default:
		util.ImportJobsTotal.WithLabelValues("rejected").Inc()
		return "", ErrQueueFull
	}
}

// Start processes jobs until ctx is cancelled or Stop has drained the queue.
// A job that has begun always runs to completion. Start must be called once.
func (w *ImportWorker) Start(ctx context.Context) error {
	log.Println("Starting import worker...")
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				return nil
			}
			util.ImportQueueDepth.Dec()
			w.run(ctx, job)
		}
	}
}

// Stop rejects new jobs; queued jobs still run before Start returns
func (w *ImportWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.stopped {
		log.Println("Stopping import worker...")
		w.stopped = true
		close(w.jobs)
	}
	return nil
}

// Done is closed when Start returns
func (w *ImportWorker) Done() <-chan struct{} {
	return w.done
}

func (w *ImportWorker) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			util.ImportJobsTotal.WithLabelValues("panicked").Inc()
			log.Printf("Import job %s panicked: %v", job.ID, r)
		}
	}()

	log.Printf("Running import job %s (waited %s)", job.ID, time.Since(job.SubmittedAt).Round(time.Millisecond))

	result := w.importer.ImportFromSource(context.WithoutCancel(ctx))

	status := "completed"
	if result.Failed > 0 {
		status = "completed_with_failures"
	}
	util.ImportJobsTotal.WithLabelValues(status).Inc()

	log.Printf("Import job %s finished: received=%d imported=%d skipped=%d failed=%d duration=%dms",
		job.ID, result.Received, result.Imported, result.Skipped, result.Failed, result.DurationMs)
}
