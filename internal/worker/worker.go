// Package worker consumes jobs from the queue and executes them to a
// terminal outcome. One worker processes one job at a time; the job's
// file handle, batch accumulator and store connection are never shared
// across concurrent runs.
package worker

import (
	"context"
	"time"

	"github.com/Pankaj-karwasra/product-importer/internal/importer"
	"github.com/Pankaj-karwasra/product-importer/internal/logging"
	"github.com/Pankaj-karwasra/product-importer/internal/notify"
	"github.com/Pankaj-karwasra/product-importer/internal/queue"
)

// retryDelay is the pause after a failed dequeue before trying again.
var retryDelay = time.Second

// Source yields the next job, blocking until one is available or the
// context is cancelled. Satisfied by *queue.RedisQueue.
type Source interface {
	Next(ctx context.Context) (queue.Job, error)
}

// ImportRunner executes one CSV import job. Satisfied by *importer.Importer.
type ImportRunner interface {
	Run(ctx context.Context, sourcePath, jobID string) importer.Outcome
}

// Deliverer executes one webhook delivery. Satisfied by *notify.Dispatcher.
type Deliverer interface {
	Deliver(ctx context.Context, endpointID string) notify.Result
}

// Worker is the job consume-execute loop.
type Worker struct {
	jobs     Source
	importer ImportRunner
	notifier Deliverer
}

// New creates a Worker over its three collaborators.
func New(jobs Source, imp ImportRunner, notifier Deliverer) *Worker {
	return &Worker{jobs: jobs, importer: imp, notifier: notifier}
}

// Run consumes jobs until the context is cancelled. A failed job never
// stops the loop; only cancellation does.
func (w *Worker) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	log.Info("worker started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		job, err := w.jobs.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("dequeue failed", "error", err)
			if !sleepWithContext(ctx, retryDelay) {
				return ctx.Err()
			}
			continue
		}

		w.execute(ctx, job)
	}
}

func (w *Worker) execute(ctx context.Context, job queue.Job) {
	log := logging.WithFields(ctx, "job_id", job.JobID, "kind", job.Kind)

	switch job.Kind {
	case queue.KindImport:
		outcome := w.importer.Run(ctx, job.SourcePath, job.JobID)
		log.Info("import job finished", "status", outcome.Status, "processed", outcome.Processed)

	case queue.KindNotify:
		result := w.notifier.Deliver(ctx, job.EndpointID)
		log.Info("notify job finished",
			"endpoint_id", job.EndpointID,
			"status", result.Status,
			"status_code", result.StatusCode,
		)

	default:
		log.Warn("unknown job kind, dropping")
	}
}

// sleepWithContext pauses for d, returning false when the context ends
// first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
