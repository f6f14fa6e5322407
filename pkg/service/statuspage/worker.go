package statuspage

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/ops-deck/vigil/pkg/domain/interfaces"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

// SyncJob is a single fire-and-forget synchronization request
type SyncJob struct {
	IncidentID types.IncidentID
	Service    string
	Status     types.IncidentStatus
	Severity   types.Severity
}

// Worker drains sync jobs from a queue and executes them against the
// status page. Sync is best-effort: a failed job is logged and dropped,
// never retried or propagated.
type Worker struct {
	sync  interfaces.StatusPageSync
	queue chan SyncJob
}

// NewWorker creates a new worker with a buffered job queue
func NewWorker(sync interfaces.StatusPageSync, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		sync:  sync,
		queue: make(chan SyncJob, queueSize),
	}
}

// Enqueue submits a sync job without blocking. If the queue is full the
// job is dropped; the status page will converge on the next change.
func (w *Worker) Enqueue(ctx context.Context, job SyncJob) {
	select {
	case w.queue <- job:
	default:
		ctxlog.From(ctx).Warn("Status page sync queue full, dropping job",
			"incidentID", job.IncidentID,
		)
	}
}

// Start runs the worker until the context is cancelled
func (w *Worker) Start(ctx context.Context) {
	logger := ctxlog.From(ctx)
	logger.Info("Status page sync worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Status page sync worker stopped")
			return
		case job := <-w.queue:
			if err := w.sync.SyncComponentStatus(ctx, job.Service, job.Status, job.Severity); err != nil {
				logger.Error("Failed to sync incident to status page",
					"incidentID", job.IncidentID,
					"error", err,
				)
			}
		}
	}
}
