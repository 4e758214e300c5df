package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/pkg/jobs"
)

type auditLogStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditRecorder writes audit log entries asynchronously through a worker
// queue so request latency never pays for the audit insert. Failed writes are
// retried by the queue and logged when retries are exhausted.
type AuditRecorder struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditRecorder builds a recorder backed by the given store.
func NewAuditRecorder(store auditLogStore, cfg jobs.QueueConfig) *AuditRecorder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		entry, ok := job.Payload.(*models.AuditLog)
		if !ok {
			return fmt.Errorf("unexpected audit payload type %T", job.Payload)
		}
		return store.CreateAuditLog(ctx, entry)
	}

	return &AuditRecorder{
		queue:  jobs.NewQueue("audit", handler, cfg),
		logger: logger,
	}
}

// Start launches the background workers.
func (r *AuditRecorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains workers before shutdown.
func (r *AuditRecorder) Stop() {
	r.queue.Stop()
}

// Record enqueues an audit entry. Recording is best-effort: a full queue or
// stopped recorder logs a warning instead of failing the caller.
func (r *AuditRecorder) Record(entry *models.AuditLog) {
	if entry == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    entry.Action,
		Payload: entry,
	}
	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Warn("failed to enqueue audit entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
