package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditQueue interface {
	TryEnqueue(job jobs.Job) error
}

// AuditService records the audit trail off the request path. Entries that
// do not fit into the queue are dropped and counted.
type AuditService struct {
	repo    auditRepository
	queue   auditQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs an AuditService. Attach a queue with
// UseQueue; without one entries are written synchronously.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// UseQueue routes entries through queue.
func (s *AuditService) UseQueue(queue auditQueue) {
	s.queue = queue
}

// Record enqueues an audit entry. It never fails the caller.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if s.queue == nil {
		if err := s.repo.Create(ctx, &entry); err != nil {
			s.logger.Warn("write audit log", zap.String("action", entry.Action), zap.Error(err))
		}
		return
	}

	err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
	if err == nil {
		return
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		s.metrics.RecordAuditDropped()
	}
	s.logger.Warn("audit log dropped", zap.String("action", entry.Action), zap.String("resource", entry.Resource), zap.Error(err))
}

// Handle is the queue handler persisting one entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	return s.repo.Create(ctx, &entry)
}
