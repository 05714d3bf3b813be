package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/pkg/jobs"
)

type recordingAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (r *recordingAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.entries = append(r.entries, *log)
	return nil
}

func (r *recordingAuditRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type fullQueue struct{}

func (fullQueue) TryEnqueue(job jobs.Job) error {
	return jobs.ErrQueueFull
}

func TestAuditServiceWritesThroughQueue(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, NewMetricsService(), zap.NewNop())
	queue := jobs.NewQueue("audit", svc.Handle, jobs.QueueConfig{Workers: 1, BufferSize: 4, RetryDelay: time.Millisecond})
	svc.UseQueue(queue)
	queue.Start(context.Background())

	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionApprove, Resource: "registration"})
	queue.Stop()

	require.Equal(t, 1, repo.len())
	assert.Equal(t, models.AuditActionApprove, repo.entries[0].Action)
	assert.NotEmpty(t, repo.entries[0].ID)
}

func TestAuditServiceCountsDroppedEntries(t *testing.T) {
	repo := &recordingAuditRepo{}
	metrics := NewMetricsService()
	svc := NewAuditService(repo, metrics, zap.NewNop())
	svc.UseQueue(fullQueue{})

	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionLogin})

	assert.Equal(t, uint64(1), metrics.Snapshot().AuditDroppedTotal)
	assert.Equal(t, 0, repo.len())
}

func TestAuditServiceWithoutQueueWritesInline(t *testing.T) {
	repo := &recordingAuditRepo{err: errors.New("db down")}
	svc := NewAuditService(repo, nil, zap.NewNop())

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionCreate})
	})

	repo.err = nil
	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionCreate})
	assert.Equal(t, 1, repo.len())
}

func TestAuditServicePersistsBufferedEntriesAfterShutdownSignal(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, NewMetricsService(), zap.NewNop())
	queue := jobs.NewQueue("audit", svc.Handle, jobs.QueueConfig{Workers: 1, BufferSize: 8, RetryDelay: time.Millisecond})
	svc.UseQueue(queue)

	signalCtx, cancel := context.WithCancel(context.Background())
	queue.Start(signalCtx)
	for i := 0; i < 3; i++ {
		svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionUpdate, Resource: "student"})
	}
	cancel()
	queue.Stop()

	assert.Equal(t, 3, repo.len())
}
