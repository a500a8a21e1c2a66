package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
)

const (
	auditBufferSize    = 100
	auditBatchSize     = 10
	auditFlushInterval = time.Second
)

// AuditRecorder accepts impersonation audit entries.
type AuditRecorder interface {
	Record(entry model.ImpersonationLog)
}

// AuditTrail persists impersonation entries asynchronously in batches.
type AuditTrail struct {
	repo    repository.ImpersonationLogRepository
	logger  *slog.Logger
	entries chan model.ImpersonationLog
	done    chan struct{}
	once    sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ AuditRecorder = (*AuditTrail)(nil)

// NewAuditTrail starts the background writer. Call Close to flush it.
func NewAuditTrail(repo repository.ImpersonationLogRepository, logger *slog.Logger) *AuditTrail {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AuditTrail{
		repo:    repo,
		logger:  logger,
		entries: make(chan model.ImpersonationLog, auditBufferSize),
		done:    make(chan struct{}),
	}
	go a.worker()
	return a
}

// Record queues an entry. When the buffer is full, or the trail is already
// closed, the entry is written synchronously rather than dropped.
func (a *AuditTrail) Record(entry model.ImpersonationLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	a.mu.RLock()
	queued := false
	if !a.closed {
		select {
		case a.entries <- entry:
			queued = true
		default:
		}
	}
	a.mu.RUnlock()

	if !queued {
		a.write([]model.ImpersonationLog{entry})
	}
}

// Close stops accepting entries and waits for pending ones to be written.
func (a *AuditTrail) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.entries)
		a.mu.Unlock()
		<-a.done
	})
}

func (a *AuditTrail) worker() {
	defer close(a.done)

	batch := make([]model.ImpersonationLog, 0, auditBatchSize)
	ticker := time.NewTicker(auditFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-a.entries:
			if !ok {
				a.write(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= auditBatchSize {
				a.write(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.write(batch)
				batch = batch[:0]
			}
		}
	}
}

func (a *AuditTrail) write(batch []model.ImpersonationLog) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.repo.CreateBatch(ctx, batch); err != nil {
		a.logger.Error("persist impersonation audit",
			slog.Int("entries", len(batch)),
			slog.String("error", err.Error()),
		)
	}
}
