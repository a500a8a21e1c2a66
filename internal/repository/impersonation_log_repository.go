package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

// ImpersonationLogRepository defines impersonation audit persistence operations.
type ImpersonationLogRepository interface {
	Create(ctx context.Context, log *model.ImpersonationLog) error
	CreateBatch(ctx context.Context, logs []model.ImpersonationLog) error
}

type impersonationLogRepository struct {
	db *gorm.DB
}

// NewImpersonationLogRepository creates a new impersonation log repository.
func NewImpersonationLogRepository(db *gorm.DB) ImpersonationLogRepository {
	return &impersonationLogRepository{db: db}
}

// Create creates a new audit entry.
func (r *impersonationLogRepository) Create(ctx context.Context, log *model.ImpersonationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateBatch creates multiple audit entries in batches.
func (r *impersonationLogRepository) CreateBatch(ctx context.Context, logs []model.ImpersonationLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}
