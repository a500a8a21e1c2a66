// Package memory provides thread-safe in-memory repositories for local
// development and tests. They honour the same contracts as the GORM
// repositories, including email uniqueness and gorm.ErrRecordNotFound.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
)

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*model.User
	byEmail map[string]uuid.UUID
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Create inserts a copy of user. The email check and insert happen under one lock.
func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = model.NormalizeEmail(user.Email)
	if _, exists := r.byEmail[user.Email]; exists {
		return apperrors.ErrEmailTaken
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

// Update replaces a stored user.
func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Email = model.NormalizeEmail(user.Email)
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return apperrors.ErrEmailTaken
	}
	delete(r.byEmail, existing.Email)
	user.UpdatedAt = time.Now()

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

// FindByID returns a copy of the user with id.
func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

// FindByEmail returns a copy of the user with email, compared case-insensitively.
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Count returns the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// AccessTokenRepository is an in-memory repository.AccessTokenRepository.
type AccessTokenRepository struct {
	mu     sync.RWMutex
	byHash map[string]*model.AccessToken
}

var _ repository.AccessTokenRepository = (*AccessTokenRepository)(nil)

// NewAccessTokenRepository creates an empty token repository.
func NewAccessTokenRepository() *AccessTokenRepository {
	return &AccessTokenRepository{byHash: make(map[string]*model.AccessToken)}
}

// Create stores a copy of token.
func (r *AccessTokenRepository) Create(_ context.Context, token *model.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[token.TokenHash]; exists {
		return gorm.ErrDuplicatedKey
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	stored := *token
	r.byHash[token.TokenHash] = &stored
	return nil
}

// FindByHash returns a copy of the token with tokenHash.
func (r *AccessTokenRepository) FindByHash(_ context.Context, tokenHash string) (*model.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byHash[tokenHash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

// Revoke marks a live token revoked.
func (r *AccessTokenRepository) Revoke(_ context.Context, tokenHash string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenHash]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	t.RevokedAt = &at
	return true, nil
}

// ImpersonationLogRepository is an in-memory repository.ImpersonationLogRepository.
type ImpersonationLogRepository struct {
	mu   sync.Mutex
	logs []model.ImpersonationLog
}

var _ repository.ImpersonationLogRepository = (*ImpersonationLogRepository)(nil)

// NewImpersonationLogRepository creates an empty audit repository.
func NewImpersonationLogRepository() *ImpersonationLogRepository {
	return &ImpersonationLogRepository{}
}

// Create appends a single entry.
func (r *ImpersonationLogRepository) Create(_ context.Context, log *model.ImpersonationLog) error {
	return r.CreateBatch(context.Background(), []model.ImpersonationLog{*log})
}

// CreateBatch appends entries in order.
func (r *ImpersonationLogRepository) CreateBatch(_ context.Context, logs []model.ImpersonationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range logs {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now()
		}
		r.logs = append(r.logs, l)
	}
	return nil
}

// All returns a snapshot of the stored entries.
func (r *ImpersonationLogRepository) All() []model.ImpersonationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ImpersonationLog(nil), r.logs...)
}
