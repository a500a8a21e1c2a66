package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

// AccessTokenRepository defines access token persistence operations.
type AccessTokenRepository interface {
	Create(ctx context.Context, token *model.AccessToken) error
	// FindByHash returns gorm.ErrRecordNotFound for unknown hashes.
	FindByHash(ctx context.Context, tokenHash string) (*model.AccessToken, error)
	// Revoke marks a live token revoked and reports whether a row changed.
	Revoke(ctx context.Context, tokenHash string, at time.Time) (bool, error)
}

type accessTokenRepository struct {
	db *gorm.DB
}

// NewAccessTokenRepository creates a new access token repository.
func NewAccessTokenRepository(db *gorm.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

// Create creates a new access token record.
func (r *accessTokenRepository) Create(ctx context.Context, token *model.AccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByHash finds a token by the hash of its opaque string.
func (r *accessTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*model.AccessToken, error) {
	var token model.AccessToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke flips the revoked flag in a single conditional update.
func (r *accessTokenRepository) Revoke(ctx context.Context, tokenHash string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.AccessToken{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
