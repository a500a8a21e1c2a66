package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
)

// DefaultTokenTTL is used when no lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

// IssuedToken is returned to callers exactly once; the plaintext token is not stored.
type IssuedToken struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Token       model.AccessToken `json:"-"`
}

// TokenIssuer mints, validates and revokes opaque bearer tokens.
type TokenIssuer struct {
	tokens repository.AccessTokenRepository
	users  repository.UserRepository
	cache  TokenCache
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) { i.now = now }
}

// WithCache sets the token record cache.
func WithCache(c TokenCache) IssuerOption {
	return func(i *TokenIssuer) { i.cache = c }
}

// NewTokenIssuer creates an issuer. A non-positive ttl selects DefaultTokenTTL.
func NewTokenIssuer(tokens repository.AccessTokenRepository, users repository.UserRepository, ttl time.Duration, opts ...IssuerOption) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	i := &TokenIssuer{
		tokens: tokens,
		users:  users,
		cache:  noopCache{},
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue mints a new token bound to user.
func (i *TokenIssuer) Issue(ctx context.Context, user *model.User, origin model.TokenOrigin) (*IssuedToken, error) {
	raw, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := i.now()
	record := &model.AccessToken{
		TokenHash: HashToken(raw),
		UserID:    user.ID,
		TokenType: model.TokenTypeBearer,
		Origin:    origin,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &IssuedToken{
		AccessToken: raw,
		TokenType:   model.TokenTypeBearer,
		ExpiresAt:   record.ExpiresAt,
		Token:       *record,
	}, nil
}

// Revoke marks the token revoked. Revoking an unknown or already revoked
// token is not an error.
func (i *TokenIssuer) Revoke(ctx context.Context, token string) error {
	hash := HashToken(token)
	if _, err := i.tokens.Revoke(ctx, hash, i.now()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	// A token never outlives the issuer ttl, so the marker can expire with it.
	i.cache.MarkRevoked(ctx, hash, i.ttl)
	return nil
}

// Validate returns the user bound to a live token. Revocation is reported
// before expiry.
func (i *TokenIssuer) Validate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.ErrTokenNotFound
	}
	record, err := i.lookup(ctx, HashToken(token))
	if err != nil {
		return nil, err
	}
	if record.Revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	if record.IsExpired(i.now()) {
		return nil, apperrors.ErrTokenExpired
	}

	user, err := i.users.FindByID(ctx, record.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token owner: %w", err)
	}
	return user, nil
}

func (i *TokenIssuer) lookup(ctx context.Context, hash string) (*model.AccessToken, error) {
	if cached, ok := i.cache.Get(ctx, hash); ok {
		return cached, nil
	}
	record, err := i.tokens.FindByHash(ctx, hash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	i.cache.Put(ctx, record)
	return record, nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*model.AccessToken, bool) { return nil, false }
func (noopCache) Put(context.Context, *model.AccessToken)                {}
func (noopCache) MarkRevoked(context.Context, string, time.Duration)     {}
