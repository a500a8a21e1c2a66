package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HenriqueSouzza/unidos-backend/internal/cache"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

const (
	accessTokenKeyPrefix  = "access_token:"
	revokedTokenKeyPrefix = "revoked_access_token:"
	// maxCacheTTL bounds how long a token record lives in redis.
	maxCacheTTL = 15 * time.Minute
)

// TokenCache is a read-through cache of access token records keyed by token hash.
// Once MarkRevoked is called for a hash, Get must miss for it until ttl
// passes, even if a stale live record is Put afterwards.
type TokenCache interface {
	Get(ctx context.Context, tokenHash string) (*model.AccessToken, bool)
	Put(ctx context.Context, token *model.AccessToken)
	MarkRevoked(ctx context.Context, tokenHash string, ttl time.Duration)
}

// TokenStore caches token records in Redis.
type TokenStore struct {
	cache *cache.Client
	now   func() time.Time
}

// Ensure TokenStore implements TokenCache
var _ TokenCache = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache, now: time.Now}
}

// Get returns a cached record. Revoked hashes and decode failures count as a miss.
func (s *TokenStore) Get(ctx context.Context, tokenHash string) (*model.AccessToken, bool) {
	if s.isRevoked(ctx, tokenHash) {
		return nil, false
	}
	data, _ := s.cache.Get(ctx, accessTokenKeyPrefix+tokenHash)
	if data == nil {
		return nil, false
	}
	var token model.AccessToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, false
	}
	token.TokenHash = tokenHash
	return &token, true
}

// Put caches a live token until it expires, capped at maxCacheTTL.
// Revoked and expired records are not cached.
func (s *TokenStore) Put(ctx context.Context, token *model.AccessToken) {
	if token.Revoked || s.isRevoked(ctx, token.TokenHash) {
		return
	}
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, accessTokenKeyPrefix+token.TokenHash, payload, ttl)
}

// MarkRevoked blacklists the hash for ttl and drops any cached record.
// The marker is written first so a concurrent Put cannot resurrect the token.
func (s *TokenStore) MarkRevoked(ctx context.Context, tokenHash string, ttl time.Duration) {
	_ = s.cache.Set(ctx, revokedTokenKeyPrefix+tokenHash, []byte("1"), ttl)
	_ = s.cache.Delete(ctx, accessTokenKeyPrefix+tokenHash)
}

func (s *TokenStore) isRevoked(ctx context.Context, tokenHash string) bool {
	data, _ := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenHash)
	return data != nil
}
