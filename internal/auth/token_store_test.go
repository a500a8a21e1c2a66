package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueSouzza/unidos-backend/internal/cache"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

var storeNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newRedisTokenStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewTokenStore(cache.NewWithClient(client, "test:"))
	store.now = func() time.Time { return storeNow }
	return store, mr
}

func TestTokenStore_RoundTrip(t *testing.T) {
	store, _ := newRedisTokenStore(t)
	ctx := context.Background()
	record := &model.AccessToken{
		ID:        uuid.New(),
		TokenHash: "h1",
		UserID:    uuid.New(),
		TokenType: model.TokenTypeBearer,
		Origin:    model.TokenOriginLogin,
		IssuedAt:  storeNow,
		ExpiresAt: storeNow.Add(time.Hour),
	}

	store.Put(ctx, record)
	got, ok := store.Get(ctx, "h1")

	require.True(t, ok)
	assert.Equal(t, "h1", got.TokenHash)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.UserID, got.UserID)
	assert.Equal(t, model.TokenOriginLogin, got.Origin)
	assert.True(t, record.ExpiresAt.Equal(got.ExpiresAt))
	assert.False(t, got.Revoked)
}

func TestTokenStore_TTL(t *testing.T) {
	store, mr := newRedisTokenStore(t)
	ctx := context.Background()

	store.Put(ctx, &model.AccessToken{TokenHash: "long", ExpiresAt: storeNow.Add(24 * time.Hour)})
	store.Put(ctx, &model.AccessToken{TokenHash: "short", ExpiresAt: storeNow.Add(5 * time.Minute)})

	assert.Equal(t, maxCacheTTL, mr.TTL("test:access_token:long"))
	assert.Equal(t, 5*time.Minute, mr.TTL("test:access_token:short"))
}

func TestTokenStore_SkipsDeadRecords(t *testing.T) {
	store, mr := newRedisTokenStore(t)
	ctx := context.Background()

	store.Put(ctx, &model.AccessToken{TokenHash: "revoked", Revoked: true, ExpiresAt: storeNow.Add(time.Hour)})
	store.Put(ctx, &model.AccessToken{TokenHash: "expired", ExpiresAt: storeNow})

	assert.False(t, mr.Exists("test:access_token:revoked"))
	assert.False(t, mr.Exists("test:access_token:expired"))
}

func TestTokenStore_UndecodableIsMiss(t *testing.T) {
	store, mr := newRedisTokenStore(t)
	require.NoError(t, mr.Set("test:access_token:bad", "not json"))

	_, ok := store.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestTokenStore_MarkRevoked(t *testing.T) {
	store, mr := newRedisTokenStore(t)
	ctx := context.Background()
	record := &model.AccessToken{TokenHash: "h2", ExpiresAt: storeNow.Add(time.Hour)}

	store.Put(ctx, record)
	store.MarkRevoked(ctx, "h2", time.Hour)

	_, ok := store.Get(ctx, "h2")
	assert.False(t, ok)
	assert.False(t, mr.Exists("test:access_token:h2"))
	assert.Equal(t, time.Hour, mr.TTL("test:revoked_access_token:h2"))

	// A stale live copy written after revocation is never served.
	store.Put(ctx, record)
	_, ok = store.Get(ctx, "h2")
	assert.False(t, ok)
}

func TestTokenIssuer_RevokeWinsOverConcurrentValidateWithRedis(t *testing.T) {
	store, _ := newRedisTokenStore(t)
	store.now = time.Now
	assertRevokeWinsOverConcurrentValidate(t, store)
}
