package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

func TestUserRepository_EmailIsUniqueAndCaseInsensitive(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Name: "A", Email: "A@X.com"}))
	err := repo.Create(ctx, &model.User{Name: "B", Email: "a@x.COM "})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	u, err := repo.FindByEmail(ctx, "a@X.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, 1, repo.Count())

	_, err = repo.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewUserRepository()
	var wg sync.WaitGroup
	var created int32

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(context.Background(), &model.User{Name: "x", Email: "race@x.com"}); err == nil {
				atomic.AddInt32(&created, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created)
	assert.Equal(t, 1, repo.Count())
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u := &model.User{Name: "A", Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, u))

	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	found.Name = "mutated"

	again, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func TestAccessTokenRepository_Revoke(t *testing.T) {
	repo := NewAccessTokenRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.AccessToken{TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}))

	changed, err := repo.Revoke(ctx, "h", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Revoke(ctx, "h", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.Revoke(ctx, "unknown", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	tok, err := repo.FindByHash(ctx, "h")
	require.NoError(t, err)
	assert.True(t, tok.Revoked)
	assert.NotNil(t, tok.RevokedAt)
}
