package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository/memory"
)

func TestReadSeedUsers(t *testing.T) {
	users, err := readSeedUsers(strings.NewReader(`[{"name":"Op","email":"op@cnec.br","password":"secret1"}]`))
	require.NoError(t, err)
	assert.Equal(t, []SeedUser{{Name: "Op", Email: "op@cnec.br", Password: "secret1"}}, users)

	_, err = readSeedUsers(strings.NewReader(`[{"name":"Op","email":"op@cnec.br"}]`))
	assert.Error(t, err)

	_, err = readSeedUsers(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestSeedUsers(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, repo.Create(ctx, &model.User{Name: "Old", Email: "op@cnec.br", PasswordHash: "x"}))

	created, updated, err := seedUsers(ctx, repo, hasher, []SeedUser{
		{Name: "Operator", Email: "OP@cnec.br", Password: "secret1"},
		{Name: "New", Email: "new@cnec.br", Password: "secret2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 2, repo.Count())

	op, err := repo.FindByEmail(ctx, "op@cnec.br")
	require.NoError(t, err)
	assert.Equal(t, "Operator", op.Name)
	assert.True(t, hasher.Verify(op.PasswordHash, "secret1"))
}
