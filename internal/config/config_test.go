package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORAGE", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("IMPERSONATORS", "")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "mysql", cfg.Storage)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.Impersonators)
	assert.Equal(t, "cnec.br", cfg.AllowedEmailDomain)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("IMPERSONATORS", " Caio.Oliveira@cnec.br, ,henrique.souza@cnec.br ")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "Example.ORG")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"caio.oliveira@cnec.br", "henrique.souza@cnec.br"}, cfg.Impersonators)
	assert.Equal(t, "example.org", cfg.AllowedEmailDomain)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("REDIS_DB", "two")
	t.Setenv("AUTH_RATE_LIMIT", "fast")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 1.0, cfg.AuthRateLimit)
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("LIST_VAR", "a@x.com,B@X.COM")
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, getEnvList("LIST_VAR"))
	assert.Nil(t, getEnvList("NONEXISTENT_LIST_VAR"))
}
