package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_TTL_MINUTES", "")
	t.Setenv("PASSWORD_MIN_LENGTH", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOKEN_TTL_MINUTES", "5")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("SESSION_BACKEND", "filesystem")
	t.Setenv("SESSION_SECURE", "true")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.SeedDemo)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "filesystem", cfg.SessionBackend)
	assert.True(t, cfg.SessionSecure)
}
