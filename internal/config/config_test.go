package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 30, cfg.AccessTokenMinutes)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenExpiry())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.RevealLoginFailure)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("DB_URI", "postgres://u:p@localhost:5432/roster?sslmode=disable")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("ALGORITHM", "HS512")
	t.Setenv("AUTH_REVEAL_LOGIN_FAILURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.SecretKey)
	assert.Equal(t, "postgres://u:p@localhost:5432/roster?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiry())
	assert.Equal(t, "HS512", cfg.Algorithm)
	assert.True(t, cfg.RevealLoginFailure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rosterd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY: from-file\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, "warn", cfg.LogLevel, "environment overrides the file")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "zero ttl", env: map[string]string{"SECRET_KEY": "k", "ACCESS_TOKEN_EXPIRE_MINUTES": "0"}},
		{name: "bcrypt cost too low", env: map[string]string{"SECRET_KEY": "k", "BCRYPT_COST": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SECRET_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}
