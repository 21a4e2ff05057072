package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, int64(5<<20), cfg.SettingsQuotaBytes)
	assert.Equal(t, 2*time.Hour, cfg.DraftTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT: \"9090\"\nDEFAULT_LOCALE: ar\n"), 0o600))

	t.Setenv("DEFAULT_LOCALE", "en")
	t.Setenv("DATABASE_URL", "postgres://localhost/stockroom")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, "postgres://localhost/stockroom", cfg.DatabaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{AppEnv: "production", DatabaseURL: "postgres://x", JWTSecret: defaultJWTSecret, SettingsQuotaBytes: 1}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.DatabaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, cfg.Location())
}
