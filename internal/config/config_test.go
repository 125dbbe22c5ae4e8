package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WALLHUB_POSTGRES_DSN", "postgres://localhost/wallhub")
	t.Setenv("WALLHUB_SECURITY_JWTACCESSSECRET", "0123456789abcdef0123")
	t.Setenv("WALLHUB_CACHE_LISTTTL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/wallhub", cfg.Postgres.DSN)
	assert.Equal(t, 5*time.Second, cfg.Cache.ListTTL)
	assert.Equal(t, "wallhub-media", cfg.Storage.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.Storage.DownloadLinkTTL)
	assert.Equal(t, "wallhub:tasks", cfg.Worker.Stream)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresSecrets(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WALLHUB_POSTGRES_DSN", "postgres://localhost/wallhub")
	t.Setenv("WALLHUB_SECURITY_JWTACCESSSECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestStorageRejectsNegativeDownloadTTL(t *testing.T) {
	cfg := StorageConfig{Endpoint: "minio:9000", Bucket: "media", DownloadLinkTTL: -time.Second}
	assert.Error(t, cfg.Validate())

	cfg.DownloadLinkTTL = 0
	assert.NoError(t, cfg.Validate())
}

// chdirTemp keeps a stray config.yaml in the working tree out of Load.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
