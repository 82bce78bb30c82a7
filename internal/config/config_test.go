package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.8, cfg.Verification.VerifiedThreshold)
	assert.Equal(t, 0.8, cfg.Verification.NameSimilarityThreshold)
	assert.Equal(t, 0.7, cfg.Verification.MarksSimilarityThreshold)
	assert.Equal(t, 0.5, cfg.Verification.LowConfidenceThreshold)
	assert.Equal(t, 10, cfg.Verification.CandidateLimit)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"jpg", "jpeg", "png", "pdf"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 30*time.Minute, cfg.Security.TokenTTL)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":9090},"verification":{"verified_threshold":0.9,"candidate_limit":10,"bulk_limit":100}}`), 0o600))

	t.Setenv("VERIFICATION_THRESHOLD", "0.75")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.75, cfg.Verification.VerifiedThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfig_RejectsInvalidThreshold(t *testing.T) {
	t.Setenv("VERIFICATION_THRESHOLD", "1.5")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidate_UnknownStorageDriver(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "ftp"
	assert.Error(t, cfg.Validate())
}

func TestGetDatabaseURL(t *testing.T) {
	db := DatabaseConfig{User: "app", Password: "secret", Host: "db", Port: 5432, DBName: "certs", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:secret@db:5432/certs?sslmode=disable", db.GetDatabaseURL())
}
