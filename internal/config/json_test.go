package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	// Durations in JSON are strings parseable by time.ParseDuration ("30s").
	jsonBody := `{
		"app": {
			"signing_secret": "signing_secret",
			"user_id": "user-42",
			"version": "1.2.3"
		},
		"backend": {
			"base_url": "https://api.proscan.app",
			"request_timeout": "30s"
		},
		"object_storage": {
			"base_url": "https://files.proscan.app",
			"request_timeout": "1m"
		},
		"storage": {
			"dsn": "/var/lib/docsync/docsync.db",
			"content_dir": "/var/lib/docsync/content"
		},
		"sync": {
			"max_concurrent_uploads": 3,
			"failure_threshold": 5,
			"recovery_timeout": "1m",
			"operation_timeout": "30s"
		},
		"workers": {
			"sync_interval": "5m"
		}
	}`

	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "signing_secret", cfg.App.SigningSecret)
	assert.Equal(t, "user-42", cfg.App.UserID)
	assert.Equal(t, "https://api.proscan.app", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, "https://files.proscan.app", cfg.ObjectStorage.BaseURL)
	assert.Equal(t, time.Minute, cfg.ObjectStorage.RequestTimeout)
	assert.Equal(t, "/var/lib/docsync/docsync.db", cfg.Storage.DSN)
	assert.Equal(t, 3, cfg.Sync.MaxConcurrentUploads)
	assert.Equal(t, 5, cfg.Sync.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.Sync.RecoveryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	cfg, err := parseJSON("/no/such/file.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestParseJSON_MalformedBody(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"backend": `), 0o600))

	cfg, err := parseJSON(p)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate_MissingBackendURL(t *testing.T) {
	cfg := &StructuredConfig{
		App:     App{SigningSecret: "s", UserID: "u"},
		Storage: Storage{DSN: "/tmp/db.sqlite"},
	}
	assert.ErrorIs(t, cfg.validate(), ErrInvalidBackendConfigs)
}

func TestValidate_MissingSigningSecret(t *testing.T) {
	cfg := &StructuredConfig{
		Backend: Backend{BaseURL: "https://api.proscan.app"},
		Storage: Storage{DSN: "/tmp/db.sqlite"},
	}
	assert.ErrorIs(t, cfg.validate(), ErrInvalidAppConfigs)
}

func TestValidate_InMemoryDSNRejected(t *testing.T) {
	cfg := &StructuredConfig{
		App:     App{SigningSecret: "s", UserID: "u"},
		Backend: Backend{BaseURL: "https://api.proscan.app"},
		Storage: Storage{DSN: ":memory:"},
	}
	assert.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
}

func TestValidate_OK(t *testing.T) {
	cfg := &StructuredConfig{
		App:     App{SigningSecret: "s", UserID: "u"},
		Backend: Backend{BaseURL: "https://api.proscan.app"},
		Storage: Storage{DSN: "/tmp/db.sqlite"},
	}
	assert.NoError(t, cfg.validate())
}
