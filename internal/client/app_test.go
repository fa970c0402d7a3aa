package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
)

func testConfig(t *testing.T) *config.StructuredConfig {
	t.Helper()
	dir := t.TempDir()
	return &config.StructuredConfig{
		App: config.App{
			UserID:        "u-test",
			SigningSecret: "secret",
			SessionToken:  "token",
		},
		Backend:       config.Backend{BaseURL: "http://localhost:8080"},
		ObjectStorage: config.ObjectStorage{BaseURL: "http://localhost:9000"},
		Storage: config.Storage{
			DSN:        filepath.Join(dir, "docsync.db"),
			ContentDir: filepath.Join(dir, "content"),
		},
	}
}

func TestNewApp_WiresEngine(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logger.Nop())

	require.NoError(t, err)
	assert.NotNil(t, app.Documents())
	assert.NotNil(t, app.coord)
	assert.NotNil(t, app.uploads)
	assert.NotNil(t, app.downloads)
}

func TestNewApp_RejectsEmptyBackendURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.BaseURL = ""

	_, err := NewApp(context.Background(), cfg, logger.Nop())

	assert.Error(t, err)
}

func TestApp_SetOnlineNeverBlocks(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		// No consumer running: repeated reports must coalesce, not block.
		app.SetOnline(false)
		app.SetOnline(true)
		app.SetOnline(false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SetOnline blocked without a consumer")
	}
}
