package adapter

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/utils"
)

const defaultTransferTimeout = 60 * time.Second

type httpObjectStore struct {
	client  *utils.HTTPClient
	baseURL string
	logger  *logger.Logger
}

// NewHTTPObjectStore constructs an HTTP implementation of [ObjectStore]
// talking to the content storage service. Objects live under deterministic
// keys, so a retried upload is an idempotent overwrite.
func NewHTTPObjectStore(storeCfg config.ObjectStorage, log *logger.Logger) (ObjectStore, error) {
	baseURL, err := normalizeBaseURL(storeCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid object storage base url: %w", err)
	}

	timeout := storeCfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTransferTimeout
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &httpObjectStore{client: client, baseURL: baseURL, logger: log}, nil
}

// ContentKey returns the deterministic object key for a document's content.
func ContentKey(userID, docID, format string) string {
	return fmt.Sprintf("%s/%s.%s", userID, docID, strings.TrimPrefix(format, "."))
}

// ThumbnailKey returns the deterministic object key for a document's
// thumbnail.
func ThumbnailKey(userID, docID string) string {
	return fmt.Sprintf("%s/%s_thumb.jpg", userID, docID)
}

// Upload implements [ObjectStore]. It PUTs the file body to /objects/{key};
// PUT semantics make retries overwrite the same object rather than create
// duplicates.
func (s *httpObjectStore) Upload(ctx context.Context, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open content file: %s", ErrStorage, err)
	}
	defer f.Close()

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(f).
		Put("/objects/" + key)
	if err != nil {
		return "", fmt.Errorf("upload object request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return s.PublicURL(key), nil
}

// Download implements [ObjectStore]. It streams /objects/{key} into destPath
// via resty's output-file support, creating parent directories first.
func (s *httpObjectStore) Download(ctx context.Context, key, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("%w: create content dir: %s", ErrStorage, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetOutput(destPath).
		Get("/objects/" + key)
	if err != nil {
		return fmt.Errorf("download object request: %w: %s", ErrNetwork, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: object %s", ErrNotFound, key)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: http %d downloading %s", ErrNetwork, resp.StatusCode(), key)
	}

	return nil
}

// Delete implements [ObjectStore]. A 404 is treated as success: the object is
// already gone, which is the state the caller wants.
func (s *httpObjectStore) Delete(ctx context.Context, key string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete("/objects/" + key)
	if err != nil {
		return fmt.Errorf("delete object request: %w: %s", ErrNetwork, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}

	return mapHTTPError(resp)
}

// PublicURL implements [ObjectStore].
func (s *httpObjectStore) PublicURL(key string) string {
	return s.baseURL + "/objects/" + key
}
