package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the docsync
// engine. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, and an optional
// JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: the signing secret for
	// critical mutating requests, the owning user id, and the session
	// token supplied by the host application.
	App App `envPrefix:"APP_"`

	// Backend holds the remote document API endpoint settings.
	Backend Backend `envPrefix:"BACKEND_"`

	// ObjectStorage holds the object-storage service endpoint settings.
	ObjectStorage ObjectStorage `envPrefix:"OBJECT_STORAGE_"`

	// Storage holds local durable store settings (sqlite DSN, content
	// directory for downloaded files).
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds concurrency limits, rate limits, and circuit-breaker
	// settings for the sync engine.
	Sync Sync `envPrefix:"SYNC_"`

	// Workers holds background worker settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// SigningSecret is the HMAC-SHA256 key used to sign critical mutating
	// requests (PUT/DELETE on a document). Must be kept confidential.
	// Env: APP_SIGNING_SECRET
	SigningSecret string `env:"SIGNING_SECRET"`

	// UserID identifies the owning user; it is part of every object
	// storage key and of the request signature payload.
	// Env: APP_USER_ID
	UserID string `env:"USER_ID"`

	// SessionToken is the bearer token issued by the host application's
	// authentication layer. The engine consumes it; it never performs
	// authentication itself.
	// Env: APP_SESSION_TOKEN
	SessionToken string `env:"SESSION_TOKEN"`

	// Version is the semantic version string of the running engine.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Backend holds settings for the remote document API.
type Backend struct {
	// BaseURL is the backend base URL (e.g. "https://api.proscan.app").
	// Env: BACKEND_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the per-request timeout for backend calls
	// (e.g. "30s"). Feeds into circuit-breaker failure accounting.
	// Env: BACKEND_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// ObjectStorage holds settings for the content storage service.
type ObjectStorage struct {
	// BaseURL is the object-storage service base URL.
	// Env: OBJECT_STORAGE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the per-request timeout for transfers. Transfers
	// move whole files, so this is typically longer than the backend
	// timeout (e.g. "60s").
	// Env: OBJECT_STORAGE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds local durable store settings.
type Storage struct {
	// DSN is the sqlite database file path holding the documents,
	// sync-state, and cursor tables.
	// Env: STORAGE_DATABASE_URI
	DSN string `env:"DATABASE_URI"`

	// ContentDir is the directory where downloaded document content and
	// thumbnails are written.
	// Env: STORAGE_CONTENT_DIR
	ContentDir string `env:"CONTENT_DIR"`
}

// Sync holds concurrency, rate-limit, and circuit-breaker settings for the
// engine. Zero values fall back to component defaults at construction time.
type Sync struct {
	// MaxConcurrentUploads bounds in-flight upload jobs.
	// Env: SYNC_MAX_CONCURRENT_UPLOADS
	MaxConcurrentUploads int `env:"MAX_CONCURRENT_UPLOADS"`

	// MaxConcurrentDownloads bounds in-flight download jobs.
	// Env: SYNC_MAX_CONCURRENT_DOWNLOADS
	MaxConcurrentDownloads int `env:"MAX_CONCURRENT_DOWNLOADS"`

	// MaxConcurrentImageOps bounds concurrent image-processing slots
	// requested through the resource guard.
	// Env: SYNC_MAX_CONCURRENT_IMAGE_OPS
	MaxConcurrentImageOps int `env:"MAX_CONCURRENT_IMAGE_OPS"`

	// UploadRatePerMinute is the upload token-bucket refill rate.
	// Env: SYNC_UPLOAD_RATE_PER_MINUTE
	UploadRatePerMinute int `env:"UPLOAD_RATE_PER_MINUTE"`

	// SyncRatePerMinute is the sync-cycle token-bucket refill rate.
	// Env: SYNC_SYNC_RATE_PER_MINUTE
	SyncRatePerMinute int `env:"SYNC_RATE_PER_MINUTE"`

	// APICallRatePerMinute is the api_call token-bucket refill rate.
	// Env: SYNC_API_CALL_RATE_PER_MINUTE
	APICallRatePerMinute int `env:"API_CALL_RATE_PER_MINUTE"`

	// FailureThreshold is the consecutive-failure count that opens a
	// circuit. Defaults to 5 when zero.
	// Env: SYNC_FAILURE_THRESHOLD
	FailureThreshold int `env:"FAILURE_THRESHOLD"`

	// RecoveryTimeout is how long an open circuit rejects calls before
	// allowing a half-open trial. Defaults to 60s when zero.
	// Env: SYNC_RECOVERY_TIMEOUT
	RecoveryTimeout time.Duration `env:"RECOVERY_TIMEOUT"`

	// OperationTimeout bounds a single operation executed through the
	// circuit breaker. Defaults to 30s when zero.
	// Env: SYNC_OPERATION_TIMEOUT
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT"`
}

// Workers holds background worker settings.
type Workers struct {
	// SyncInterval defines how often the periodic sync worker triggers a
	// sync cycle.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// GetConfig loads, merges, and validates the engine configuration from all
// available sources in the following priority order (last source wins for
// non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
