package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-backend-url remote document API base URL
//	-object-storage-url object storage service base URL
//	-d database DSN (sqlite file path)
//	-content-dir directory for downloaded content
//	-c/-config json file path with configs
//	-signing-secret HMAC signing secret
//	-user-id owning user identifier
//	-sync-interval periodic sync interval (e.g., "5m")
//	-request-timeout backend request timeout (e.g., "30s")
func ParseFlags() *StructuredConfig {
	var backendURL string
	var objectStorageURL string
	var databaseDSN string
	var contentDir string
	var jsonConfigPath string
	var signingSecret string
	var userID string
	var syncInterval time.Duration
	var requestTimeout time.Duration

	flag.StringVar(&backendURL, "backend-url", "", "Backend API base URL")
	flag.StringVar(&objectStorageURL, "object-storage-url", "", "Object storage base URL")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&contentDir, "content-dir", "", "Downloaded content directory")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&signingSecret, "signing-secret", "", "Request signing secret")
	flag.StringVar(&userID, "user-id", "", "Owning user identifier")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic sync interval (e.g., 5m)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Backend request timeout (e.g., 30s)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			SigningSecret: signingSecret,
			UserID:        userID,
		},
		Backend: Backend{
			BaseURL:        backendURL,
			RequestTimeout: requestTimeout,
		},
		ObjectStorage: ObjectStorage{
			BaseURL: objectStorageURL,
		},
		Storage: Storage{
			DSN:        databaseDSN,
			ContentDir: contentDir,
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}
