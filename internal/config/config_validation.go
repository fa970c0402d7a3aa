package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies the
// engine's startup invariants. A missing backend URL or signing secret is a
// configuration error the engine cannot recover from by retrying, so it is
// rejected here rather than surfacing later as a failed sync cycle.
func (cfg *StructuredConfig) validate() error {
	if cfg.Backend.BaseURL == "" {
		return ErrInvalidBackendConfigs
	}

	if cfg.App.SigningSecret == "" || cfg.App.UserID == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Storage.DSN == "" || strings.Contains(cfg.Storage.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Workers.SyncInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
