package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON-friendly field
// types (Duration strings such as "30s" instead of nanosecond integers).
type StructuredJSONConfig struct {
	App struct {
		SigningSecret string `json:"signing_secret"`
		UserID        string `json:"user_id"`
		SessionToken  string `json:"session_token"`
		Version       string `json:"version"`
	} `json:"app,omitempty"`

	Backend struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"backend,omitempty"`

	ObjectStorage struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"object_storage,omitempty"`

	Storage struct {
		DSN        string `json:"dsn"`
		ContentDir string `json:"content_dir"`
	} `json:"storage,omitempty"`

	Sync struct {
		MaxConcurrentUploads   int      `json:"max_concurrent_uploads"`
		MaxConcurrentDownloads int      `json:"max_concurrent_downloads"`
		MaxConcurrentImageOps  int      `json:"max_concurrent_image_ops"`
		UploadRatePerMinute    int      `json:"upload_rate_per_minute"`
		SyncRatePerMinute      int      `json:"sync_rate_per_minute"`
		APICallRatePerMinute   int      `json:"api_call_rate_per_minute"`
		FailureThreshold       int      `json:"failure_threshold"`
		RecoveryTimeout        Duration `json:"recovery_timeout"`
		OperationTimeout       Duration `json:"operation_timeout"`
	} `json:"sync,omitempty"`

	Workers struct {
		SyncInterval Duration `json:"sync_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			SigningSecret: jsonCfg.App.SigningSecret,
			UserID:        jsonCfg.App.UserID,
			SessionToken:  jsonCfg.App.SessionToken,
			Version:       jsonCfg.App.Version,
		},
		Backend: Backend{
			BaseURL:        jsonCfg.Backend.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Backend.RequestTimeout),
		},
		ObjectStorage: ObjectStorage{
			BaseURL:        jsonCfg.ObjectStorage.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.ObjectStorage.RequestTimeout),
		},
		Storage: Storage{
			DSN:        jsonCfg.Storage.DSN,
			ContentDir: jsonCfg.Storage.ContentDir,
		},
		Sync: Sync{
			MaxConcurrentUploads:   jsonCfg.Sync.MaxConcurrentUploads,
			MaxConcurrentDownloads: jsonCfg.Sync.MaxConcurrentDownloads,
			MaxConcurrentImageOps:  jsonCfg.Sync.MaxConcurrentImageOps,
			UploadRatePerMinute:    jsonCfg.Sync.UploadRatePerMinute,
			SyncRatePerMinute:      jsonCfg.Sync.SyncRatePerMinute,
			APICallRatePerMinute:   jsonCfg.Sync.APICallRatePerMinute,
			FailureThreshold:       jsonCfg.Sync.FailureThreshold,
			RecoveryTimeout:        time.Duration(jsonCfg.Sync.RecoveryTimeout),
			OperationTimeout:       time.Duration(jsonCfg.Sync.OperationTimeout),
		},
		Workers: Workers{
			SyncInterval: time.Duration(jsonCfg.Workers.SyncInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
