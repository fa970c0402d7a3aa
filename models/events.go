package models

import "time"

// StatusEvent is published on every sync-status transition so observers
// (UI, diagnostics) can follow per-document progress without polling.
type StatusEvent struct {
	DocumentID string     `json:"document_id"`
	Previous   SyncStatus `json:"previous"`
	Current    SyncStatus `json:"current"`
	Error      string     `json:"error,omitempty"`
	At         time.Time  `json:"at"`
}
