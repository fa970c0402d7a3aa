package models

import "time"

// SyncState is the durable sync bookkeeping record for one document.
// Exactly one SyncState exists per live document id; it is created lazily on
// the first sync attempt and removed only when the document is hard-deleted.
type SyncState struct {
	DocumentID   string     `json:"document_id" db:"document_id"`
	Status       SyncStatus `json:"status" db:"status"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`
	RetryCount   int        `json:"retry_count" db:"retry_count"`
}
