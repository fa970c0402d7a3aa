package models

// SyncStatus is the per-document synchronization status. Transitions are
// driven exclusively by the sync engine (coordinator, queues, resolver);
// callers only ever read it.
type SyncStatus string

const (
	StatusPendingUpload             SyncStatus = "pendingUpload"
	StatusUploadingFile             SyncStatus = "uploadingFile"
	StatusUploadingThumbnail        SyncStatus = "uploadingThumbnail"
	StatusSyncingMetadata           SyncStatus = "syncingMetadata"
	StatusPendingDownload           SyncStatus = "pendingDownload"
	StatusSyncing                   SyncStatus = "syncing"
	StatusSynced                    SyncStatus = "synced"
	StatusConflict                  SyncStatus = "conflict"
	StatusPendingConflictResolution SyncStatus = "pendingConflictResolution"
	StatusError                     SyncStatus = "error"
	StatusFailedRetry               SyncStatus = "failedRetry"
	StatusFailedSyncDelete          SyncStatus = "failedSyncDelete"
	StatusFailed                    SyncStatus = "failed"
)

// allStatuses enumerates every valid SyncStatus value.
var allStatuses = map[SyncStatus]struct{}{
	StatusPendingUpload:             {},
	StatusUploadingFile:             {},
	StatusUploadingThumbnail:        {},
	StatusSyncingMetadata:           {},
	StatusPendingDownload:           {},
	StatusSyncing:                   {},
	StatusSynced:                    {},
	StatusConflict:                  {},
	StatusPendingConflictResolution: {},
	StatusError:                     {},
	StatusFailedRetry:               {},
	StatusFailedSyncDelete:          {},
	StatusFailed:                    {},
}

// Valid reports whether s is one of the defined status values.
func (s SyncStatus) Valid() bool {
	_, ok := allStatuses[s]
	return ok
}

// TerminalFailure reports whether s is a failure state that requires an
// external retry to leave.
func (s SyncStatus) TerminalFailure() bool {
	return s == StatusFailed || s == StatusFailedSyncDelete
}

// InFlight reports whether s indicates a transfer currently executing.
func (s SyncStatus) InFlight() bool {
	switch s {
	case StatusUploadingFile, StatusUploadingThumbnail, StatusSyncingMetadata, StatusSyncing:
		return true
	}
	return false
}

func (s SyncStatus) String() string {
	return string(s)
}
