package models

import "time"

// TransferKind distinguishes upload jobs from download jobs.
type TransferKind string

const (
	TransferUpload   TransferKind = "upload"
	TransferDownload TransferKind = "download"
)

// Priority orders queued work. User-initiated transfers always drain before
// background ones; within a priority the queue is FIFO by EnqueuedAt.
type Priority int

const (
	PriorityBackground Priority = iota
	PriorityUserInitiated
)

func (p Priority) String() string {
	if p == PriorityUserInitiated {
		return "userInitiated"
	}
	return "background"
}

// TransferJob is one pending upload or download. Jobs are deduplicated by
// DocumentID inside the queues; re-enqueuing an id updates priority and
// attempt state instead of creating a duplicate entry.
type TransferJob struct {
	DocumentID string
	RemoteURI  string
	Kind       TransferKind
	Priority   Priority
	EnqueuedAt time.Time
	Attempts   int
}
