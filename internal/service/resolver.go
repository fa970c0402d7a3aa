package service

import (
	"github.com/proscan/docsync/models"
)

// ResolutionAction is the merge outcome decided for a (local, remote) pair.
type ResolutionAction int

const (
	// ResolutionAdoptRemote replaces local metadata with the remote
	// version; content may still need a download.
	ResolutionAdoptRemote ResolutionAction = iota

	// ResolutionKeepLocal retains the local version; it will be pushed to
	// the remote by the upload path.
	ResolutionKeepLocal

	// ResolutionAlreadySynced means both sides are identical; no transfer
	// is needed.
	ResolutionAlreadySynced

	// ResolutionConflict means both sides changed at the same instant with
	// divergent content. Local is retained and wins at the next push.
	ResolutionConflict
)

func (a ResolutionAction) String() string {
	switch a {
	case ResolutionAdoptRemote:
		return "adoptRemote"
	case ResolutionKeepLocal:
		return "keepLocal"
	case ResolutionAlreadySynced:
		return "alreadySynced"
	default:
		return "conflict"
	}
}

// Resolution carries the decided action, the document the local store should
// hold afterwards, the sync status to record, and whether a content download
// is outstanding.
type Resolution struct {
	Action        ResolutionAction
	Merged        models.Document
	Status        models.SyncStatus
	NeedsDownload bool
}

// ConflictResolver decides merge outcomes for documents that exist on both
// sides. It is a pure decision function over the two records; it performs no
// I/O and enqueues nothing itself.
type ConflictResolver struct{}

func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

// Resolve compares local and remote by UpdatedAt (last-write-wins):
//
//   - remote newer: adopt remote metadata. The local content path is kept so
//     the document stays readable until a fresh download completes.
//   - local newer: keep local, to be pushed by the upload path.
//   - equal timestamps: identical salient content means both sides already
//     agree; divergent content is a conflict — local is retained and will
//     overwrite remote at the next push.
func (r *ConflictResolver) Resolve(local, remote models.Document) Resolution {
	switch {
	case remote.UpdatedAt.After(local.UpdatedAt):
		merged := remote
		merged.LocalPath = local.LocalPath

		needsDownload := remote.HasRemoteContent() && !contentEqual(local, remote)
		status := models.StatusSynced
		if needsDownload {
			status = models.StatusPendingDownload
		}
		return Resolution{
			Action:        ResolutionAdoptRemote,
			Merged:        merged,
			Status:        status,
			NeedsDownload: needsDownload,
		}

	case local.UpdatedAt.After(remote.UpdatedAt):
		return Resolution{
			Action: ResolutionKeepLocal,
			Merged: local,
			Status: models.StatusPendingUpload,
		}

	default:
		if contentEqual(local, remote) {
			return Resolution{
				Action: ResolutionAlreadySynced,
				Merged: local,
				Status: models.StatusSynced,
			}
		}
		return Resolution{
			Action: ResolutionConflict,
			Merged: local,
			Status: models.StatusConflict,
		}
	}
}

// contentEqual compares the salient fields that distinguish two versions of
// a document when timestamps cannot: title, size, format, scan mode, color
// profile, the tag set, and the metadata key set.
func contentEqual(a, b models.Document) bool {
	if a.Title != b.Title ||
		a.SizeBytes != b.SizeBytes ||
		a.Format != b.Format ||
		a.ScanMode != b.ScanMode ||
		a.ColorProfile != b.ColorProfile {
		return false
	}
	if !sameStringSet(a.Tags, b.Tags) {
		return false
	}
	return sameKeySet(a.Metadata, b.Metadata)
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

func sameKeySet(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
