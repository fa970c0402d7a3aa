package models

import "time"

// Document is the unit of synchronization: one scanned document tracked by
// the local store and mirrored to the remote backend. The ID is assigned once
// (UUIDv7) and never changes; content lives at LocalPath on disk and at
// FileURL in object storage once uploaded.
type Document struct {
	ID           string            `json:"id" db:"id"`
	Title        string            `json:"title" db:"title"`
	Format       string            `json:"format" db:"format"`
	LocalPath    string            `json:"localPath,omitempty" db:"local_path"`
	FileURL      string            `json:"fileUrl,omitempty" db:"file_url"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	PageCount    int               `json:"pageCount" db:"page_count"`
	SizeBytes    int64             `json:"sizeBytes" db:"size_bytes"`
	ScanMode     string            `json:"scanMode,omitempty" db:"scan_mode"`
	ColorProfile string            `json:"colorProfile,omitempty" db:"color_profile"`
	TextContent  string            `json:"textContent,omitempty" db:"text_content"`
	Tags         []string          `json:"tags" db:"tags"`
	Metadata     map[string]string `json:"metadata" db:"metadata"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time         `json:"updatedAt" db:"updated_at"`
	Deleted      bool              `json:"isDeleted" db:"deleted"`
	DeletedAt    *time.Time        `json:"deletedAt,omitempty" db:"deleted_at"`
}

// HasLocalContent reports whether the document's content is present on the
// local filesystem. Used by the coordinator to decide between pendingUpload
// and pendingDownload for newly observed documents.
func (d Document) HasLocalContent() bool {
	return d.LocalPath != ""
}

// HasRemoteContent reports whether the document's content has been uploaded
// to object storage.
func (d Document) HasRemoteContent() bool {
	return d.FileURL != ""
}
