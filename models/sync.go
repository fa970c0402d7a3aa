package models

import "time"

// SyncResult summarizes one completed pull/push reconciliation cycle.
type SyncResult struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Conflicts int `json:"conflicts"`
}

// RemoteDocument is the backend's JSON representation of a document.
// Timestamps are ISO8601 strings on the wire; resty decodes them via
// time.Time directly.
type RemoteDocument struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	FileURL      string            `json:"fileUrl,omitempty"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty"`
	Format       string            `json:"format"`
	PageCount    int               `json:"pageCount"`
	SizeBytes    int64             `json:"sizeBytes"`
	ScanMode     string            `json:"scanMode,omitempty"`
	ColorProfile string            `json:"colorProfile,omitempty"`
	TextContent  string            `json:"textContent,omitempty"`
	Tags         []string          `json:"tags"`
	Metadata     map[string]string `json:"metadata"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Deleted      bool              `json:"isDeleted"`
	DeletedAt    *time.Time        `json:"deletedAt,omitempty"`
}

// ToDocument converts the wire representation into the local model.
// LocalPath is intentionally left empty: content location on disk is owned by
// the download path, never by the backend.
func (r RemoteDocument) ToDocument() Document {
	return Document{
		ID:           r.ID,
		Title:        r.Title,
		FileURL:      r.FileURL,
		ThumbnailURL: r.ThumbnailURL,
		Format:       r.Format,
		PageCount:    r.PageCount,
		SizeBytes:    r.SizeBytes,
		ScanMode:     r.ScanMode,
		ColorProfile: r.ColorProfile,
		TextContent:  r.TextContent,
		Tags:         r.Tags,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Deleted:      r.Deleted,
		DeletedAt:    r.DeletedAt,
	}
}

// FromDocument converts a local document into the wire representation used
// for create/update calls. Local-only fields (LocalPath) are not sent.
func FromDocument(d Document) RemoteDocument {
	return RemoteDocument{
		ID:           d.ID,
		Title:        d.Title,
		FileURL:      d.FileURL,
		ThumbnailURL: d.ThumbnailURL,
		Format:       d.Format,
		PageCount:    d.PageCount,
		SizeBytes:    d.SizeBytes,
		ScanMode:     d.ScanMode,
		ColorProfile: d.ColorProfile,
		TextContent:  d.TextContent,
		Tags:         d.Tags,
		Metadata:     d.Metadata,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Deleted:      d.Deleted,
		DeletedAt:    d.DeletedAt,
	}
}

// DocumentsPage is one page of a paginated GET /api/documents response.
type DocumentsPage struct {
	Documents []RemoteDocument `json:"documents"`
	Page      int              `json:"page"`
	PageSize  int              `json:"pageSize"`
	Total     int              `json:"total"`
}

// SearchSuggestion is a single entry of GET /api/documents/search/suggestions.
type SearchSuggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
