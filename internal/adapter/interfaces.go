// Package adapter provides transport-layer abstractions for communicating
// with the Proscan backend and the object-storage service.
//
// The primary abstractions are [BackendClient] for document metadata and
// [ObjectStore] for content transfer. Both decouple the sync engine from the
// underlying protocol; the package ships HTTP/REST implementations built on
// resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] / [errors.As] for
// transport-agnostic error handling ([ConflictError] for 409,
// [ErrUnauthenticated] for 401/403, [ErrNetwork] for transport failures).
package adapter

import (
	"context"
	"time"

	"github.com/proscan/docsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// BackendClient defines transport-agnostic communication with the document
// API. Implementations are responsible for serialisation, bearer-token
// management, request signing on critical mutations, and mapping
// transport-level errors to the values defined in this package.
type BackendClient interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	// The engine consumes tokens issued by the host application; it never
	// authenticates on its own.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// ListDocuments pulls one page of the remote collection. A zero since
	// with page >= 1 requests full pagination; a non-zero since requests
	// the delta of records with updatedAt > since (page parameters are
	// ignored by the backend in that mode).
	ListDocuments(ctx context.Context, since time.Time, page, pageSize int) (models.DocumentsPage, error)

	// GetDocument fetches a single remote record by id. Returns
	// ErrNotFound (wrapped) when the backend has no such document.
	GetDocument(ctx context.Context, id string) (models.RemoteDocument, error)

	// CreateDocument creates the remote metadata record.
	CreateDocument(ctx context.Context, doc models.RemoteDocument) (models.RemoteDocument, error)

	// UpdateDocument replaces the remote metadata record. The request is
	// signed (HMAC-SHA256 over method, path, body, timestamp, and user id).
	// On HTTP 409 the returned error is a *ConflictError carrying the
	// current remote record.
	UpdateDocument(ctx context.Context, doc models.RemoteDocument) (models.RemoteDocument, error)

	// DeleteDocument deletes the remote metadata record. The request is
	// signed like UpdateDocument. On HTTP 409 the returned error is a
	// *ConflictError carrying the current remote record.
	DeleteDocument(ctx context.Context, id string) error

	// SearchDocuments runs a server-side full-text query.
	SearchDocuments(ctx context.Context, query string) ([]models.RemoteDocument, error)

	// SearchSuggestions returns query completions for a partial input.
	SearchSuggestions(ctx context.Context, prefix string) ([]models.SearchSuggestion, error)
}

// ObjectStore defines content transfer against the object-storage service.
// Keys are deterministic ("{userID}/{docID}.{format}"), so repeated uploads
// of the same document overwrite rather than duplicate.
type ObjectStore interface {
	// Upload stores the file at localPath under key, overwriting any
	// existing object, and returns the public URL of the stored object.
	Upload(ctx context.Context, key, localPath string) (string, error)

	// Download fetches the object at key into destPath, creating parent
	// directories as needed.
	Download(ctx context.Context, key, destPath string) error

	// Delete removes the object at key. Best-effort: callers log failures
	// but never block metadata deletion on them.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL under which the object at key is served.
	PublicURL(key string) string
}
