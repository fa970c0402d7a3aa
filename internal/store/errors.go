package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrDocumentNotFound is returned when a query or update targets a
	// document id that does not exist in the local store.
	ErrDocumentNotFound = errors.New("document was not found")

	// ErrSyncStateNotFound is returned when no sync state row exists for a
	// document id. The state store treats this as "create lazily".
	ErrSyncStateNotFound = errors.New("sync state was not found")

	// ErrDocumentNotSaved is returned when an INSERT or UPDATE completes
	// without error but affects zero rows, indicating nothing was persisted.
	ErrDocumentNotSaved = errors.New("document was not saved")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when a result row cannot be scanned into
	// the target model.
	ErrScanningRow = errors.New("error scanning result row")
)
