package adapter

import (
	"errors"
	"fmt"

	"github.com/proscan/docsync/models"
)

// Sentinel errors mapped from transport failures and HTTP status codes.
// Callers match them with [errors.Is].
var (
	// ErrUnauthenticated is returned on HTTP 401/403 or when the stored
	// session token is absent or expired. Not recoverable by retrying.
	ErrUnauthenticated = errors.New("client unauthenticated")

	// ErrNotFound is returned on HTTP 404.
	ErrNotFound = errors.New("remote document not found")

	// ErrBadRequest is returned on HTTP 400.
	ErrBadRequest = errors.New("bad request")

	// ErrNetwork is returned for transport-level failures (connection
	// refused, DNS, timeouts) and 5xx responses. Retryable.
	ErrNetwork = errors.New("network error")

	// ErrValidation is returned when a response decodes but violates the
	// documented shape (empty id, zero timestamps).
	ErrValidation = errors.New("malformed remote payload")

	// ErrStorage is returned for object-storage failures that are not
	// transport errors (e.g. the service rejecting a write).
	ErrStorage = errors.New("object storage error")
)

// ConflictError is returned on HTTP 409. The backend includes its current
// record in the response body so the resolver can reconcile without an extra
// round trip.
type ConflictError struct {
	Remote models.RemoteDocument
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("remote conflict on document %s", e.Remote.ID)
}

// AsConflict unwraps err into a *ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient failure worth retrying:
// network errors and 5xx are; authentication, validation, conflict, and
// not-found are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
