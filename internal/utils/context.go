package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// DocumentIDCtxKey is the key used to store the document identifier being
// processed in the context, so nested calls log with the owning document id.
var DocumentIDCtxKey = contextKey("documentID")

// GetDocumentIDFromContext retrieves the document identifier from the context.
//
// Returns the document ID and an ok flag:
//   - ok == true  — value is found and has the correct string type
//   - ok == false — value is missing or has an unexpected type
func GetDocumentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(DocumentIDCtxKey).(string)
	return id, ok
}
