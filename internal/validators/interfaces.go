// Package validators checks remote payloads before they reach the sync
// engine: a malformed backend record must surface as a validation error, not
// corrupt the local store or confuse the conflict resolver.
package validators

import "context"

// Validator defines a generic validation interface for arbitrary input
// values. Implementations may perform structural validation, semantic
// checks, and cross-field rules; optional field names restrict validation to
// a subset of fields.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
