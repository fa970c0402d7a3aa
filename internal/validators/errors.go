package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyDocumentID  = errors.New("document id is required")
	ErrEmptyTitle       = errors.New("document title is required")
	ErrInvalidFormat    = errors.New("unknown document format")
	ErrZeroCreatedAt    = errors.New("createdAt timestamp is required")
	ErrZeroUpdatedAt    = errors.New("updatedAt timestamp is required")
	ErrNegativeSize     = errors.New("size must not be negative")
	ErrNegativePages    = errors.New("page count must not be negative")
	ErrDeletedTimestamp = errors.New("deletion timestamp is present but zero")
)
