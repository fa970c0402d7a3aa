package validators

import (
	"context"
	"fmt"

	"github.com/proscan/docsync/models"
)

const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldFormat     = "format"
	FieldTimestamps = "timestamps"
	FieldMetrics    = "metrics"
	FieldDeletion   = "deletion"
)

var allowedFormats = []string{"pdf", "docx", "jpg", "jpeg", "png", "txt"}

// RemoteDocumentValidator rejects malformed backend records before they are
// handed to the resolver or persisted locally.
type RemoteDocumentValidator struct {
}

func NewRemoteDocumentValidator() Validator {
	return &RemoteDocumentValidator{}
}

func (v *RemoteDocumentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.RemoteDocument:
		return v.validateRemoteDocument(ctx, value, fields...)
	case *models.RemoteDocument:
		return v.validateRemoteDocument(ctx, *value, fields...)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func (v *RemoteDocumentValidator) validateRemoteDocument(_ context.Context, doc models.RemoteDocument, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldTitle, FieldFormat, FieldTimestamps, FieldMetrics, FieldDeletion}
	}

	for _, field := range fields {
		switch field {
		case FieldID:
			if doc.ID == "" {
				return ErrEmptyDocumentID
			}
		case FieldTitle:
			if !doc.Deleted && doc.Title == "" {
				return ErrEmptyTitle
			}
		case FieldFormat:
			if !doc.Deleted && !formatAllowed(doc.Format) {
				return fmt.Errorf("%w: %q", ErrInvalidFormat, doc.Format)
			}
		case FieldTimestamps:
			if doc.CreatedAt.IsZero() {
				return ErrZeroCreatedAt
			}
			if doc.UpdatedAt.IsZero() {
				return ErrZeroUpdatedAt
			}
		case FieldMetrics:
			if doc.SizeBytes < 0 {
				return ErrNegativeSize
			}
			if doc.PageCount < 0 {
				return ErrNegativePages
			}
		case FieldDeletion:
			// A tombstone may omit deletedAt; consumers fall back to
			// updatedAt. A present-but-zero value is malformed.
			if doc.DeletedAt != nil && doc.DeletedAt.IsZero() {
				return ErrDeletedTimestamp
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}

	return nil
}

func formatAllowed(format string) bool {
	for _, allowed := range allowedFormats {
		if format == allowed {
			return true
		}
	}
	return false
}
