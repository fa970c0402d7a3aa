package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/models"
)

// documentRepository is the sqlite-backed implementation of
// [DocumentRepository]. Tag sets and metadata maps are persisted as JSON
// text columns.
type documentRepository struct {
	*DB
	logger *logger.Logger
}

// NewDocumentRepository constructs a [DocumentRepository] backed by the
// provided database connection and logger.
func NewDocumentRepository(db *DB, logger *logger.Logger) DocumentRepository {
	return &documentRepository{
		DB:     db,
		logger: logger,
	}
}

// Get implements [DocumentRepository].
func (r *documentRepository) Get(ctx context.Context, id string) (models.Document, error) {
	row := r.DB.QueryRowContext(ctx, getDocument, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "documentRepository.Get").
			Str("document_id", id).
			Msg("failed to get document")
		return models.Document{}, err
	}

	return doc, nil
}

// GetAll implements [DocumentRepository].
func (r *documentRepository) GetAll(ctx context.Context) ([]models.Document, error) {
	return r.queryDocuments(ctx, getAllDocuments)
}

// ListModifiedSince implements [DocumentRepository]. The query is built
// dynamically because the since filter is optional at some call sites
// (a zero since lists every live document).
func (r *documentRepository) ListModifiedSince(ctx context.Context, since time.Time) ([]models.Document, error) {
	builder := sq.Select(
		"id", "title", "format", "local_path", "file_url", "thumbnail_url",
		"page_count", "size_bytes", "scan_mode", "color_profile", "text_content",
		"tags", "metadata", "created_at", "updated_at", "deleted", "deleted_at",
	).
		From("documents").
		Where(sq.Eq{"deleted": false}).
		OrderBy("updated_at ASC").
		PlaceholderFormat(sq.Dollar)

	if !since.IsZero() {
		builder = builder.Where(sq.Gt{"updated_at": since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.queryDocuments(ctx, query, args...)
}

// Save implements [DocumentRepository]. The upsert keeps Save idempotent for
// resolver-driven merges that replace local metadata wholesale.
func (r *documentRepository) Save(ctx context.Context, doc models.Document) error {
	tags, metadata, err := encodeDocumentJSON(doc)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, saveDocument,
		doc.ID,
		doc.Title,
		doc.Format,
		doc.LocalPath,
		doc.FileURL,
		doc.ThumbnailURL,
		doc.PageCount,
		doc.SizeBytes,
		doc.ScanMode,
		doc.ColorProfile,
		doc.TextContent,
		tags,
		metadata,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.Deleted,
		doc.DeletedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "documentRepository.Save").
			Str("document_id", doc.ID).
			Msg("failed to save document")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotSaved, doc.ID)
	}

	return nil
}

// SoftDelete implements [DocumentRepository].
func (r *documentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, softDeleteDocument, at, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}

// HardDelete implements [DocumentRepository].
func (r *documentRepository) HardDelete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, hardDeleteDocument, id); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}

func (r *documentRepository) queryDocuments(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "documentRepository.queryDocuments").
			Msg("failed to execute documents query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0, 50)
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return docs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc      models.Document
		tags     []byte
		metadata []byte
	)

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Format,
		&doc.LocalPath,
		&doc.FileURL,
		&doc.ThumbnailURL,
		&doc.PageCount,
		&doc.SizeBytes,
		&doc.ScanMode,
		&doc.ColorProfile,
		&doc.TextContent,
		&tags,
		&metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.Deleted,
		&doc.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, err
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if len(tags) > 0 {
		if err = json.Unmarshal(tags, &doc.Tags); err != nil {
			return models.Document{}, fmt.Errorf("%w: decode tags: %w", ErrScanningRow, err)
		}
	}
	if len(metadata) > 0 {
		if err = json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return models.Document{}, fmt.Errorf("%w: decode metadata: %w", ErrScanningRow, err)
		}
	}

	return doc, nil
}

func encodeDocumentJSON(doc models.Document) (tags, metadata []byte, err error) {
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}

	tags, err = json.Marshal(doc.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	metadata, err = json.Marshal(doc.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	return tags, metadata, nil
}
