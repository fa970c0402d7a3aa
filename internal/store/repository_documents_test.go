package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/models"
)

// ── helpers ──

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:     db,
		logger: logger.Nop(),
	}
}

func newTestDocumentRepo(t *testing.T, db *sql.DB) DocumentRepository {
	t.Helper()
	return NewDocumentRepository(newDBFromSQL(db), logger.Nop())
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

var documentTestColumns = []string{
	"id", "title", "format", "local_path", "file_url", "thumbnail_url",
	"page_count", "size_bytes", "scan_mode", "color_profile", "text_content",
	"tags", "metadata", "created_at", "updated_at", "deleted", "deleted_at",
}

func documentRowArgs(t *testing.T, doc models.Document) []driver.Value {
	t.Helper()
	tags, err := json.Marshal(doc.Tags)
	require.NoError(t, err)
	metadata, err := json.Marshal(doc.Metadata)
	require.NoError(t, err)

	return []driver.Value{
		doc.ID, doc.Title, doc.Format, doc.LocalPath, doc.FileURL,
		doc.ThumbnailURL, doc.PageCount, doc.SizeBytes, doc.ScanMode,
		doc.ColorProfile, doc.TextContent, tags, metadata,
		doc.CreatedAt, doc.UpdatedAt, doc.Deleted, doc.DeletedAt,
	}
}

func sampleDocument() models.Document {
	created := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return models.Document{
		ID:           "0194fe3a-4b7c-7def-8000-0123456789ab",
		Title:        "Lease agreement",
		Format:       "pdf",
		LocalPath:    "/data/docs/lease.pdf",
		FileURL:      "https://objects.example.com/u1/lease.pdf",
		ThumbnailURL: "https://objects.example.com/u1/lease_thumb.jpg",
		PageCount:    4,
		SizeBytes:    204800,
		ScanMode:     "document",
		ColorProfile: "color",
		TextContent:  "lease between parties",
		Tags:         []string{"legal", "home"},
		Metadata:     map[string]string{"source": "camera"},
		CreatedAt:    created,
		UpdatedAt:    created.Add(2 * time.Hour),
	}
}

// ── Get ──

func TestDocumentRepository_Get(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)
	want := sampleDocument()

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
		WithArgs(want.ID).
		WillReturnRows(sqlmock.NewRows(documentTestColumns).AddRow(documentRowArgs(t, want)...))

	got, err := repo.Get(testContext(), want.ID)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Get_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
		WithArgs("missing-id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(testContext(), "missing-id")

	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── ListModifiedSince ──

func TestDocumentRepository_ListModifiedSince(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)
	want := sampleDocument()
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
		WithArgs(false, since).
		WillReturnRows(sqlmock.NewRows(documentTestColumns).AddRow(documentRowArgs(t, want)...))

	docs, err := repo.ListModifiedSince(testContext(), since)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, want, docs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ListModifiedSince_ZeroSinceListsAll(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)

	// Only the deleted filter is bound when since is the zero time.
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows(documentTestColumns))

	docs, err := repo.ListModifiedSince(testContext(), time.Time{})

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── Save ──

func TestDocumentRepository_Save(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)
	doc := sampleDocument()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(documentRowArgs(t, doc)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(testContext(), doc)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Save_ExecError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)
	doc := sampleDocument()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(documentRowArgs(t, doc)...).
		WillReturnError(errors.New("disk I/O error"))

	err := repo.Save(testContext(), doc)

	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── SoftDelete / HardDelete ──

func TestDocumentRepository_SoftDelete(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WithArgs(at, "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SoftDelete(testContext(), "doc-1", at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_SoftDelete_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WithArgs(at, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(testContext(), "ghost", at)

	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_HardDelete(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestDocumentRepo(t, db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.HardDelete(testContext(), "doc-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
