package store

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/models"
)

func newTestSyncStateRepo(t *testing.T, db *sql.DB) SyncStateRepository {
	t.Helper()
	return NewSyncStateRepository(newDBFromSQL(db), logger.Nop())
}

var syncStateTestColumns = []string{
	"document_id", "status", "error_message", "last_synced_at", "retry_count",
}

// ── Get / Upsert ──

func TestSyncStateRepository_Get(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestSyncStateRepo(t, db)
	syncedAt := time.Date(2026, 2, 12, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_states")).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(syncStateTestColumns).
			AddRow("doc-1", "synced", "", syncedAt, 0))

	state, err := repo.Get(testContext(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", state.DocumentID)
	assert.Equal(t, models.StatusSynced, state.Status)
	require.NotNil(t, state.LastSyncedAt)
	assert.Equal(t, syncedAt, *state.LastSyncedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncStateRepository_Get_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestSyncStateRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_states")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(testContext(), "missing")

	assert.ErrorIs(t, err, ErrSyncStateNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncStateRepository_Upsert(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestSyncStateRepo(t, db)
	state := models.SyncState{
		DocumentID:   "doc-1",
		Status:       models.StatusFailedRetry,
		ErrorMessage: "network unreachable",
		RetryCount:   2,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_states")).
		WithArgs(state.DocumentID, state.Status, state.ErrorMessage, state.LastSyncedAt, state.RetryCount).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(testContext(), state)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── ListByStatus ──

func TestSyncStateRepository_ListByStatus(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestSyncStateRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_states")).
		WithArgs("pendingUpload", "failedRetry").
		WillReturnRows(sqlmock.NewRows(syncStateTestColumns).
			AddRow("doc-1", "pendingUpload", "", nil, 0).
			AddRow("doc-2", "failedRetry", "timeout", nil, 1))

	states, err := repo.ListByStatus(testContext(), models.StatusPendingUpload, models.StatusFailedRetry)

	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, models.StatusPendingUpload, states[0].Status)
	assert.Equal(t, models.StatusFailedRetry, states[1].Status)
	assert.Equal(t, "timeout", states[1].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncStateRepository_ListByStatus_Empty(t *testing.T) {
	db, _ := newTestDB(t)
	repo := newTestSyncStateRepo(t, db)

	states, err := repo.ListByStatus(testContext())

	require.NoError(t, err)
	assert.Nil(t, states)
}

// ── cursor ──

func TestCursorRepository_GetMissingRowIsZeroTime(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCursorRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_cursor")).
		WillReturnError(sql.ErrNoRows)

	cursor, err := repo.Get(testContext())

	require.NoError(t, err)
	assert.True(t, cursor.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursorRepository_SetThenGet(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCursorRepository(newDBFromSQL(db), logger.Nop())
	cursor := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_cursor")).
		WithArgs(cursor).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_cursor")).
		WillReturnRows(sqlmock.NewRows([]string{"cursor"}).AddRow(cursor))

	require.NoError(t, repo.Set(testContext(), cursor))

	got, err := repo.Get(testContext())
	require.NoError(t, err)
	assert.Equal(t, cursor, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
