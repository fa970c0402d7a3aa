package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/models"
)

// syncStateRepository is the sqlite-backed implementation of
// [SyncStateRepository].
type syncStateRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncStateRepository constructs a [SyncStateRepository] backed by the
// provided database connection and logger.
func NewSyncStateRepository(db *DB, logger *logger.Logger) SyncStateRepository {
	return &syncStateRepository{
		DB:     db,
		logger: logger,
	}
}

// Get implements [SyncStateRepository].
func (r *syncStateRepository) Get(ctx context.Context, documentID string) (models.SyncState, error) {
	var state models.SyncState

	err := r.DB.QueryRowContext(ctx, getSyncState, documentID).Scan(
		&state.DocumentID,
		&state.Status,
		&state.ErrorMessage,
		&state.LastSyncedAt,
		&state.RetryCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncState{}, fmt.Errorf("%w: %s", ErrSyncStateNotFound, documentID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncStateRepository.Get").
			Str("document_id", documentID).
			Msg("failed to get sync state")
		return models.SyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return state, nil
}

// Upsert implements [SyncStateRepository].
func (r *syncStateRepository) Upsert(ctx context.Context, state models.SyncState) error {
	_, err := r.DB.ExecContext(ctx, upsertSyncState,
		state.DocumentID,
		state.Status,
		state.ErrorMessage,
		state.LastSyncedAt,
		state.RetryCount,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncStateRepository.Upsert").
			Str("document_id", state.DocumentID).
			Str("status", state.Status.String()).
			Msg("failed to upsert sync state")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// Delete implements [SyncStateRepository].
func (r *syncStateRepository) Delete(ctx context.Context, documentID string) error {
	if _, err := r.DB.ExecContext(ctx, deleteSyncState, documentID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}

// ListByStatus implements [SyncStateRepository]. The IN clause is built with
// squirrel since the status set varies per caller.
func (r *syncStateRepository) ListByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.SyncState, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s.String())
	}

	query, args, err := sq.Select("document_id", "status", "error_message", "last_synced_at", "retry_count").
		From("sync_states").
		Where(sq.Eq{"status": values}).
		OrderBy("document_id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncStateRepository.ListByStatus").
			Msg("failed to list sync states")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	states := make([]models.SyncState, 0, 50)
	for rows.Next() {
		var state models.SyncState
		if err = rows.Scan(
			&state.DocumentID,
			&state.Status,
			&state.ErrorMessage,
			&state.LastSyncedAt,
			&state.RetryCount,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		states = append(states, state)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return states, nil
}
