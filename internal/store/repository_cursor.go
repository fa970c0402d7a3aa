package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/proscan/docsync/internal/logger"
)

// cursorRepository persists the single pull-sync cursor row.
type cursorRepository struct {
	*DB
	logger *logger.Logger
}

// NewCursorRepository constructs a [CursorRepository] backed by the provided
// database connection and logger.
func NewCursorRepository(db *DB, logger *logger.Logger) CursorRepository {
	return &cursorRepository{
		DB:     db,
		logger: logger,
	}
}

// Get implements [CursorRepository]. A missing row is not an error: it means
// no sync cycle has ever completed, and the zero time forces a full sync.
func (r *cursorRepository) Get(ctx context.Context) (time.Time, error) {
	var cursor time.Time

	err := r.DB.QueryRowContext(ctx, getCursor).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "cursorRepository.Get").
			Msg("failed to get sync cursor")
		return time.Time{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return cursor, nil
}

// Set implements [CursorRepository].
func (r *cursorRepository) Set(ctx context.Context, cursor time.Time) error {
	if _, err := r.DB.ExecContext(ctx, setCursor, cursor); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "cursorRepository.Set").
			Time("cursor", cursor).
			Msg("failed to set sync cursor")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
