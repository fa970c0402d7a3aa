package store

import (
	"database/sql"

	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/migrations"
)

type DB struct {
	*sql.DB
	logger *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
