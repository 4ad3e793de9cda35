package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
)

//go:embed 001_indexer_state.sql
var mig001 string

//go:embed 002_read_model.sql
var mig002 string

// All returns the read-model migrations in application order.
func All() []db.Migration {
	return []db.Migration{
		{ID: "001_indexer_state.sql", SQL: mig001},
		{ID: "002_read_model.sql", SQL: mig002},
	}
}

// RunMigrations brings the database at dbPath up to date.
func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, All())
}

// RunMigrationsDB brings an already opened database up to date.
func RunMigrationsDB(log *logger.Logger, sqlDB *sql.DB) error {
	return db.RunMigrationsDB(log, sqlDB, All())
}
