package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	UpDownSeparator = "-- +migrate Up"
	downMarker      = "-- +migrate Down"
)

// Migration is a single embedded SQL file holding a Down section followed by an Up section.
type Migration struct {
	ID  string
	SQL string
}

// RunMigrations opens the database at dbPath and applies all pending migrations.
func RunMigrations(dbPath string, migrations []Migration) error {
	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		return fmt.Errorf("error creating DB %w", err)
	}
	defer db.Close()

	return RunMigrationsDB(logger.GetDefaultLogger(), db, migrations)
}

// RunMigrationsDB applies all pending migrations on an already opened database.
func RunMigrationsDB(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return runMigrations(log, db, migrations, migrate.Up)
}

// RollbackMigrationsDB reverts every applied migration. Used by tests and the reset tooling.
func RollbackMigrationsDB(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return runMigrations(log, db, migrations, migrate.Down)
}

func runMigrations(log *logger.Logger, db *sql.DB, migrations []Migration, dir migrate.MigrationDirection) error {
	source := &migrate.MemoryMigrationSource{}
	ids := make([]string, 0, len(migrations))

	for _, m := range migrations {
		parsed, err := parseMigration(m)
		if err != nil {
			return err
		}
		source.Migrations = append(source.Migrations, parsed)
		ids = append(ids, m.ID)
	}

	list := strings.Join(ids, ", ")
	log.Debugf("running %d migrations: %s", len(ids), list)

	applied, err := migrate.Exec(db, "sqlite3", source, dir)
	if err != nil {
		return fmt.Errorf("error executing migrations [%s]: %w", list, err)
	}

	log.Infof("successfully ran %d migrations from: %s", applied, list)
	return nil
}

func parseMigration(m Migration) (*migrate.Migration, error) {
	down, up, found := strings.Cut(m.SQL, UpDownSeparator)
	if !found {
		return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, UpDownSeparator)
	}

	if idx := strings.Index(down, downMarker); idx != -1 {
		down = down[idx+len(downMarker):]
	}

	return &migrate.Migration{
		Id:   m.ID,
		Up:   []string{strings.TrimSpace(up)},
		Down: []string{strings.TrimSpace(down)},
	}, nil
}
