package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/migrations"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "arcade.sqlite")}
	cfg.ApplyDefaults()

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, migrations.RunMigrationsDB(logger.NewNopLogger(), sqlDB))

	return sqlDB
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func insertGame(t *testing.T, sqlDB *sql.DB, game *Game) {
	t.Helper()
	if game.BetTier == 0 {
		game.BetTier = 1
	}
	if game.CreationTxHash == "" {
		game.CreationTxHash = "0xcreate"
	}
	require.NoError(t, InsertGame(sqlDB, game))
}

func insertPlayer(t *testing.T, sqlDB *sql.DB, address string, winnings string, won int64) {
	t.Helper()
	require.NoError(t, SavePlayer(sqlDB, &Player{
		Address:       address,
		GamesWon:      won,
		TotalWagered:  decimal.Zero,
		TotalWinnings: decimal.RequireFromString(winnings),
		LastActive:    baseTime,
	}))
}
