package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/russross/meddler"
)

// StateManager persists the indexer watermark: the highest fully processed
// transaction version. The watermark never decreases.
type StateManager struct {
	db          *sql.DB
	log         *logger.Logger
	maintenance db.Maintenance
}

// NewStateManager creates a StateManager over an already migrated database.
func NewStateManager(sqlDB *sql.DB, log *logger.Logger, maintenance db.Maintenance) *StateManager {
	if maintenance == nil {
		maintenance = db.NoOpMaintenance{}
	}

	return &StateManager{
		db:          sqlDB,
		log:         log.WithComponent(common.ComponentStateManager),
		maintenance: maintenance,
	}
}

// LastProcessedVersion returns the watermark, or 0 when nothing was processed yet.
func (sm *StateManager) LastProcessedVersion(ctx context.Context) (uint64, error) {
	unlock := sm.maintenance.AcquireOperationLock()
	defer unlock()

	var version uint64
	err := sm.db.QueryRowContext(ctx,
		`SELECT last_processed_version FROM indexer_state WHERE id = 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last processed version: %w", err)
	}

	return version, nil
}

// GetState returns the watermark row, or nil when it does not exist yet.
func (sm *StateManager) GetState(ctx context.Context) (*IndexerState, error) {
	unlock := sm.maintenance.AcquireOperationLock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state IndexerState
	err := meddler.QueryRow(sm.db, &state, `SELECT * FROM indexer_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indexer state: %w", err)
	}

	return &state, nil
}

// SaveWatermark advances the watermark to version if it is greater than the stored one.
// It reports whether the row changed. The row is created on first use.
func (sm *StateManager) SaveWatermark(ctx context.Context, version uint64, syncedAt time.Time) (bool, error) {
	if version == 0 {
		return false, nil
	}

	unlock := sm.maintenance.AcquireOperationLock()
	defer unlock()

	res, err := sm.db.ExecContext(ctx, `
		INSERT INTO indexer_state (id, last_processed_version, last_sync_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			last_processed_version = excluded.last_processed_version,
			last_sync_at = excluded.last_sync_at
		WHERE excluded.last_processed_version > indexer_state.last_processed_version
	`, version, syncedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to save watermark: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		sm.log.Debugf("watermark not advanced: version %d is not above the stored one", version)
		return false, nil
	}

	sm.log.Debugf("watermark advanced to %d", version)
	metrics.LastProcessedVersionSet(version)

	return true, nil
}
