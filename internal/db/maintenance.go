package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
)

// Maintenance serialises WAL checkpoints and VACUUM against regular read-model access.
type Maintenance interface {
	// Start begins background maintenance if enabled.
	Start(ctx context.Context) error
	// Stop stops background maintenance and waits for the worker to exit.
	Stop() error
	// AcquireOperationLock takes a shared lock for a database operation.
	// The returned function releases it.
	AcquireOperationLock() func()
	// RunMaintenance performs a maintenance pass immediately.
	RunMaintenance(ctx context.Context) error
	// Stats returns counters about past maintenance passes.
	Stats() MaintenanceStats
}

// MaintenanceStats provides visibility into maintenance passes.
type MaintenanceStats struct {
	LastRun   time.Time
	Runs      uint64
	LastError error
}

// NoOpMaintenance is used when maintenance is not configured.
type NoOpMaintenance struct{}

func (NoOpMaintenance) Start(context.Context) error          { return nil }
func (NoOpMaintenance) Stop() error                          { return nil }
func (NoOpMaintenance) AcquireOperationLock() func()         { return func() {} }
func (NoOpMaintenance) RunMaintenance(context.Context) error { return nil }
func (NoOpMaintenance) Stats() MaintenanceStats              { return MaintenanceStats{} }

// MaintenanceCoordinator runs maintenance under the write side of an RWMutex.
// Database operations hold the read side, so maintenance waits for in-flight work
// and blocks new work until it is done.
type MaintenanceCoordinator struct {
	db     *sql.DB
	dbPath string
	cfg    config.MaintenanceConfig
	log    *logger.Logger

	opLock sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu sync.Mutex
	stats   MaintenanceStats
}

// NewMaintenanceCoordinator returns a coordinator for the database, or a no-op when cfg is nil.
func NewMaintenanceCoordinator(
	dbPath string,
	db *sql.DB,
	cfg *config.MaintenanceConfig,
	log *logger.Logger,
) Maintenance {
	if cfg == nil {
		return NoOpMaintenance{}
	}

	return newMaintenanceCoordinator(dbPath, db, *cfg, log)
}

func newMaintenanceCoordinator(
	dbPath string,
	db *sql.DB,
	cfg config.MaintenanceConfig,
	log *logger.Logger,
) *MaintenanceCoordinator {
	return &MaintenanceCoordinator{
		db:     db,
		dbPath: dbPath,
		cfg:    cfg,
		log:    log.WithComponent(common.ComponentMaintenance),
	}
}

// Start launches the periodic maintenance worker.
func (m *MaintenanceCoordinator) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		m.log.Info("background maintenance is disabled")
		return nil
	}

	ctx, m.cancel = context.WithCancel(ctx)

	if m.cfg.VacuumOnStartup {
		if err := m.RunMaintenance(ctx); err != nil {
			m.log.Warnf("startup maintenance failed: %v", err)
		}
	}

	m.wg.Add(1)
	go m.worker(ctx)

	m.log.Infof("background maintenance started, interval=%s checkpoint_mode=%s",
		m.cfg.CheckInterval.Duration, m.cfg.WALCheckpointMode)

	return nil
}

// Stop cancels the worker and waits for it.
func (m *MaintenanceCoordinator) Stop() error {
	if m.cancel == nil {
		return nil
	}

	m.cancel()
	m.wg.Wait()
	m.log.Info("background maintenance stopped")

	return nil
}

func (m *MaintenanceCoordinator) worker(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.CheckInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RunMaintenance(ctx); err != nil {
				m.log.Warnf("periodic maintenance failed: %v", err)
			}
		}
	}
}

// RunMaintenance checkpoints the WAL and vacuums the database with exclusive access.
func (m *MaintenanceCoordinator) RunMaintenance(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		maintenanceFinished(start, err)

		m.statsMu.Lock()
		m.stats.LastRun = time.Now().UTC()
		m.stats.Runs++
		m.stats.LastError = err
		m.statsMu.Unlock()
	}()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	sizeBefore, sizeErr := DBTotalSize(m.dbPath)
	if sizeErr != nil {
		m.log.Warnf("failed to read database size: %v", sizeErr)
	}

	var errs []error
	if cpErr := m.walCheckpoint(ctx); cpErr != nil {
		errs = append(errs, fmt.Errorf("WAL checkpoint failed: %w", cpErr))
	}
	if vErr := m.vacuum(ctx); vErr != nil {
		errs = append(errs, fmt.Errorf("VACUUM failed: %w", vErr))
	}

	sizeAfter, sizeErr := DBTotalSize(m.dbPath)
	if sizeErr == nil {
		dbSizeLog(sizeAfter)
	}

	if err := errors.Join(errs...); err != nil {
		m.log.Warnf("maintenance completed with errors in %s: %v", time.Since(start), err)
		return err
	}

	if sizeBefore > sizeAfter {
		m.log.Infof("maintenance completed in %s, reclaimed %d MB",
			time.Since(start), common.BytesToMB(uint64(sizeBefore-sizeAfter)))
	} else {
		m.log.Infof("maintenance completed in %s", time.Since(start))
	}

	return nil
}

func (m *MaintenanceCoordinator) walCheckpoint(ctx context.Context) error {
	var mode string
	if err := m.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		m.log.Debugf("journal mode is %s, skipping WAL checkpoint", mode)
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.cfg.WALCheckpointMode)
	if err := m.db.QueryRowContext(ctx, query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return err
	}

	walCheckpointInc(strings.ToLower(m.cfg.WALCheckpointMode))
	m.log.Debugf("WAL checkpoint mode=%s busy=%d log_frames=%d checkpointed=%d",
		m.cfg.WALCheckpointMode, busy, logFrames, checkpointed)

	if busy > 0 {
		m.log.Warnf("WAL checkpoint left %d busy pages", busy)
	}

	return nil
}

func (m *MaintenanceCoordinator) vacuum(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, "VACUUM"); err != nil {
		if strings.Contains(err.Error(), "database is locked") {
			return fmt.Errorf("database is locked, retry later")
		}
		return err
	}

	vacuumInc()
	return nil
}

// AcquireOperationLock takes the shared side of the maintenance lock.
func (m *MaintenanceCoordinator) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}

// Stats returns counters about past maintenance passes.
func (m *MaintenanceCoordinator) Stats() MaintenanceStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	return m.stats
}
