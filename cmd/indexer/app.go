package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goran-ethernal/ArcadeIndexor/internal/aptos"
	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/indexer"
	"github.com/goran-ethernal/ArcadeIndexor/internal/kv"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/migrations"
	"github.com/goran-ethernal/ArcadeIndexor/internal/notify"
	"github.com/goran-ethernal/ArcadeIndexor/internal/scheduler"
	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	pkgconfig "github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/redis/go-redis/v9"
)

// app holds the components shared by the run and once commands.
type app struct {
	log         *logger.Logger
	db          *sql.DB
	maintenance db.Maintenance
	redis       *redis.Client
	state       *store.StateManager
	reads       *store.ReadModel
	indexer     *indexer.GameIndexer
}

// newApp opens and wires every component. On failure whatever was already opened is closed.
func newApp(ctx context.Context, cfg *pkgconfig.Config) (*app, error) {
	a := &app{}
	if err := a.init(ctx, cfg); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, cfg *pkgconfig.Config) error {
	logCfg := loggingConfig(cfg)
	a.log = logger.NewComponentLoggerFromConfig(common.ComponentIndexer, logCfg)

	reader, err := aptos.NewClient(cfg.Chain, logger.NewComponentLoggerFromConfig(common.ComponentChainReader, logCfg))
	if err != nil {
		return fmt.Errorf("failed to create aptos client: %w", err)
	}

	a.db, err = db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	a.log.Info("Running database migrations...")
	if err := migrations.RunMigrationsDB(a.log, a.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.maintenance = db.NewMaintenanceCoordinator(
		cfg.DB.Path,
		a.db,
		cfg.Maintenance,
		logger.NewComponentLoggerFromConfig(common.ComponentMaintenance, logCfg),
	)

	a.state = store.NewStateManager(a.db,
		logger.NewComponentLoggerFromConfig(common.ComponentStateManager, logCfg), a.maintenance)
	a.reads = store.NewReadModel(a.db, a.maintenance)

	publisher := notify.Publisher(notify.NopPublisher{})
	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		a.redis, err = kv.NewRedisClient(ctx, *cfg.Redis, a.log)
		if err != nil {
			return err
		}
		publisher = notify.NewPublisher(cfg.Notify, a.redis,
			logger.NewComponentLoggerFromConfig(common.ComponentNotifier, logCfg))
	}

	a.indexer = indexer.NewGameIndexer(reader, a.db, a.state, cfg.Chain, a.log,
		indexer.WithPublisher(publisher),
		indexer.WithMaintenance(a.maintenance),
	)

	return nil
}

// newScheduler builds the cycle scheduler, guarded by the redis lock when configured.
func (a *app) newScheduler(cfg *pkgconfig.Config, log *logger.Logger) (*scheduler.Scheduler, error) {
	var opts []scheduler.Option
	if cfg.Scheduler.DistributedLock {
		lock := scheduler.NewRedisLock(a.redis, scheduler.DefaultLockKey, cfg.Scheduler.LockTTL.Duration)
		opts = append(opts, scheduler.WithLocker(lock))
		log.Infof("Distributed cycle lock enabled (key %s)", lock.Key())
	}

	sched, err := scheduler.New(a.indexer, cfg.Scheduler, log, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return sched, nil
}

func (a *app) close() {
	if a == nil {
		return
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warnf("Failed to close redis client: %v", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warnf("Failed to close database: %v", err)
		}
	}
}
