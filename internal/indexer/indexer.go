// Package indexer applies arcade game events from the chain to the read model.
package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/goran-ethernal/ArcadeIndexor/internal/notify"
	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/chain"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/indexer"
)

// Compile-time check to ensure GameIndexer implements indexer.Indexer interface.
var _ indexer.Indexer = (*GameIndexer)(nil)

// GameIndexer reads the contract's transactions and maintains games, players and the event log.
type GameIndexer struct {
	reader      chain.Reader
	db          *sql.DB
	state       *store.StateManager
	publisher   notify.Publisher
	maintenance db.Maintenance
	log         *logger.Logger

	contract    string
	eventPrefix string
	pageSize    int
	now         func() time.Time
}

// Option customises a GameIndexer.
type Option func(*GameIndexer)

// WithClock replaces the clock used for created_at, joined_at, finished_at and last_active.
func WithClock(now func() time.Time) Option {
	return func(g *GameIndexer) { g.now = now }
}

// WithPublisher sets the publisher notified about touched games.
func WithPublisher(p notify.Publisher) Option {
	return func(g *GameIndexer) { g.publisher = p }
}

// WithMaintenance sets the coordinator whose operation lock guards database writes.
func WithMaintenance(m db.Maintenance) Option {
	return func(g *GameIndexer) { g.maintenance = m }
}

// NewGameIndexer creates a GameIndexer for the contract configured in cfg.
// The database must already be migrated.
func NewGameIndexer(
	reader chain.Reader,
	sqlDB *sql.DB,
	state *store.StateManager,
	cfg config.ChainConfig,
	log *logger.Logger,
	opts ...Option,
) *GameIndexer {
	g := &GameIndexer{
		reader:      reader,
		db:          sqlDB,
		state:       state,
		publisher:   notify.NopPublisher{},
		maintenance: db.NoOpMaintenance{},
		log:         log.WithComponent(common.ComponentIndexer),
		contract:    cfg.ContractAddress,
		eventPrefix: cfg.ContractAddress + "::" + cfg.ModuleName + "::",
		pageSize:    cfg.PageSize,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.pageSize <= 0 {
		g.pageSize = config.DefaultPageSize
	}

	return g
}

// RunCycle fetches one page of the contract's transactions and applies every user
// transaction above the watermark, oldest first. Each transaction is committed on its
// own; the watermark is advanced only once the whole page was applied.
func (g *GameIndexer) RunCycle(ctx context.Context) (indexer.CycleResult, error) {
	watermark, err := g.state.LastProcessedVersion(ctx)
	if err != nil {
		return indexer.CycleResult{}, err
	}

	result := indexer.CycleResult{LastVersion: watermark}

	txs, err := g.reader.AccountTransactions(ctx, g.contract, g.pageSize)
	if err != nil {
		return result, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	chain.SortByVersion(txs)
	pending := chain.After(txs, watermark)

	g.log.Debugf("fetched %d transactions, %d above version %d", len(txs), len(pending), watermark)

	highest := watermark
	for _, tx := range pending {
		if !tx.IsUser() {
			continue
		}

		applied, err := g.applyTransaction(ctx, tx)
		if err != nil {
			return result, fmt.Errorf("failed to apply transaction %d (%s): %w", tx.Version, tx.Hash, err)
		}

		result.Processed += applied.processed
		result.Rejected += applied.rejected
		result.Transactions++

		if tx.Version > highest {
			highest = tx.Version
		}
	}

	if highest > watermark {
		advanced, err := g.state.SaveWatermark(ctx, highest, g.now())
		if err != nil {
			return result, err
		}
		result.LastVersion = highest
		if !advanced {
			// another instance stored a higher watermark meanwhile
			if result.LastVersion, err = g.state.LastProcessedVersion(ctx); err != nil {
				return result, err
			}
		}
	}

	if result.Processed > 0 {
		g.log.Infof("indexed %d events from %d transactions, watermark %d",
			result.Processed, result.Transactions, result.LastVersion)
	}

	return result, nil
}

// txOutcome counts what applying one chain transaction did.
type txOutcome struct {
	processed int
	rejected  int
	touched   []touchedGame
}

type touchedGame struct {
	gameID    uint64
	eventType string
}

// applyTransaction applies all events of tx inside one SQL transaction.
func (g *GameIndexer) applyTransaction(ctx context.Context, tx chain.Transaction) (txOutcome, error) {
	var out txOutcome

	unlock := g.maintenance.AcquireOperationLock()
	defer unlock()

	dbTx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return out, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := dbTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			g.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	tc := txContext{hash: tx.Hash, version: tx.Version, now: g.now().UTC(), log: g.log}

	for i, ev := range tx.Events {
		res, err := g.applyEvent(ctx, dbTx, tc, i, ev)
		if err != nil {
			return txOutcome{}, err
		}
		if !res.recorded {
			continue
		}

		out.processed++
		if res.rejected {
			out.rejected++
		}
		if res.game != nil {
			out.touched = append(out.touched, touchedGame{gameID: res.game.GameID, eventType: res.eventType})
		}
	}

	if err := dbTx.Commit(); err != nil {
		return txOutcome{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.TransactionIndexedInc()
	g.publishTouched(ctx, tx.Version, out.touched)

	return out, nil
}

// publishTouched reloads the committed state of every touched game and publishes it.
// Publishing failures are logged; the transaction is already committed.
func (g *GameIndexer) publishTouched(ctx context.Context, version uint64, touched []touchedGame) {
	if _, ok := g.publisher.(notify.NopPublisher); ok {
		return
	}

	for _, t := range touched {
		game, err := store.GetGame(g.db, t.gameID)
		if err != nil {
			g.log.Warnf("failed to load game %d for notification: %v", t.gameID, err)
			continue
		}

		err = g.publisher.PublishGameUpdate(ctx, notify.GameUpdate{
			GameID:             game.GameID,
			State:              int(game.State),
			BetTier:            game.BetTier,
			Player1Address:     game.Player1Address,
			Player2Address:     game.Player2Address,
			WinnerAddress:      game.WinnerAddress,
			EventType:          t.eventType,
			TransactionVersion: version,
		})
		if err != nil {
			g.log.Warnf("failed to publish update of game %d: %v", t.gameID, err)
		}
	}
}

// fromConfiguredModule reports whether a raw event tag belongs to the configured contract module.
func (g *GameIndexer) fromConfiguredModule(tag string) bool {
	return strings.HasPrefix(tag, g.eventPrefix)
}
