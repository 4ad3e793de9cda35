package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/russross/meddler"
	"github.com/shopspring/decimal"
)

// Default and maximum page sizes of the lobby queries.
const (
	DefaultCreatedGamesLimit = 10
	DefaultPlayerGamesLimit  = 20
	DefaultLeaderboardLimit  = 10
	DefaultHistoryLimit      = 20
	DefaultEventsLimit       = 50
	MaxLimit                 = 100
)

// ReadModel answers lobby, stats and leaderboard queries against the indexed tables.
type ReadModel struct {
	db          *sql.DB
	maintenance db.Maintenance
}

// NewReadModel creates a ReadModel over an already migrated database.
func NewReadModel(sqlDB *sql.DB, maintenance db.Maintenance) *ReadModel {
	if maintenance == nil {
		maintenance = db.NoOpMaintenance{}
	}
	return &ReadModel{db: sqlDB, maintenance: maintenance}
}

// PlayerGamesFilter narrows PlayerGames.
type PlayerGamesFilter struct {
	// CreatedOnly keeps games where the address is player 1
	CreatedOnly bool
	// ActiveOnly keeps waiting and joined games
	ActiveOnly bool
	Limit      int
}

// EventFilter narrows Events.
type EventFilter struct {
	GameID    *uint64
	EventType string
	Limit     int
	Offset    int
}

// AvailableGames lists waiting games, newest first, optionally for a single tier (tier 0 means any).
func (r *ReadModel) AvailableGames(ctx context.Context, tier int, limit int) ([]*Game, error) {
	query := `SELECT * FROM games WHERE state = ?`
	args := []any{StateWaiting}

	if tier != 0 {
		query += ` AND bet_tier = ?`
		args = append(args, tier)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, clampLimit(limit, MaxLimit))

	var games []*Game
	err := r.queryAll(ctx, "available_games", &games, query, args...)
	return games, err
}

// GameByID returns a single game or ErrNotFound.
func (r *ReadModel) GameByID(ctx context.Context, gameID uint64) (*Game, error) {
	var game Game
	err := r.queryRow(ctx, "game_by_id", &game, `SELECT * FROM games WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// PlayerGames lists games the address takes part in, newest first.
func (r *ReadModel) PlayerGames(ctx context.Context, address string, filter PlayerGamesFilter) ([]*Game, error) {
	var (
		conds []string
		args  []any
	)

	if filter.CreatedOnly {
		conds = append(conds, `player1_address = ?`)
		args = append(args, address)
	} else {
		conds = append(conds, `(player1_address = ? OR player2_address = ?)`)
		args = append(args, address, address)
	}

	if filter.ActiveOnly {
		conds = append(conds, `state IN (?, ?)`)
		args = append(args, StateWaiting, StateJoined)
	}

	limit := filter.Limit
	if limit <= 0 {
		switch {
		case filter.ActiveOnly:
			limit = MaxLimit
		case filter.CreatedOnly:
			limit = DefaultCreatedGamesLimit
		default:
			limit = DefaultPlayerGamesLimit
		}
	}
	args = append(args, clampLimit(limit, MaxLimit))

	query := `SELECT * FROM games WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id DESC LIMIT ?`

	var games []*Game
	err := r.queryAll(ctx, "player_games", &games, query, args...)
	return games, err
}

// PlayerStats returns the statistics of an address. Unknown addresses get zeroed stats.
func (r *ReadModel) PlayerStats(ctx context.Context, address string) (*Player, error) {
	var player Player
	err := r.queryRow(ctx, "player_stats", &player, `SELECT * FROM players WHERE address = ?`, address)
	if errors.Is(err, ErrNotFound) {
		return &Player{
			Address:       address,
			TotalWagered:  decimal.Zero,
			TotalWinnings: decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// Leaderboard ranks players by total winnings. Winnings are stored as decimal
// strings, so ordering by length first keeps the order numeric.
func (r *ReadModel) Leaderboard(ctx context.Context, limit int) ([]*Player, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	var players []*Player
	err := r.queryAll(ctx, "leaderboard", &players, `
		SELECT * FROM players
		ORDER BY length(total_winnings) DESC, total_winnings DESC, games_won DESC, address ASC
		LIMIT ?`, clampLimit(limit, MaxLimit))
	return players, err
}

// MatchHistory lists finished games that have a winner, most recently finished first.
func (r *ReadModel) MatchHistory(ctx context.Context, limit int) ([]*Game, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var games []*Game
	err := r.queryAll(ctx, "match_history", &games, `
		SELECT * FROM games
		WHERE state = ? AND winner_address IS NOT NULL
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`, StateFinished, clampLimit(limit, MaxLimit))
	return games, err
}

// Events pages through the event log in insertion order.
func (r *ReadModel) Events(ctx context.Context, filter EventFilter) ([]*EventLogEntry, error) {
	where, args := filter.where()

	query := `SELECT * FROM event_log` + where + ` ORDER BY id ASC LIMIT ? OFFSET ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultEventsLimit
	}
	args = append(args, clampLimit(limit, MaxLimit), max(filter.Offset, 0))

	var entries []*EventLogEntry
	err := r.queryAll(ctx, "events", &entries, query, args...)
	return entries, err
}

// CountEvents returns the number of event log entries matching filter. Limit and Offset are ignored.
func (r *ReadModel) CountEvents(ctx context.Context, filter EventFilter) (int, error) {
	unlock := r.maintenance.AcquireOperationLock()
	defer unlock()

	where, args := filter.where()

	start := time.Now()
	metrics.DBQueryInc("count_events")
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_log`+where, args...).Scan(&total)
	metrics.DBQueryDuration("count_events", time.Since(start))
	if err != nil {
		metrics.DBErrorsInc("count_events")
		return 0, fmt.Errorf("count_events query failed: %w", err)
	}

	return total, nil
}

func (f EventFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.GameID != nil {
		conds = append(conds, `game_id = ?`)
		args = append(args, *f.GameID)
	}
	if f.EventType != "" {
		conds = append(conds, `event_type = ?`)
		args = append(args, f.EventType)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, " AND "), args
}

func (r *ReadModel) queryAll(ctx context.Context, operation string, dst any, query string, args ...any) error {
	unlock := r.maintenance.AcquireOperationLock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	metrics.DBQueryInc(operation)
	err := meddler.QueryAll(r.db, dst, query, args...)
	metrics.DBQueryDuration(operation, time.Since(start))

	if err != nil {
		metrics.DBErrorsInc(operation)
		return fmt.Errorf("%s query failed: %w", operation, err)
	}
	return nil
}

func (r *ReadModel) queryRow(ctx context.Context, operation string, dst any, query string, args ...any) error {
	unlock := r.maintenance.AcquireOperationLock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	metrics.DBQueryInc(operation)
	err := meddler.QueryRow(r.db, dst, query, args...)
	metrics.DBQueryDuration(operation, time.Since(start))

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		metrics.DBErrorsInc(operation)
		return fmt.Errorf("%s query failed: %w", operation, err)
	}
	return nil
}

func clampLimit(limit, maxLimit int) int {
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}
