package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"
)

// Tx is the part of *sql.Tx the mutation helpers need.
type Tx interface {
	meddler.DB
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertEventLog records an event unless its (transaction_hash, event_index) key was seen before.
// It reports whether a new row was written.
func InsertEventLog(ctx context.Context, tx Tx, entry *EventLogEntry) (bool, error) {
	data := string(entry.Data)
	if data == "" {
		data = "null"
	}

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO event_log
			(event_type, game_id, player_address, data, transaction_hash, transaction_version, event_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.EventType,
		entry.GameID,
		entry.PlayerAddress,
		data,
		entry.TransactionHash,
		entry.TransactionVersion,
		entry.EventIndex,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event log: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}

// GetGame loads a game by its on-chain id.
func GetGame(tx meddler.DB, gameID uint64) (*Game, error) {
	var game Game
	err := meddler.QueryRow(tx, &game, `SELECT * FROM games WHERE game_id = ?`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	return &game, nil
}

// InsertGame stores a new game row.
func InsertGame(tx meddler.DB, game *Game) error {
	if err := meddler.Insert(tx, "games", game); err != nil {
		return fmt.Errorf("failed to insert game %d: %w", game.GameID, err)
	}
	return nil
}

// UpdateGame writes back a game previously loaded with GetGame.
func UpdateGame(tx meddler.DB, game *Game) error {
	if err := meddler.Update(tx, "games", game); err != nil {
		return fmt.Errorf("failed to update game %d: %w", game.GameID, err)
	}
	return nil
}

// GetPlayer loads a player by address.
func GetPlayer(tx meddler.DB, address string) (*Player, error) {
	var player Player
	err := meddler.QueryRow(tx, &player, `SELECT * FROM players WHERE address = ?`, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", address, err)
	}
	return &player, nil
}

// SavePlayer inserts a new player or updates an existing one.
func SavePlayer(tx meddler.DB, player *Player) error {
	if err := meddler.Save(tx, "players", player); err != nil {
		return fmt.Errorf("failed to save player %s: %w", player.Address, err)
	}
	return nil
}

// IncrementGamesPlayed bumps games_played of an existing player.
// It reports whether the player existed.
func IncrementGamesPlayed(ctx context.Context, tx Tx, address string, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE players SET games_played = games_played + 1, last_active = ? WHERE address = ?`,
		now.UTC(), address)
	if err != nil {
		return false, fmt.Errorf("failed to increment games played for %s: %w", address, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}
