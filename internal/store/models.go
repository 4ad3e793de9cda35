package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// GameState is the lifecycle state of a game.
type GameState int

const (
	StateWaiting  GameState = 0
	StateJoined   GameState = 1
	StateFinished GameState = 2
)

func (s GameState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateJoined:
		return "joined"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Game is one row of the games table.
type Game struct {
	ID              int64           `meddler:"id,pk" json:"-"`
	GameID          uint64          `meddler:"game_id" json:"game_id"`
	BetAmount       decimal.Decimal `meddler:"bet_amount,decimal" json:"bet_amount"`
	BetTier         int             `meddler:"bet_tier" json:"bet_tier"`
	Player1Address  string          `meddler:"player1_address" json:"player1_address"`
	Player2Address  *string         `meddler:"player2_address" json:"player2_address"`
	WinnerAddress   *string         `meddler:"winner_address" json:"winner_address"`
	State           GameState       `meddler:"state" json:"state"`
	CreationTxHash  string          `meddler:"creation_tx_hash" json:"creation_tx_hash"`
	JoinTxHash      *string         `meddler:"join_tx_hash" json:"join_tx_hash"`
	FinishTxHash    *string         `meddler:"finish_tx_hash" json:"finish_tx_hash"`
	CreatedAt       time.Time       `meddler:"created_at" json:"created_at"`
	JoinedAt        *time.Time      `meddler:"joined_at" json:"joined_at"`
	FinishedAt      *time.Time      `meddler:"finished_at" json:"finished_at"`
	Player1Finished bool            `meddler:"player1_finished" json:"player1_finished"`
	Player2Finished bool            `meddler:"player2_finished" json:"player2_finished"`
}

// Player holds aggregated statistics for one address.
type Player struct {
	ID            int64           `meddler:"id,pk" json:"-"`
	Address       string          `meddler:"address" json:"address"`
	GamesPlayed   int64           `meddler:"games_played" json:"games_played"`
	GamesWon      int64           `meddler:"games_won" json:"games_won"`
	TotalWagered  decimal.Decimal `meddler:"total_wagered,decimal" json:"total_wagered"`
	TotalWinnings decimal.Decimal `meddler:"total_winnings,decimal" json:"total_winnings"`
	LastActive    time.Time       `meddler:"last_active" json:"last_active"`
}

// EventLogEntry is an append-only record of every event seen in an indexed transaction.
type EventLogEntry struct {
	ID                 int64           `meddler:"id,pk" json:"id"`
	EventType          string          `meddler:"event_type" json:"event_type"`
	GameID             *uint64         `meddler:"game_id" json:"game_id"`
	PlayerAddress      *string         `meddler:"player_address" json:"player_address"`
	Data               json.RawMessage `meddler:"data,rawjson" json:"data"`
	TransactionHash    string          `meddler:"transaction_hash" json:"transaction_hash"`
	TransactionVersion uint64          `meddler:"transaction_version" json:"transaction_version"`
	EventIndex         int             `meddler:"event_index" json:"event_index"`
	CreatedAt          time.Time       `meddler:"created_at" json:"created_at"`
}

// IndexerState is the singleton watermark row.
type IndexerState struct {
	ID                   int        `meddler:"id,pk" json:"-"`
	LastProcessedVersion uint64     `meddler:"last_processed_version" json:"last_processed_version"`
	LastSyncAt           *time.Time `meddler:"last_sync_at" json:"last_sync_at"`
}
