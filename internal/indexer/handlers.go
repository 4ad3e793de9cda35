package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/events"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	"github.com/shopspring/decimal"
)

// activity is the way a player touches a game.
type activity int

const (
	wagered activity = iota
	won
)

// txContext carries what the handlers need to know about the chain transaction being applied.
type txContext struct {
	hash    string
	version uint64
	now     time.Time
	log     *logger.Logger
}

// handleGameCreated stores a new WAITING game and credits the creator's wager.
func handleGameCreated(ctx context.Context, tx store.Tx, tc txContext, ev *events.GameCreated) (*store.Game, error) {
	if _, err := store.GetGame(tx, ev.GameID); err == nil {
		return nil, fmt.Errorf("game %d: %w", ev.GameID, ErrDuplicateGame)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	game := &store.Game{
		GameID:         ev.GameID,
		BetAmount:      ev.BetAmount,
		BetTier:        events.BetTier(ev.BetAmount),
		Player1Address: ev.Creator,
		State:          store.StateWaiting,
		CreationTxHash: tc.hash,
		CreatedAt:      tc.now,
	}
	if err := store.InsertGame(tx, game); err != nil {
		return nil, err
	}

	if err := upsertPlayer(tx, ev.Creator, wagered, ev.BetAmount, tc.now); err != nil {
		return nil, err
	}

	return game, nil
}

// handleGameJoined moves a WAITING game to JOINED, credits the joiner's wager and
// counts the game for its creator.
func handleGameJoined(ctx context.Context, tx store.Tx, tc txContext, ev *events.GameJoined) (*store.Game, error) {
	game, err := loadGame(tx, ev.GameID)
	if err != nil {
		return nil, err
	}
	if game.State != store.StateWaiting {
		return nil, fmt.Errorf("game %d cannot be joined in state %s: %w", ev.GameID, game.State, ErrInvalidTransition)
	}

	player2 := ev.Player
	joinTx := tc.hash
	joinedAt := tc.now

	game.Player2Address = &player2
	game.State = store.StateJoined
	game.JoinedAt = &joinedAt
	game.JoinTxHash = &joinTx

	if err := store.UpdateGame(tx, game); err != nil {
		return nil, err
	}

	if err := upsertPlayer(tx, ev.Player, wagered, ev.BetAmount, tc.now); err != nil {
		return nil, err
	}

	// only the creator's games_played moves on join
	incremented, err := store.IncrementGamesPlayed(ctx, tx, game.Player1Address, tc.now)
	if err != nil {
		return nil, err
	}
	if !incremented {
		tc.log.Warnw("creator has no player row, games_played not incremented",
			"game_id", game.GameID, "creator", game.Player1Address, "tx", tc.hash)
	}

	return game, nil
}

// handleGameFinished settles a JOINED game and credits the winner, if any.
func handleGameFinished(ctx context.Context, tx store.Tx, tc txContext, ev *events.GameFinished) (*store.Game, error) {
	game, err := loadGame(tx, ev.GameID)
	if err != nil {
		return nil, err
	}
	if game.State != store.StateJoined {
		return nil, fmt.Errorf("game %d cannot finish in state %s: %w", ev.GameID, game.State, ErrInvalidTransition)
	}

	finishTx := tc.hash
	finishedAt := tc.now

	game.State = store.StateFinished
	game.FinishedAt = &finishedAt
	game.FinishTxHash = &finishTx
	game.Player1Finished = true
	game.Player2Finished = true
	game.WinnerAddress = nil

	if ev.HasWinner() {
		winner := ev.Winner
		game.WinnerAddress = &winner
	}

	if err := store.UpdateGame(tx, game); err != nil {
		return nil, err
	}

	if ev.HasWinner() {
		if err := upsertPlayer(tx, ev.Winner, won, ev.PrizeAmount, tc.now); err != nil {
			return nil, err
		}
	}

	return game, nil
}

func loadGame(tx store.Tx, gameID uint64) (*store.Game, error) {
	game, err := store.GetGame(tx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("game %d: %w", gameID, ErrGameNotFound)
	}
	return game, err
}

// upsertPlayer creates the player seeded from this activity or adds the amount to the existing totals.
func upsertPlayer(tx store.Tx, address string, kind activity, amount decimal.Decimal, now time.Time) error {
	player, err := store.GetPlayer(tx, address)
	switch {
	case errors.Is(err, store.ErrNotFound):
		player = &store.Player{
			Address:       address,
			TotalWagered:  decimal.Zero,
			TotalWinnings: decimal.Zero,
		}
		switch kind {
		case wagered:
			player.GamesPlayed = 1
			player.TotalWagered = amount
		case won:
			player.GamesWon = 1
			player.TotalWinnings = amount
		}
	case err != nil:
		return err
	default:
		switch kind {
		case wagered:
			player.TotalWagered = player.TotalWagered.Add(amount)
		case won:
			player.GamesWon++
			player.TotalWinnings = player.TotalWinnings.Add(amount)
		}
	}

	player.LastActive = now

	return store.SavePlayer(tx, player)
}
