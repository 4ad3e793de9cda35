package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestInsertEventLog_Idempotent(t *testing.T) {
	sqlDB := newTestDB(t)
	ctx := context.Background()

	gameID := uint64(7)
	entry := &EventLogEntry{
		EventType:          "GameCreatedEvent",
		GameID:             &gameID,
		PlayerAddress:      strPtr("0xA"),
		Data:               json.RawMessage(`{"game_id":"7","creator":"0xA","bet_amount":"10000000"}`),
		TransactionHash:    "0xa",
		TransactionVersion: 101,
		EventIndex:         0,
		CreatedAt:          baseTime,
	}

	inserted, err := InsertEventLog(ctx, sqlDB, entry)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = InsertEventLog(ctx, sqlDB, entry)
	require.NoError(t, err)
	require.False(t, inserted)

	entry.EventIndex = 1
	entry.GameID = nil
	entry.PlayerAddress = nil
	inserted, err = InsertEventLog(ctx, sqlDB, entry)
	require.NoError(t, err)
	require.True(t, inserted)

	entries, err := NewReadModel(sqlDB, nil).Events(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(7), *entries[0].GameID)
	require.Equal(t, "0xA", *entries[0].PlayerAddress)
	require.JSONEq(t, string(entry.Data), string(entries[0].Data))
	require.Nil(t, entries[1].GameID)
	require.Nil(t, entries[1].PlayerAddress)
	require.Equal(t, uint64(101), entries[1].TransactionVersion)
}

func TestGameRoundTrip(t *testing.T) {
	sqlDB := newTestDB(t)

	_, err := GetGame(sqlDB, 7)
	require.ErrorIs(t, err, ErrNotFound)

	game := &Game{
		GameID:         7,
		BetAmount:      decimal.RequireFromString("10000000"),
		BetTier:        1,
		Player1Address: "0xA",
		State:          StateWaiting,
		CreationTxHash: "0xa",
		CreatedAt:      baseTime,
	}
	require.NoError(t, InsertGame(sqlDB, game))

	// game_id is unique
	dup := *game
	dup.ID = 0
	require.Error(t, InsertGame(sqlDB, &dup))

	loaded, err := GetGame(sqlDB, 7)
	require.NoError(t, err)
	require.Equal(t, StateWaiting, loaded.State)
	require.Nil(t, loaded.Player2Address)
	require.Nil(t, loaded.JoinedAt)
	require.Equal(t, "10000000", loaded.BetAmount.String())

	loaded.State = StateJoined
	loaded.Player2Address = strPtr("0xB")
	loaded.JoinTxHash = strPtr("0xb")
	loaded.JoinedAt = timePtr(baseTime.Add(time.Minute))
	require.NoError(t, UpdateGame(sqlDB, loaded))

	reloaded, err := GetGame(sqlDB, 7)
	require.NoError(t, err)
	require.Equal(t, StateJoined, reloaded.State)
	require.Equal(t, "0xB", *reloaded.Player2Address)
	require.True(t, baseTime.Add(time.Minute).Equal(*reloaded.JoinedAt))
}

func TestPlayerHelpers(t *testing.T) {
	sqlDB := newTestDB(t)
	ctx := context.Background()

	_, err := GetPlayer(sqlDB, "0xA")
	require.ErrorIs(t, err, ErrNotFound)

	existed, err := IncrementGamesPlayed(ctx, sqlDB, "0xA", baseTime)
	require.NoError(t, err)
	require.False(t, existed)

	insertPlayer(t, sqlDB, "0xA", "0", 0)

	existed, err = IncrementGamesPlayed(ctx, sqlDB, "0xA", baseTime)
	require.NoError(t, err)
	require.True(t, existed)

	player, err := GetPlayer(sqlDB, "0xA")
	require.NoError(t, err)
	require.Equal(t, int64(1), player.GamesPlayed)

	player.TotalWagered = player.TotalWagered.Add(decimal.RequireFromString("99999999999999999999"))
	require.NoError(t, SavePlayer(sqlDB, player))

	player, err = GetPlayer(sqlDB, "0xA")
	require.NoError(t, err)
	require.Equal(t, "99999999999999999999", player.TotalWagered.String())
}
