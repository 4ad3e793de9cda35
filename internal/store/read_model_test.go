package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedLobby(t *testing.T) *ReadModel {
	t.Helper()
	sqlDB := newTestDB(t)

	games := []*Game{
		{GameID: 1, BetAmount: decimal.NewFromInt(10_000_000), BetTier: 1, Player1Address: "0xA",
			State: StateWaiting, CreatedAt: baseTime},
		{GameID: 2, BetAmount: decimal.NewFromInt(50_000_000), BetTier: 2, Player1Address: "0xB",
			State: StateWaiting, CreatedAt: baseTime.Add(time.Minute)},
		{GameID: 3, BetAmount: decimal.NewFromInt(10_000_000), BetTier: 1, Player1Address: "0xA",
			Player2Address: strPtr("0xC"), State: StateJoined, CreatedAt: baseTime.Add(2 * time.Minute)},
		{GameID: 4, BetAmount: decimal.NewFromInt(10_000_000), BetTier: 1, Player1Address: "0xC",
			Player2Address: strPtr("0xA"), WinnerAddress: strPtr("0xA"), State: StateFinished,
			CreatedAt: baseTime.Add(3 * time.Minute), FinishedAt: timePtr(baseTime.Add(10 * time.Minute))},
		{GameID: 5, BetAmount: decimal.NewFromInt(10_000_000), BetTier: 1, Player1Address: "0xB",
			Player2Address: strPtr("0xC"), State: StateFinished,
			CreatedAt: baseTime.Add(4 * time.Minute), FinishedAt: timePtr(baseTime.Add(11 * time.Minute))},
		{GameID: 6, BetAmount: decimal.NewFromInt(10_000_000), BetTier: 1, Player1Address: "0xB",
			Player2Address: strPtr("0xC"), WinnerAddress: strPtr("0xC"), State: StateFinished,
			CreatedAt: baseTime.Add(5 * time.Minute), FinishedAt: timePtr(baseTime.Add(12 * time.Minute))},
	}
	for _, g := range games {
		insertGame(t, sqlDB, g)
	}

	// "900" sorts above "10000" as text; numeric order must win
	insertPlayer(t, sqlDB, "0xA", "900", 1)
	insertPlayer(t, sqlDB, "0xB", "10000", 1)
	insertPlayer(t, sqlDB, "0xC", "123456789012345678901234567890", 1)
	insertPlayer(t, sqlDB, "0xD", "0", 0)

	return NewReadModel(sqlDB, nil)
}

func gameIDs(games []*Game) []uint64 {
	ids := make([]uint64, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.GameID)
	}
	return ids
}

func TestReadModel_AvailableGames(t *testing.T) {
	rm := seedLobby(t)
	ctx := context.Background()

	games, err := rm.AvailableGames(ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 1}, gameIDs(games))

	games, err = rm.AvailableGames(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, gameIDs(games))

	games, err = rm.AvailableGames(ctx, 4, 0)
	require.NoError(t, err)
	require.Empty(t, games)
}

func TestReadModel_GameByID(t *testing.T) {
	rm := seedLobby(t)

	game, err := rm.GameByID(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, StateFinished, game.State)
	require.Equal(t, "0xA", *game.WinnerAddress)

	_, err = rm.GameByID(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadModel_PlayerGames(t *testing.T) {
	rm := seedLobby(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		addr   string
		filter PlayerGamesFilter
		want   []uint64
	}{
		{name: "all games", addr: "0xA", want: []uint64{4, 3, 1}},
		{name: "created", addr: "0xA", filter: PlayerGamesFilter{CreatedOnly: true}, want: []uint64{3, 1}},
		{name: "active", addr: "0xC", filter: PlayerGamesFilter{ActiveOnly: true}, want: []uint64{3}},
		{name: "limit", addr: "0xB", filter: PlayerGamesFilter{Limit: 2}, want: []uint64{6, 5}},
		{name: "unknown", addr: "0xZ", want: []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, err := rm.PlayerGames(ctx, tt.addr, tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, gameIDs(games))
		})
	}
}

func TestReadModel_PlayerStats(t *testing.T) {
	rm := seedLobby(t)
	ctx := context.Background()

	player, err := rm.PlayerStats(ctx, "0xB")
	require.NoError(t, err)
	require.Equal(t, "10000", player.TotalWinnings.String())
	require.Equal(t, int64(1), player.GamesWon)

	unknown, err := rm.PlayerStats(ctx, "0xZ")
	require.NoError(t, err)
	require.Equal(t, "0xZ", unknown.Address)
	require.Zero(t, unknown.GamesPlayed)
	require.True(t, unknown.TotalWagered.IsZero())
	require.True(t, unknown.TotalWinnings.IsZero())
}

func TestReadModel_Leaderboard(t *testing.T) {
	rm := seedLobby(t)

	players, err := rm.Leaderboard(context.Background(), 0)
	require.NoError(t, err)

	addrs := make([]string, 0, len(players))
	for _, p := range players {
		addrs = append(addrs, p.Address)
	}
	require.Equal(t, []string{"0xC", "0xB", "0xA", "0xD"}, addrs)

	top, err := rm.Leaderboard(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "123456789012345678901234567890", top[0].TotalWinnings.String())
}

func TestReadModel_MatchHistory(t *testing.T) {
	rm := seedLobby(t)

	games, err := rm.MatchHistory(context.Background(), 0)
	require.NoError(t, err)
	// game 5 finished without a winner
	require.Equal(t, []uint64{6, 4}, gameIDs(games))
}

func TestReadModel_CancelledContext(t *testing.T) {
	rm := seedLobby(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rm.AvailableGames(ctx, 0, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadModel_Events(t *testing.T) {
	sqlDB := newTestDB(t)
	rm := NewReadModel(sqlDB, nil)
	ctx := context.Background()

	gameOne := uint64(1)
	for i, typ := range []string{"GameCreatedEvent", "GameJoinedEvent", "DepositEvent", "GameFinishedEvent"} {
		entry := &EventLogEntry{
			EventType:          typ,
			Data:               []byte(`{}`),
			TransactionHash:    "0xabc",
			TransactionVersion: uint64(100 + i),
			EventIndex:         i,
			CreatedAt:          baseTime,
		}
		if typ != "DepositEvent" {
			entry.GameID = &gameOne
		}
		ok, err := InsertEventLog(ctx, sqlDB, entry)
		require.NoError(t, err)
		require.True(t, ok)
	}

	all, err := rm.Events(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, uint64(100), all[0].TransactionVersion)

	total, err := rm.CountEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, total)

	forGame, err := rm.Events(ctx, EventFilter{GameID: &gameOne})
	require.NoError(t, err)
	require.Len(t, forGame, 3)

	total, err = rm.CountEvents(ctx, EventFilter{GameID: &gameOne, EventType: "GameJoinedEvent"})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	page, err := rm.Events(ctx, EventFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "GameJoinedEvent", page[0].EventType)
	require.Equal(t, "DepositEvent", page[1].EventType)
	require.Nil(t, page[1].GameID)
}
