package api

import (
	"context"

	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/indexer"
	"github.com/stretchr/testify/mock"
)

type mockGameQueries struct {
	mock.Mock
}

func (m *mockGameQueries) AvailableGames(ctx context.Context, tier int, limit int) ([]*store.Game, error) {
	args := m.Called(ctx, tier, limit)
	games, _ := args.Get(0).([]*store.Game)
	return games, args.Error(1)
}

func (m *mockGameQueries) GameByID(ctx context.Context, gameID uint64) (*store.Game, error) {
	args := m.Called(ctx, gameID)
	game, _ := args.Get(0).(*store.Game)
	return game, args.Error(1)
}

func (m *mockGameQueries) PlayerGames(ctx context.Context, address string, filter store.PlayerGamesFilter) ([]*store.Game, error) {
	args := m.Called(ctx, address, filter)
	games, _ := args.Get(0).([]*store.Game)
	return games, args.Error(1)
}

func (m *mockGameQueries) PlayerStats(ctx context.Context, address string) (*store.Player, error) {
	args := m.Called(ctx, address)
	player, _ := args.Get(0).(*store.Player)
	return player, args.Error(1)
}

func (m *mockGameQueries) Leaderboard(ctx context.Context, limit int) ([]*store.Player, error) {
	args := m.Called(ctx, limit)
	players, _ := args.Get(0).([]*store.Player)
	return players, args.Error(1)
}

func (m *mockGameQueries) MatchHistory(ctx context.Context, limit int) ([]*store.Game, error) {
	args := m.Called(ctx, limit)
	games, _ := args.Get(0).([]*store.Game)
	return games, args.Error(1)
}

func (m *mockGameQueries) Events(ctx context.Context, filter store.EventFilter) ([]*store.EventLogEntry, error) {
	args := m.Called(ctx, filter)
	entries, _ := args.Get(0).([]*store.EventLogEntry)
	return entries, args.Error(1)
}

func (m *mockGameQueries) CountEvents(ctx context.Context, filter store.EventFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

type mockStateReader struct {
	mock.Mock
}

func (m *mockStateReader) GetState(ctx context.Context) (*store.IndexerState, error) {
	args := m.Called(ctx)
	state, _ := args.Get(0).(*store.IndexerState)
	return state, args.Error(1)
}

type mockTrigger struct {
	mock.Mock
}

func (m *mockTrigger) Trigger(ctx context.Context) (indexer.CycleResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(indexer.CycleResult), args.Error(1)
}

func (m *mockTrigger) Running() bool {
	return m.Called().Bool(0)
}
