package store

import (
	"context"
	"testing"

	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestStateManager_EmptyState(t *testing.T) {
	sm := NewStateManager(newTestDB(t), logger.NewNopLogger(), nil)
	ctx := context.Background()

	version, err := sm.LastProcessedVersion(ctx)
	require.NoError(t, err)
	require.Zero(t, version)

	state, err := sm.GetState(ctx)
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestStateManager_SaveWatermark(t *testing.T) {
	sm := NewStateManager(newTestDB(t), logger.NewNopLogger(), nil)
	ctx := context.Background()

	changed, err := sm.SaveWatermark(ctx, 0, baseTime)
	require.NoError(t, err)
	require.False(t, changed, "version 0 never creates the row")

	changed, err = sm.SaveWatermark(ctx, 103, baseTime)
	require.NoError(t, err)
	require.True(t, changed)

	state, err := sm.GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, uint64(103), state.LastProcessedVersion)
	require.NotNil(t, state.LastSyncAt)
	require.True(t, baseTime.Equal(*state.LastSyncAt))
}

func TestStateManager_WatermarkIsMonotonic(t *testing.T) {
	sm := NewStateManager(newTestDB(t), logger.NewNopLogger(), nil)
	ctx := context.Background()

	steps := []struct {
		version uint64
		changed bool
		want    uint64
	}{
		{version: 50, changed: true, want: 50},
		{version: 40, changed: false, want: 50},
		{version: 50, changed: false, want: 50},
		{version: 51, changed: true, want: 51},
		{version: 1, changed: false, want: 51},
	}

	for _, step := range steps {
		changed, err := sm.SaveWatermark(ctx, step.version, baseTime)
		require.NoError(t, err)
		require.Equal(t, step.changed, changed, "save %d", step.version)

		version, err := sm.LastProcessedVersion(ctx)
		require.NoError(t, err)
		require.Equal(t, step.want, version)
	}
}
