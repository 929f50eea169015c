package db

import (
	"context"
	"testing"
	"time"

	"candleQuest/config"
	"candleQuest/game"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis points the global client at a miniredis instance.
func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = CloseRedis()
		mr.Close()
	})

	return mr
}

func TestRoundSeed_StoreAndGet(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	record := &RoundSeedRecord{
		RoundID:      "round-abc",
		UserID:       "user-1",
		ServerSeed:   "deadbeef",
		SeedHash:     "0x1234",
		SeriesLength: 30,
		StartedAt:    time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, StoreRoundSeed(ctx, record))

	assert.Equal(t, config.RoundSeedTTL, mr.TTL("round:round-abc"))

	got, err := GetRoundSeed(ctx, "round-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.ServerSeed, got.ServerSeed)
	assert.Equal(t, record.SeriesLength, got.SeriesLength)
	assert.True(t, record.StartedAt.Equal(got.StartedAt))
}

func TestRoundSeed_Missing(t *testing.T) {
	setupTestRedis(t)

	got, err := GetRoundSeed(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRoundSeed_Expires(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, StoreRoundSeed(ctx, &RoundSeedRecord{RoundID: "r1", ServerSeed: "s"}))
	mr.FastForward(config.RoundSeedTTL + time.Second)

	got, err := GetRoundSeed(ctx, "r1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionSnapshot_RoundTrip(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	snap := &game.Snapshot{
		Phase:     game.PhaseResult,
		RoundID:   "round-9",
		Revealed:  30,
		TotalBars: 30,
		Outcome: &game.RoundOutcome{
			Chosen: game.DirectionUp,
			Actual: game.DirectionUp,
			Score:  80,
		},
		Stats: game.SessionStats{RoundIndex: 3, TotalRounds: 10, TotalScore: 220, CorrectCount: 2, RoundsCompleted: 3, Accuracy: 66.67},
	}
	require.NoError(t, StoreSessionSnapshot(ctx, "user-1", snap))
	assert.Equal(t, config.SessionSnapshotTTL, mr.TTL("session:user-1"))

	got, err := GetSessionSnapshot(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Phase, got.Phase)
	assert.Equal(t, snap.Stats, got.Stats)
	assert.Equal(t, *snap.Outcome, *got.Outcome)

	require.NoError(t, DeleteSessionSnapshot(ctx, "user-1"))
	got, err = GetSessionSnapshot(ctx, "user-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_NotInitialized(t *testing.T) {
	RedisClient = nil
	ctx := context.Background()

	assert.Error(t, HealthCheck(ctx))
	assert.Error(t, StoreRoundSeed(ctx, &RoundSeedRecord{RoundID: "x"}))
	_, err := GetSessionSnapshot(ctx, "x")
	assert.Error(t, err)
}

func TestRedis_HealthCheck(t *testing.T) {
	setupTestRedis(t)
	assert.NoError(t, HealthCheck(context.Background()))
}
