package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"candleQuest/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(id, user string, score float64, wrong bool) *game.RoundRecord {
	start := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return &game.RoundRecord{
		RoundID:   id,
		UserID:    user,
		Mode:      2,
		Symbol:    "FAKE",
		Timeframe: "1d",
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
		Chosen:    game.DirectionUp,
		Actual:    game.DirectionSideways,
		Score:     score,
		WasWrong:  wrong,
		SeedHash:  "0xabc",
	}
}

func TestSQLiteStore_StoreAndHistory(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.StoreRoundResult(ctx, testRecord(fmt.Sprintf("r%d", i), "alice", float64(i*10), i%2 == 0)))
	}
	require.NoError(t, store.StoreRoundResult(ctx, testRecord("other", "bob", 99, false)))

	// Duplicate round ids are ignored
	require.NoError(t, store.StoreRoundResult(ctx, testRecord("r1", "alice", 500, false)))

	records, err := store.RecentRounds(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "r3", records[0].RoundID, "newest first")
	assert.Equal(t, "r1", records[2].RoundID)
	assert.Equal(t, 10.0, records[2].Score)

	got := records[1]
	want := testRecord("r2", "alice", 20, true)
	assert.Equal(t, want.Mode, got.Mode)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Timeframe, got.Timeframe)
	assert.True(t, want.StartTime.Equal(got.StartTime))
	assert.True(t, want.EndTime.Equal(got.EndTime))
	assert.Equal(t, want.Chosen, got.Chosen)
	assert.Equal(t, want.Actual, got.Actual)
	assert.True(t, got.WasWrong)

	limited, err := store.RecentRounds(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.RecentRounds(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_Leaderboard(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	rows := []*game.RoundRecord{
		testRecord("a1", "alice", 80, false),
		testRecord("a2", "alice", 40, true),
		testRecord("a3", "alice", 100, false),
		testRecord("b1", "bob", 50, false),
		testRecord("c1", "carol", 95.5, false),
		testRecord("c2", "carol", 60, false),
	}
	for _, r := range rows {
		require.NoError(t, store.StoreRoundResult(ctx, r))
	}

	board, err := store.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, "alice", board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 220.0, board[0].TotalScore)
	assert.Equal(t, 3, board[0].Rounds)
	assert.Equal(t, 2, board[0].CorrectCount)
	assert.Equal(t, 66.67, board[0].Accuracy)

	assert.Equal(t, "carol", board[1].UserID)
	assert.Equal(t, 155.5, board[1].TotalScore)
	assert.Equal(t, 100.0, board[1].Accuracy)
	assert.Equal(t, "bob", board[2].UserID)

	rank, err := store.UserRank(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, rank)
	assert.Equal(t, 3, rank.Rank)

	missing, err := store.UserRank(ctx, "dave")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_RegisterUser(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.RegisterUser(ctx, "user-1"))
	require.NoError(t, store.RegisterUser(ctx, "user-1"), "registering twice is fine")

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 1, n)
	assert.NoError(t, store.Ping(ctx))
}

func TestSQLiteStore_AsResultSink(t *testing.T) {
	store := newTestSQLite(t)

	m, err := game.NewMachine(game.MachineOptions{
		Config: game.DefaultRoundConfig(),
		Sink:   store,
	})
	require.NoError(t, err)

	_, err = m.Begin("player")
	require.NoError(t, err)
	require.True(t, m.Submit(game.DirectionDown))
	m.Wait()

	records, err := store.RecentRounds(context.Background(), "player", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, m.Outcome().Score, records[0].Score)
	assert.Equal(t, game.DirectionDown, records[0].Chosen)
}

func TestNoopStore(t *testing.T) {
	var store Store = NewNoopStore()
	ctx := context.Background()

	assert.NoError(t, store.StoreRoundResult(ctx, testRecord("x", "y", 1, false)))
	rounds, err := store.RecentRounds(ctx, "y", 5)
	assert.NoError(t, err)
	assert.Empty(t, rounds)
	board, err := store.Leaderboard(ctx, 5)
	assert.NoError(t, err)
	assert.Empty(t, board)
}
