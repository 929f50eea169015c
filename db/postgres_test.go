package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingSessions(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, InitPostgres(os.Getenv("DATABASE_URL")))
	defer ClosePostgres()

	ctx := context.Background()
	testUser := "test-user-training-sessions"
	cleanup := func() {
		_, _ = PostgresPool.Exec(ctx, "DELETE FROM training_sessions WHERE user_id = $1", testUser)
		_, _ = PostgresPool.Exec(ctx, "DELETE FROM users WHERE id = $1", testUser)
	}
	cleanup()
	defer cleanup()

	t.Run("RegisterUser", func(t *testing.T) {
		require.NoError(t, RegisterUser(ctx, testUser))
		require.NoError(t, RegisterUser(ctx, testUser))

		var n int
		require.NoError(t, PostgresPool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE id = $1", testUser).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("StoreAndHistory", func(t *testing.T) {
		require.NoError(t, StoreTrainingSession(ctx, testRecord("pg-r1", testUser, 80, false)))
		require.NoError(t, StoreTrainingSession(ctx, testRecord("pg-r2", testUser, 40, true)))
		require.NoError(t, StoreTrainingSession(ctx, testRecord("pg-r2", testUser, 40, true)))

		records, err := GetRecentTrainingSessions(ctx, testUser, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "pg-r2", records[0].RoundID)
		assert.True(t, records[0].WasWrong)
	})

	t.Run("Rank", func(t *testing.T) {
		record, err := GetUserRank(ctx, testUser)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 120.0, record.TotalScore)
		assert.Equal(t, 2, record.Rounds)
		assert.Equal(t, 50.0, record.Accuracy)

		board, err := GetScoreLeaderboard(ctx, 1000)
		require.NoError(t, err)
		assert.NotEmpty(t, board)
	})
}

func TestPostgres_NotInitialized(t *testing.T) {
	if PostgresPool != nil {
		t.Skip("pool already initialized")
	}
	ctx := context.Background()

	assert.NoError(t, StoreTrainingSession(ctx, testRecord("x", "y", 1, false)))
	records, err := GetRecentTrainingSessions(ctx, "y", 5)
	assert.NoError(t, err)
	assert.Empty(t, records)
	rank, err := GetUserRank(ctx, "y")
	assert.NoError(t, err)
	assert.Nil(t, rank)
	assert.Error(t, HealthCheckPostgres(ctx))
}
