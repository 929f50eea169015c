package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"candleQuest/crypto"
	"candleQuest/db"
	"candleQuest/game"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *db.SQLiteStore {
	t.Helper()
	s, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	SetStore(s)
	t.Cleanup(func() {
		SetStore(db.NewNoopStore())
		_ = s.Close()
	})
	return s
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	db.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = db.CloseRedis()
		mr.Close()
	})
	return mr
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHandleUser_IssuesAndConfirms(t *testing.T) {
	setupStore(t)

	rec := httptest.NewRecorder()
	HandleUser(rec, httptest.NewRequest(http.MethodPost, "/api/user", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var issued UserResponse
	decode(t, rec, &issued)
	assert.True(t, issued.Created)
	_, err := uuid.Parse(issued.UserID)
	assert.NoError(t, err)

	body, _ := json.Marshal(UserRequest{UserID: issued.UserID})
	rec = httptest.NewRecorder()
	HandleUser(rec, httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed UserResponse
	decode(t, rec, &confirmed)
	assert.False(t, confirmed.Created)
	assert.Equal(t, issued.UserID, confirmed.UserID)
}

func TestHandleUser_Rejects(t *testing.T) {
	setupStore(t)

	rec := httptest.NewRecorder()
	HandleUser(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	HandleUser(rec, httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewBufferString(`{"userId":"not-a-uuid"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decode(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func storeRounds(t *testing.T, s *db.SQLiteStore, user string, scores ...float64) {
	t.Helper()
	now := time.Now().UTC()
	for i, score := range scores {
		require.NoError(t, s.StoreRoundResult(context.Background(), &game.RoundRecord{
			RoundID:   uuid.NewString(),
			UserID:    user,
			Mode:      2,
			Symbol:    "FAKE",
			Timeframe: "1d",
			StartTime: now,
			EndTime:   now.Add(24 * time.Hour),
			Chosen:    game.DirectionUp,
			Actual:    game.DirectionUp,
			Score:     score,
			WasWrong:  i%2 == 1,
		}))
	}
}

func TestHandleGetHistory(t *testing.T) {
	s := setupStore(t)
	storeRounds(t, s, "alice", 10, 20, 30)

	rec := httptest.NewRecorder()
	HandleGetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?userId=alice&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 30.0, resp.Rounds[0].Score)

	rec = httptest.NewRecorder()
	HandleGetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	HandleGetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?userId=alice&limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetLeaderboard(t *testing.T) {
	s := setupStore(t)
	storeRounds(t, s, "alice", 80, 40, 100)
	storeRounds(t, s, "bob", 50)

	rec := httptest.NewRecorder()
	HandleGetLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard?userId=bob", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LeaderboardResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, "alice", resp.Leaderboard[0].UserID)
	assert.Equal(t, 220.0, resp.Leaderboard[0].TotalScore)
	assert.Equal(t, 66.67, resp.Leaderboard[0].Accuracy)
	assert.Nil(t, resp.UserPosition, "bob is already listed")
}

func TestHandleHealthCheck(t *testing.T) {
	setupStore(t)
	setupRedis(t)
	SetSessionCounter(func() int { return 3 })
	defer SetSessionCounter(nil)

	rec := httptest.NewRecorder()
	HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp["redis"])
	assert.Equal(t, "ok", resp["store"])
	assert.Equal(t, 3.0, resp["sessions"])
}

func TestHandleGetSession(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	snap := &game.Snapshot{Phase: game.PhasePlaying, RoundID: "r-1", Remaining: 7, Stats: game.SessionStats{RoundIndex: 2, TotalRounds: 10}}
	require.NoError(t, db.StoreSessionSnapshot(ctx, "alice", snap))

	rec := httptest.NewRecorder()
	HandleGetSession(rec, httptest.NewRequest(http.MethodGet, "/api/session/alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Session game.Snapshot `json:"session"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, game.PhasePlaying, resp.Session.Phase)
	assert.Equal(t, 2, resp.Session.Stats.RoundIndex)

	rec = httptest.NewRecorder()
	HandleGetSession(rec, httptest.NewRequest(http.MethodGet, "/api/session/bob", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleVerifyRound(t *testing.T) {
	setupRedis(t)

	seed, hash := crypto.GenerateServerSeed()
	startedAt := time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)
	want, ev, err := game.VerifyRound(seed, "round-77", 30, startedAt)
	require.NoError(t, err)

	require.NoError(t, db.StoreRoundSeed(context.Background(), &db.RoundSeedRecord{
		RoundID:      "round-77",
		UserID:       "alice",
		ServerSeed:   seed,
		SeedHash:     hash,
		SeriesLength: 30,
		StartedAt:    startedAt,
	}))

	rec := httptest.NewRecorder()
	HandleVerifyRound(rec, httptest.NewRequest(http.MethodGet, "/api/verify/round/round-77", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, ev.Direction, resp.Actual)
	assert.Equal(t, ev.Score, resp.Score)
	require.Len(t, resp.Series, 30)
	assert.True(t, want[29].Time.Equal(resp.Series[29].Time))
	assert.InDelta(t, want[29].Close, resp.Series[29].Close, 1e-9)

	rec = httptest.NewRecorder()
	HandleVerifyRound(rec, httptest.NewRequest(http.MethodGet, "/api/verify/round/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleVerifySeed(t *testing.T) {
	seed, hash := crypto.GenerateServerSeed()

	body, _ := json.Marshal(VerifyRequest{
		RoundID:      "round-1",
		ServerSeed:   seed,
		SeedHash:     hash,
		SeriesLength: 30,
		GeneratedOn:  "2026-10-18",
	})
	rec := httptest.NewRecorder()
	HandleVerifySeed(rec, httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Len(t, resp.Series, 30)

	body, _ = json.Marshal(VerifyRequest{
		RoundID:      "round-1",
		ServerSeed:   seed,
		SeedHash:     crypto.HashSeed("something else"),
		SeriesLength: 30,
		GeneratedOn:  "2026-10-18",
	})
	rec = httptest.NewRecorder()
	HandleVerifySeed(rec, httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Error)

	rec = httptest.NewRecorder()
	HandleVerifySeed(rec, httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewBufferString(`{"roundId":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
