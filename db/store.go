package db

import (
	"context"

	"candleQuest/game"
)

// Store is where resolved rounds live. It is the game's result sink and also
// answers the history and leaderboard queries.
type Store interface {
	game.ResultSink
	RegisterUser(ctx context.Context, userID string) error
	RecentRounds(ctx context.Context, userID string, limit int) ([]*game.RoundRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardRecord, error)
	UserRank(ctx context.Context, userID string) (*LeaderboardRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// PostgresStore is a Store over the global PostgresPool.
type PostgresStore struct{}

func NewPostgresStore() *PostgresStore { return &PostgresStore{} }

func (PostgresStore) StoreRoundResult(ctx context.Context, record *game.RoundRecord) error {
	return StoreTrainingSession(ctx, record)
}

func (PostgresStore) RegisterUser(ctx context.Context, userID string) error {
	return RegisterUser(ctx, userID)
}

func (PostgresStore) RecentRounds(ctx context.Context, userID string, limit int) ([]*game.RoundRecord, error) {
	return GetRecentTrainingSessions(ctx, userID, limit)
}

func (PostgresStore) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardRecord, error) {
	return GetScoreLeaderboard(ctx, limit)
}

func (PostgresStore) UserRank(ctx context.Context, userID string) (*LeaderboardRecord, error) {
	return GetUserRank(ctx, userID)
}

func (PostgresStore) Ping(ctx context.Context) error { return HealthCheckPostgres(ctx) }

func (PostgresStore) Close() error {
	ClosePostgres()
	return nil
}

// NoopStore discards everything. Used when no database is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (NoopStore) StoreRoundResult(_ context.Context, _ *game.RoundRecord) error { return nil }
func (NoopStore) RegisterUser(_ context.Context, _ string) error { return nil }
func (NoopStore) RecentRounds(_ context.Context, _ string, _ int) ([]*game.RoundRecord, error) {
	return []*game.RoundRecord{}, nil
}
func (NoopStore) Leaderboard(_ context.Context, _ int) ([]*LeaderboardRecord, error) {
	return []*LeaderboardRecord{}, nil
}
func (NoopStore) UserRank(_ context.Context, _ string) (*LeaderboardRecord, error) { return nil, nil }
func (NoopStore) Ping(_ context.Context) error { return nil }
func (NoopStore) Close() error { return nil }
