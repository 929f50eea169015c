package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"candleQuest/config"
	"candleQuest/game"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// PostgresPool is the global PostgreSQL connection pool
	PostgresPool *pgxpool.Pool
)

// LeaderboardRecord is one user's aggregate over every stored round
type LeaderboardRecord struct {
	UserID       string  `json:"userId"`
	TotalScore   float64 `json:"totalScore"`
	Rounds       int     `json:"rounds"`
	CorrectCount int     `json:"correctCount"`
	Accuracy     float64 `json:"accuracy"`
	Rank         int     `json:"rank,omitempty"`
}

func (r *LeaderboardRecord) normalize() {
	if r.Rounds == 0 {
		r.Accuracy = 0
		return
	}
	r.Accuracy = game.RoundToDecimal(float64(r.CorrectCount)/float64(r.Rounds)*100, config.ScoreDecimals)
	r.TotalScore = game.RoundToDecimal(r.TotalScore, config.ScoreDecimals)
}

// InitPostgres initializes the PostgreSQL connection pool
func InitPostgres(databaseURL string) error {
	log.Println("🔌 Connecting to PostgreSQL...")

	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = config.MaxOpenConns
	poolConfig.MinConns = config.MaxIdleConns
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	PostgresPool = pool

	log.Println("✅ PostgreSQL connected successfully")

	if err := InitSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// ClosePostgres closes the PostgreSQL connection pool
func ClosePostgres() {
	if PostgresPool != nil {
		log.Println("🔌 Closing PostgreSQL connection...")
		PostgresPool.Close()
		PostgresPool = nil
	}
}

// InitSchema creates the database tables if they don't exist
func InitSchema(ctx context.Context) error {
	log.Println("📋 Initializing database schema...")

	usersSchema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	if _, err := PostgresPool.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	trainingSessionsSchema := `
	CREATE TABLE IF NOT EXISTS training_sessions (
		id SERIAL PRIMARY KEY,
		round_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		mode INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		chosen TEXT NOT NULL,
		actual TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		was_wrong BOOLEAN NOT NULL,
		seed_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	-- Per-user history
	CREATE INDEX IF NOT EXISTS idx_training_sessions_user ON training_sessions(user_id, created_at DESC);
	`

	if _, err := PostgresPool.Exec(ctx, trainingSessionsSchema); err != nil {
		return fmt.Errorf("failed to create training_sessions table: %w", err)
	}

	log.Println("✅ Database schema initialized")
	return nil
}

/* =========================
   USERS
========================= */

// RegisterUser records a newly issued user id. Registering twice is a no-op.
func RegisterUser(ctx context.Context, userID string) error {
	if PostgresPool == nil {
		log.Println("⚠️  PostgreSQL not initialized, skipping user registration")
		return nil
	}

	query := `
		INSERT INTO users (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := PostgresPool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	log.Printf("✅ Registered user %s", userID)
	return nil
}

/* =========================
   TRAINING SESSIONS
========================= */

// StoreTrainingSession stores one resolved round
func StoreTrainingSession(ctx context.Context, record *game.RoundRecord) error {
	if PostgresPool == nil {
		log.Println("⚠️  PostgreSQL not initialized, skipping round storage")
		return nil
	}

	query := `
		INSERT INTO training_sessions
		(round_id, user_id, mode, symbol, timeframe, start_time, end_time,
		 chosen, actual, score, was_wrong, seed_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (round_id) DO NOTHING
	`

	_, err := PostgresPool.Exec(
		ctx,
		query,
		record.RoundID,
		record.UserID,
		record.Mode,
		record.Symbol,
		record.Timeframe,
		record.StartTime,
		record.EndTime,
		string(record.Chosen),
		string(record.Actual),
		record.Score,
		record.WasWrong,
		record.SeedHash,
	)

	if err != nil {
		return fmt.Errorf("failed to store training session: %w", err)
	}

	log.Printf("✅ Stored round - User: %s, Chosen: %s, Actual: %s, Score: %.2f",
		record.UserID, record.Chosen, record.Actual, record.Score)
	return nil
}

// GetRecentTrainingSessions returns a user's most recent rounds, newest first
func GetRecentTrainingSessions(ctx context.Context, userID string, limit int) ([]*game.RoundRecord, error) {
	if PostgresPool == nil {
		return []*game.RoundRecord{}, nil
	}

	query := `
		SELECT round_id, user_id, mode, symbol, timeframe, start_time, end_time,
		       chosen, actual, score, was_wrong, seed_hash
		FROM training_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := PostgresPool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training sessions: %w", err)
	}
	defer rows.Close()

	records := []*game.RoundRecord{}
	for rows.Next() {
		var record game.RoundRecord
		var chosen, actual string

		if err := rows.Scan(
			&record.RoundID,
			&record.UserID,
			&record.Mode,
			&record.Symbol,
			&record.Timeframe,
			&record.StartTime,
			&record.EndTime,
			&chosen,
			&actual,
			&record.Score,
			&record.WasWrong,
			&record.SeedHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record.Chosen = game.Direction(chosen)
		record.Actual = game.Direction(actual)

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

/* =========================
   LEADERBOARD
========================= */

// GetScoreLeaderboard returns the top N users by total score
func GetScoreLeaderboard(ctx context.Context, limit int) ([]*LeaderboardRecord, error) {
	if PostgresPool == nil {
		return []*LeaderboardRecord{}, nil
	}

	query := `
		SELECT user_id, SUM(score) AS total_score, COUNT(*) AS rounds,
		       SUM(CASE WHEN was_wrong THEN 0 ELSE 1 END) AS correct,
		       ROW_NUMBER() OVER (ORDER BY SUM(score) DESC) AS rank
		FROM training_sessions
		GROUP BY user_id
		ORDER BY total_score DESC
		LIMIT $1
	`

	rows, err := PostgresPool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	records := []*LeaderboardRecord{}
	for rows.Next() {
		var record LeaderboardRecord
		if err := rows.Scan(&record.UserID, &record.TotalScore, &record.Rounds, &record.CorrectCount, &record.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record.normalize()
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// GetUserRank returns a specific user's rank, or nil if they have no rounds
func GetUserRank(ctx context.Context, userID string) (*LeaderboardRecord, error) {
	if PostgresPool == nil {
		return nil, nil
	}

	query := `
		SELECT user_id, total_score, rounds, correct, rank FROM (
			SELECT user_id, SUM(score) AS total_score, COUNT(*) AS rounds,
			       SUM(CASE WHEN was_wrong THEN 0 ELSE 1 END) AS correct,
			       ROW_NUMBER() OVER (ORDER BY SUM(score) DESC) AS rank
			FROM training_sessions
			GROUP BY user_id
		) ranked
		WHERE user_id = $1
	`

	var record LeaderboardRecord
	err := PostgresPool.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&record.TotalScore,
		&record.Rounds,
		&record.CorrectCount,
		&record.Rank,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user rank: %w", err)
	}

	record.normalize()
	return &record, nil
}

/* =========================
   HEALTH CHECK
========================= */

// HealthCheckPostgres performs a PostgreSQL health check
func HealthCheckPostgres(ctx context.Context) error {
	if PostgresPool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}
	return PostgresPool.Ping(ctx)
}
