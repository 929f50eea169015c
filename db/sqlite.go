package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"candleQuest/game"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps rounds in a local SQLite file. It is the fallback when no
// PostgreSQL database is configured.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database file and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	log.Printf("✅ SQLite store opened: %s", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS training_sessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id   TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			mode       INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			timeframe  TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			end_time   INTEGER NOT NULL,
			chosen     TEXT NOT NULL,
			actual     TEXT NOT NULL,
			score      REAL NOT NULL,
			was_wrong  INTEGER NOT NULL,
			seed_hash  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_training_user ON training_sessions(user_id, id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) StoreRoundResult(ctx context.Context, record *game.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasWrong := 0
	if record.WasWrong {
		wasWrong = 1
	}

	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO training_sessions
		(round_id, user_id, mode, symbol, timeframe, start_time, end_time,
		 chosen, actual, score, was_wrong, seed_hash)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		record.RoundID, record.UserID, record.Mode, record.Symbol, record.Timeframe,
		record.StartTime.Unix(), record.EndTime.Unix(),
		string(record.Chosen), string(record.Actual), record.Score, wasWrong, record.SeedHash,
	)
	if err != nil {
		return fmt.Errorf("failed to store training session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RegisterUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (id, created_at) VALUES (?, ?)`,
		userID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentRounds(ctx context.Context, userID string, limit int) ([]*game.RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT round_id, user_id, mode, symbol, timeframe,
		start_time, end_time, chosen, actual, score, was_wrong, seed_hash
		FROM training_sessions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training sessions: %w", err)
	}
	defer rows.Close()

	records := []*game.RoundRecord{}
	for rows.Next() {
		var (
			record         game.RoundRecord
			start, end     int64
			chosen, actual string
			wasWrong       int
		)
		if err := rows.Scan(&record.RoundID, &record.UserID, &record.Mode, &record.Symbol, &record.Timeframe,
			&start, &end, &chosen, &actual, &record.Score, &wasWrong, &record.SeedHash); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record.StartTime = time.Unix(start, 0).UTC()
		record.EndTime = time.Unix(end, 0).UTC()
		record.Chosen = game.Direction(chosen)
		record.Actual = game.Direction(actual)
		record.WasWrong = wasWrong != 0
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

const sqliteRankedUsers = `SELECT user_id, SUM(score) AS total_score, COUNT(*) AS rounds,
		SUM(CASE WHEN was_wrong = 0 THEN 1 ELSE 0 END) AS correct,
		ROW_NUMBER() OVER (ORDER BY SUM(score) DESC) AS rank
	FROM training_sessions
	GROUP BY user_id`

func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteRankedUsers+` ORDER BY total_score DESC LIMIT ?`, limit)
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

func (s *SQLiteStore) UserRank(ctx context.Context, userID string) (*LeaderboardRecord, error) {
	var record LeaderboardRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, total_score, rounds, correct, rank FROM (`+sqliteRankedUsers+`) WHERE user_id = ?`,
		userID,
	).Scan(&record.UserID, &record.TotalScore, &record.Rounds, &record.CorrectCount, &record.Rank)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user rank: %w", err)
	}
	record.normalize()
	return &record, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	log.Println("🔌 Closing SQLite store...")
	return s.db.Close()
}
