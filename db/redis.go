package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"candleQuest/config"
	"candleQuest/game"

	"github.com/redis/go-redis/v9"
)

var (
	// RedisClient is the global Redis client instance
	RedisClient *redis.Client

	errRedisNotInitialized = errors.New("redis not initialized")
)

// RoundSeedRecord is everything needed to regenerate a played round
type RoundSeedRecord struct {
	RoundID      string    `json:"roundId"`
	UserID       string    `json:"userId"`
	ServerSeed   string    `json:"serverSeed"`
	SeedHash     string    `json:"seedHash"`
	SeriesLength int       `json:"seriesLength"`
	StartedAt    time.Time `json:"startedAt"`
}

// InitRedis initializes the Redis client connection
func InitRedis(addr, password string, db int) error {
	log.Println("🔌 Connecting to Redis...")

	RedisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("✅ Redis connected successfully - URL: %s", addr)
	return nil
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		log.Println("🔌 Closing Redis connection...")
		err := RedisClient.Close()
		RedisClient = nil
		return err
	}
	return nil
}

/* =========================
   ROUND SEEDS
   Redis Key: round:{roundId} -> JSON RoundSeedRecord
========================= */

// StoreRoundSeed keeps a revealed seed around for verification
func StoreRoundSeed(ctx context.Context, record *RoundSeedRecord) error {
	if RedisClient == nil {
		return errRedisNotInitialized
	}

	key := fmt.Sprintf(config.RedisRoundSeedKey, record.RoundID)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal round seed: %w", err)
	}

	if err := RedisClient.Set(ctx, key, data, config.RoundSeedTTL).Err(); err != nil {
		return fmt.Errorf("failed to store round seed: %w", err)
	}

	return nil
}

// GetRoundSeed returns the stored seed for a round, or nil if it expired or never existed
func GetRoundSeed(ctx context.Context, roundID string) (*RoundSeedRecord, error) {
	if RedisClient == nil {
		return nil, errRedisNotInitialized
	}

	key := fmt.Sprintf(config.RedisRoundSeedKey, roundID)

	data, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round seed: %w", err)
	}

	var record RoundSeedRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round seed: %w", err)
	}

	return &record, nil
}

/* =========================
   SESSION SNAPSHOTS
   Redis Key: session:{userId} -> JSON game.Snapshot
========================= */

// StoreSessionSnapshot saves the player's latest visible state
func StoreSessionSnapshot(ctx context.Context, userID string, snap *game.Snapshot) error {
	if RedisClient == nil {
		return errRedisNotInitialized
	}

	key := fmt.Sprintf(config.RedisSessionSnapshotKey, userID)

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	if err := RedisClient.Set(ctx, key, data, config.SessionSnapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to store session snapshot: %w", err)
	}

	return nil
}

// GetSessionSnapshot returns the player's latest state, or nil if none is cached
func GetSessionSnapshot(ctx context.Context, userID string) (*game.Snapshot, error) {
	if RedisClient == nil {
		return nil, errRedisNotInitialized
	}

	key := fmt.Sprintf(config.RedisSessionSnapshotKey, userID)

	data, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session snapshot: %w", err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}

	return &snap, nil
}

// DeleteSessionSnapshot removes a player's cached state
func DeleteSessionSnapshot(ctx context.Context, userID string) error {
	if RedisClient == nil {
		return errRedisNotInitialized
	}

	key := fmt.Sprintf(config.RedisSessionSnapshotKey, userID)
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}

	return nil
}

/* =========================
   HEALTH CHECK
========================= */

// HealthCheck performs a Redis health check
func HealthCheck(ctx context.Context) error {
	if RedisClient == nil {
		return errRedisNotInitialized
	}
	return RedisClient.Ping(ctx).Err()
}

// RedisCache exposes the seed and snapshot helpers as a value that can be
// handed to the websocket layer.
type RedisCache struct{}

func (RedisCache) StoreRoundSeed(ctx context.Context, record *RoundSeedRecord) error {
	return StoreRoundSeed(ctx, record)
}

func (RedisCache) StoreSessionSnapshot(ctx context.Context, userID string, snap *game.Snapshot) error {
	return StoreSessionSnapshot(ctx, userID, snap)
}
