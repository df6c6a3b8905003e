package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"aviatorServer/config"

	"github.com/redis/go-redis/v9"
)

var (
	// RedisClient is the global Redis client instance. Nil when Redis is
	// not configured; the mirror functions below become no-ops.
	RedisClient *redis.Client
)

// RoundBetData mirrors one live bet of the current round into Redis so
// external dashboards can watch the round without touching the game loop.
type RoundBetData struct {
	Username          string    `json:"username"`
	Amount            float64   `json:"amount"`
	AutoCashout       *float64  `json:"autoCashout,omitempty"`
	CashedOut         bool      `json:"cashedOut"`
	CashoutMultiplier float64   `json:"cashoutMultiplier,omitempty"`
	Payout            float64   `json:"payout,omitempty"`
	PlacedAt          time.Time `json:"placedAt"`
}

// InitRedis initializes the Redis client connection.
func InitRedis() error {
	log.Println("🔌 Connecting to Redis...")

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			redisDB = n
		}
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:         redisURL,
		Password:     redisPassword,
		DB:           redisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     config.RedisPoolSize,
		MinIdleConns: config.RedisMinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		RedisClient = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("✅ Redis connected successfully - URL: %s", redisURL)
	return nil
}

// CloseRedis closes the Redis connection.
func CloseRedis() error {
	if RedisClient != nil {
		log.Println("🔌 Closing Redis connection...")
		return RedisClient.Close()
	}
	return nil
}

/* =========================
   LIVE BET MIRROR
   Redis Key: crash:{roundId} -> Hash{connId: bet JSON}
========================= */

// StoreRoundBet mirrors a newly placed bet.
func StoreRoundBet(ctx context.Context, roundID, connID string, bet *RoundBetData) error {
	if RedisClient == nil {
		return nil
	}

	hashKey := fmt.Sprintf(config.RedisRoundBetsKey, roundID)

	data, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("failed to marshal bet: %w", err)
	}

	if err := RedisClient.HSet(ctx, hashKey, connID, data).Err(); err != nil {
		return fmt.Errorf("failed to store bet: %w", err)
	}

	RedisClient.Expire(ctx, hashKey, config.RoundBetsTTL)
	return nil
}

// MarkBetCashedOut updates a mirrored bet after a cash-out.
func MarkBetCashedOut(ctx context.Context, roundID, connID string, multiplier, payout float64) error {
	if RedisClient == nil {
		return nil
	}

	hashKey := fmt.Sprintf(config.RedisRoundBetsKey, roundID)

	data, err := RedisClient.HGet(ctx, hashKey, connID).Result()
	if err == redis.Nil {
		return nil // bet never mirrored, nothing to update
	}
	if err != nil {
		return fmt.Errorf("failed to get bet: %w", err)
	}

	var bet RoundBetData
	if err := json.Unmarshal([]byte(data), &bet); err != nil {
		return fmt.Errorf("failed to unmarshal bet: %w", err)
	}

	bet.CashedOut = true
	bet.CashoutMultiplier = multiplier
	bet.Payout = payout

	updated, err := json.Marshal(&bet)
	if err != nil {
		return fmt.Errorf("failed to marshal bet: %w", err)
	}

	if err := RedisClient.HSet(ctx, hashKey, connID, updated).Err(); err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}
	return nil
}

// CleanupRound drops all mirrored bets for a settled round.
func CleanupRound(ctx context.Context, roundID string) error {
	if RedisClient == nil {
		return nil
	}

	hashKey := fmt.Sprintf(config.RedisRoundBetsKey, roundID)

	count, _ := RedisClient.HLen(ctx, hashKey).Result()
	if err := RedisClient.Del(ctx, hashKey).Err(); err != nil {
		return fmt.Errorf("failed to cleanup round: %w", err)
	}

	if count > 0 {
		log.Printf("🧹 Cleaned up round %s (%d mirrored bets)", roundID, count)
	}
	return nil
}

// HealthCheck performs a Redis health check.
func HealthCheck(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return RedisClient.Ping(ctx).Err()
}
