package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"aviatorServer/config"
	"aviatorServer/game"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// PostgresPool is the global PostgreSQL connection pool. Nil when the
	// archive is not configured; every function below degrades to a no-op
	// in that case so the game loop never depends on it.
	PostgresPool *pgxpool.Pool
)

// RoundRecord is the archival form of a settled round, enough to let anyone
// re-verify the crash point from the revealed seeds.
type RoundRecord struct {
	RoundID        string                  `json:"gameId"`
	ServerSeed     string                  `json:"serverSeed"`
	ServerSeedHash string                  `json:"serverSeedHash"`
	ClientSeed     string                  `json:"clientSeed"`
	CrashPoint     float64                 `json:"crashPoint"`
	Results        []game.SettlementResult `json:"results"`
	SettledAt      time.Time               `json:"settledAt"`
}

// InitPostgres initializes the PostgreSQL connection pool from DATABASE_URL.
func InitPostgres() error {
	log.Println("🔌 Connecting to PostgreSQL...")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = config.MaxOpenConns
	poolConfig.MinConns = config.MinIdleConnsPG
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime

	PostgresPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := PostgresPool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ PostgreSQL connected successfully")

	if err := InitSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// ClosePostgres closes the PostgreSQL connection pool.
func ClosePostgres() {
	if PostgresPool != nil {
		log.Println("🔌 Closing PostgreSQL connection...")
		PostgresPool.Close()
	}
}

// InitSchema creates the crash_rounds table if it doesn't exist.
func InitSchema(ctx context.Context) error {
	log.Println("📋 Initializing database schema...")

	schema := `
	CREATE TABLE IF NOT EXISTS crash_rounds (
		id SERIAL PRIMARY KEY,
		round_id TEXT NOT NULL UNIQUE,
		server_seed TEXT NOT NULL,
		server_seed_hash TEXT NOT NULL,
		client_seed TEXT NOT NULL,
		crash_point DOUBLE PRECISION NOT NULL,
		results JSONB NOT NULL,
		settled_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_crash_rounds_round_id ON crash_rounds(round_id);
	CREATE INDEX IF NOT EXISTS idx_crash_rounds_settled_at ON crash_rounds(settled_at DESC);
	`

	if _, err := PostgresPool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create crash_rounds table: %w", err)
	}

	log.Println("✅ Database schema initialized")
	return nil
}

// StoreRound archives a settled round.
func StoreRound(ctx context.Context, record *RoundRecord) error {
	if PostgresPool == nil {
		return nil
	}

	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement results: %w", err)
	}

	query := `
		INSERT INTO crash_rounds
		(round_id, server_seed, server_seed_hash, client_seed, crash_point, results, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (round_id) DO NOTHING
	`

	_, err = PostgresPool.Exec(
		ctx,
		query,
		record.RoundID,
		record.ServerSeed,
		record.ServerSeedHash,
		record.ClientSeed,
		record.CrashPoint,
		resultsJSON,
		record.SettledAt,
	)

	if err != nil {
		return fmt.Errorf("failed to store round: %w", err)
	}

	log.Printf("✅ Archived round %s - crash point %.2fx", record.RoundID, record.CrashPoint)
	return nil
}

// GetRecentRounds returns the N most recently settled rounds, newest first,
// in the shape the in-memory history store uses.
func GetRecentRounds(ctx context.Context, limit int) ([]game.HistoryEntry, error) {
	if PostgresPool == nil {
		return nil, nil
	}

	query := `
		SELECT round_id, crash_point, results, settled_at
		FROM crash_rounds
		ORDER BY settled_at DESC
		LIMIT $1
	`

	rows, err := PostgresPool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var entries []game.HistoryEntry
	for rows.Next() {
		var entry game.HistoryEntry
		var resultsJSON []byte

		if err := rows.Scan(&entry.RoundID, &entry.CrashPoint, &resultsJSON, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal(resultsJSON, &entry.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// HealthCheckPostgres performs a PostgreSQL health check.
func HealthCheckPostgres(ctx context.Context) error {
	if PostgresPool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}
	return PostgresPool.Ping(ctx)
}
