package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DB wraps the connection to the PostgreSQL/TimescaleDB time-series store.
// Each logical database name maps to a schema holding a points table.
type DB struct {
	conn    *sqlx.DB
	mu      sync.Mutex
	schemas map[string]bool
}

// ConnString returns dsn, or a DSN assembled from DB_* environment variables
func ConnString(dsn string) string {
	if dsn != "" {
		return dsn
	}
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "ree")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "ree")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// NewDB opens and pings the database
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", ConnString(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewFromConn(conn), nil
}

// NewFromConn wraps an existing connection
func NewFromConn(conn *sqlx.DB) *DB {
	return &DB{
		conn:    conn,
		schemas: make(map[string]bool),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// ensureSchema creates the schema and points table for database once per process
func (db *DB) ensureSchema(ctx context.Context, database string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.schemas[database] {
		return nil
	}

	schema := pq.QuoteIdentifier(database)
	if _, err := db.conn.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+schema); err != nil {
		// The schema may exist already and the role may lack CREATE permission
		log.Printf("Note: Could not create schema %s (may already exist): %v\n", database, err)
	}

	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+schema+`.points (
			measurement TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			field TEXT NOT NULL,
			value DOUBLE PRECISION,
			tags JSONB NOT NULL DEFAULT '{}'::jsonb,
			written_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (measurement, ts, field)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create points table in %s: %w", database, err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_points_ts ON `+schema+`.points(ts)`)
	if err != nil {
		log.Printf("Warning: Failed to create index on %s.points.ts: %v\n", database, err)
	}

	db.schemas[database] = true
	return nil
}
