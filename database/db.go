package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"umrahcheck/config"
)

// ─── Init ─────────────────────────────────────────────────────────────────────

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Open connects to Postgres, waiting for the server to come up, and applies
// the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Pool sized for a small hosted Postgres
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	for i := 1; i <= connectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Warn("⏳ Waiting for database...",
			zap.Int("attempt", i),
			zap.Int("of", connectAttempts),
			zap.Error(err))

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}

	store := NewStore(db, logger)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("✅ Database connected and migrated")
	return store, nil
}

// ─── Migrations ───────────────────────────────────────────────────────────────

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS searches (
		lead_token         TEXT PRIMARY KEY,
		customer_name      TEXT NOT NULL DEFAULT '',
		email              TEXT NOT NULL DEFAULT '',
		whatsapp           TEXT NOT NULL DEFAULT '',
		persons            INTEGER NOT NULL,
		budget_min         INTEGER NOT NULL,
		budget_max         INTEGER NOT NULL,
		departure_airport  TEXT NOT NULL,
		departure_date     TEXT NOT NULL,
		nights_makkah      INTEGER,
		nights_madinah     INTEGER,
		source             TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL,
		error_code         TEXT NOT NULL DEFAULT '',
		options_found      INTEGER NOT NULL DEFAULT 0,
		processing_time_ms BIGINT NOT NULL DEFAULT 0,
		providers_used     TEXT[] NOT NULL DEFAULT '{}',
		result_json        JSONB,
		pdf_data           BYTEA,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_searches_created_at
		ON searches(created_at DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_searches_email
		ON searches(email)`,
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
