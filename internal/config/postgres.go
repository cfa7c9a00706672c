package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	connectMaxRetries    = 5
	connectRetryInterval = 5 * time.Second
)

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(ctx context.Context, logger *zerolog.Logger, cfg DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	for i := 0; i < connectMaxRetries; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN())
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				logger.Info().Str("host", cfg.Host).Msg("connected to PostgreSQL")
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().Err(err).
			Int("attempt", i+1).
			Int("max_attempts", connectMaxRetries).
			Dur("retry_in", connectRetryInterval).
			Msg("failed to connect to PostgreSQL")
		if werr := waitRetry(ctx, connectRetryInterval); werr != nil {
			return nil, werr
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", connectMaxRetries, err)
}

// waitRetry pauses between connection attempts and gives up early when ctx ends.
func waitRetry(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("connection retry aborted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

// AutoMigrate creates the users table if it doesn't exist
func AutoMigrate(ctx context.Context, logger *zerolog.Logger, db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('student', 'mentor', 'admin')) DEFAULT 'student',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

    CREATE OR REPLACE FUNCTION update_updated_at_column()
    RETURNS TRIGGER AS $$
    BEGIN
       NEW.updated_at = NOW();
       RETURN NEW;
    END;
    $$ language 'plpgsql';

    DO $$
    BEGIN
        IF NOT EXISTS (
            SELECT 1
            FROM pg_trigger
            WHERE tgname = 'set_users_updated_at' AND tgrelid = 'users'::regclass
        ) THEN
            CREATE TRIGGER set_users_updated_at
            BEFORE UPDATE ON users
            FOR EACH ROW
            EXECUTE FUNCTION update_updated_at_column();
        END IF;
    END
    $$;
	`
	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	logger.Info().Msg("AutoMigrate applied successfully")
	return nil
}
