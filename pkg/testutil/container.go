// Package testutil provides testing utilities for the MediSync stock service.
// It includes a testcontainers PostgreSQL instance with the service schema,
// a sqlmock factory, and common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "medisync_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "medisync_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// stockSchema is the full service schema, mirroring the production migrations.
const stockSchema = `
CREATE TABLE IF NOT EXISTS lots (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	quantity      INTEGER NOT NULL CONSTRAINT lots_quantity_nonnegative CHECK (quantity >= 0),
	low_threshold INTEGER NOT NULL DEFAULT 10 CONSTRAINT lots_low_threshold_nonnegative CHECK (low_threshold >= 0),
	expiry_date   DATE,
	date_added    DATE NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT lots_name_expiry_key UNIQUE NULLS NOT DISTINCT (name, expiry_date)
);

CREATE TABLE IF NOT EXISTS dispense_events (
	id             UUID PRIMARY KEY,
	student_name   TEXT NOT NULL,
	age            INTEGER,
	date_dispensed DATE NOT NULL,
	med_name       TEXT NOT NULL,
	quantity       INTEGER NOT NULL CONSTRAINT dispense_quantity_positive CHECK (quantity > 0),
	expiry_date    DATE,
	date_added     DATE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS alert_state (
	id                 SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	last_notified_date DATE
);
`

// CreateSchema applies the service schema to the container database
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, stockSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ResetData truncates all tables between tests
func (c *PostgresContainer) ResetData(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE lots, dispense_events, alert_state`)
	return err
}
