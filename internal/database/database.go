// Package database provides the connection pool and migration runner for
// the dispatch module, following the BLUEPRINT_DB_* environment contract
// exercised by database_migration_test.go.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service is the database access point the rest of the module depends
// on: a pooled connection plus a migration runner.
type Service interface {
	Health() map[string]string
	Close() error
	RunMigrations() error
	GetDB() *sqlx.DB
}

type service struct {
	db *sqlx.DB
}

var (
	dbInstance *service
	once       sync.Once
)

const (
	migrationsDir  = "internal/database/migrations"
	migrationTable = "schema_migrations"
)

// New returns the process-wide database Service, connecting lazily and
// only once regardless of how many modules call New.
func New() Service {
	once.Do(func() {
		dbInstance = mustConnect()
	})
	return dbInstance
}

func mustConnect() *service {
	host := os.Getenv("BLUEPRINT_DB_HOST")
	port := os.Getenv("BLUEPRINT_DB_PORT")
	user := os.Getenv("BLUEPRINT_DB_USERNAME")
	pass := os.Getenv("BLUEPRINT_DB_PASSWORD")
	name := os.Getenv("BLUEPRINT_DB_DATABASE")
	schema := os.Getenv("BLUEPRINT_DB_SCHEMA")
	if schema == "" {
		schema = "public"
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		user, pass, host, port, name, schema,
	)

	// sqlx.Open validates the DSN but does not dial the server: connection
	// errors surface on first use (Health/RunMigrations), not at New(),
	// so callers can construct a Service before the database is
	// reachable (e.g. during tests).
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		slog.Default().Error("database: invalid dsn", "error", err)
		db = sqlx.NewDb(new(sql.DB), "pgx")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &service{db: db}
}

func (s *service) GetDB() *sqlx.DB {
	return s.db
}

func (s *service) Health() map[string]string {
	stats := make(map[string]string)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	stats["status"] = "up"
	dbStats := s.db.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}

func (s *service) Close() error {
	slog.Default().Info("database: closing connection pool")
	return s.db.Close()
}

// RunMigrations applies every pending migration under migrationsDir using
// golang-migrate, tracking applied versions in migrationTable.
func (s *service) RunMigrations() error {
	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{
		MigrationsTable: migrationTable,
	})
	if err != nil {
		return fmt.Errorf("database: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsDir,
		"postgres", driver,
	)
	if err != nil {
		return fmt.Errorf("database: migrate init: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("database: migrate up: %w", err)
	}
	return nil
}

// ResetInstance clears the process-wide singleton so a fresh call to New
// re-reads the environment and reconnects. Used by tests.
func ResetInstance() {
	if dbInstance != nil {
		_ = dbInstance.Close()
	}
	dbInstance = nil
	once = sync.Once{}
}
