package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	apperrors "github.com/rosterd/rosterd/internal/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DB struct {
	*sql.DB
}

// Open connects to PostgreSQL using a postgres:// URL and waits for the server
// to answer a ping.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = apperrors.Retry(ctx, apperrors.StartupRetryConfig(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := gooseUp(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Store bundles the repositories over one connection pool.
type Store struct {
	*DB
	*UserRepository
	*DepartmentRepository
	*OfficerRepository
}

func NewStore(db *DB) *Store {
	return &Store{
		DB:                   db,
		UserRepository:       NewUserRepository(db),
		DepartmentRepository: NewDepartmentRepository(db),
		OfficerRepository:    NewOfficerRepository(db),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
