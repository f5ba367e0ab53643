// internal/database/db.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/taboo/internal/engine"
)

// uniqueViolation is the Postgres error code for unique_violation.
const uniqueViolation = "23505"

// Store implements the room, word and user stores on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for connString, pings it and makes sure the schema exists.
func Connect(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	room_id  TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	owner    TEXT NOT NULL DEFAULT '',
	team_one TEXT[],
	team_two TEXT[]
);
CREATE TABLE IF NOT EXISTS words (
	id        INTEGER PRIMARY KEY,
	guess     TEXT NOT NULL,
	forbidden TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS users (
	id       UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
);
`

// EnsureSchema creates the tables used by the service if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// translate maps driver errors onto the engine sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, engine.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, engine.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}
