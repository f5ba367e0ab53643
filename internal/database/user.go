package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/taboo/internal/models"
)

// CreateUser inserts user. The password must already be hashed.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	q := `INSERT INTO users (id, username, password) VALUES ($1, $2, $3)`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, user.ID, user.Username, user.Password)
		return execErr
	})
	return translate(err, fmt.Sprintf("insert user %q", user.Username))
}

func (s *Store) FindUserByName(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	q := `SELECT id, username, password FROM users WHERE username=$1`
	if err := s.pool.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.Password); err != nil {
		return nil, translate(err, fmt.Sprintf("user %q", username))
	}
	return &u, nil
}
