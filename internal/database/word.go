package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/taboo/internal/models"
)

func (s *Store) FindWordByID(ctx context.Context, id int) (*models.WordRecord, error) {
	var w models.WordRecord
	q := `SELECT id, guess, forbidden FROM words WHERE id=$1`
	if err := s.pool.QueryRow(ctx, q, id).Scan(&w.ID, &w.Guess, &w.Forbidden); err != nil {
		return nil, translate(err, fmt.Sprintf("word %d", id))
	}
	return &w, nil
}

func (s *Store) CountWords(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, translate(err, "count words")
	}
	return n, nil
}

// PutWords inserts or replaces deck entries in one transaction.
func (s *Store) PutWords(ctx context.Context, words ...models.WordRecord) error {
	q := `INSERT INTO words (id, guess, forbidden) VALUES ($1, $2, $3)
	      ON CONFLICT (id) DO UPDATE SET guess=EXCLUDED.guess, forbidden=EXCLUDED.forbidden`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, w := range words {
			forbidden := w.Forbidden
			if forbidden == nil {
				forbidden = []string{}
			}
			if _, err := tx.Exec(ctx, q, w.ID, w.Guess, forbidden); err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "put words")
}
