package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/taboo/internal/models"
)

// UpsertRoom inserts rec unless the room id is already taken.
func (s *Store) UpsertRoom(ctx context.Context, rec models.RoomRecord) error {
	q := `INSERT INTO rooms (room_id, name, owner) VALUES ($1, $2, $3)
	      ON CONFLICT (room_id) DO NOTHING`
	_, err := s.pool.Exec(ctx, q, rec.RoomID, rec.Name, rec.Owner)
	return translate(err, fmt.Sprintf("upsert room %q", rec.RoomID))
}

func (s *Store) FindRoomByID(ctx context.Context, roomID string) (*models.RoomRecord, error) {
	var rec models.RoomRecord
	q := `SELECT room_id, name, owner, COALESCE(team_one, '{}'), COALESCE(team_two, '{}')
	      FROM rooms WHERE room_id=$1`
	err := s.pool.QueryRow(ctx, q, roomID).Scan(&rec.RoomID, &rec.Name, &rec.Owner, &rec.TeamOne, &rec.TeamTwo)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("room %q", roomID))
	}
	return &rec, nil
}

// SaveTeams records the team rosters of a started room.
func (s *Store) SaveTeams(ctx context.Context, roomID string, teamOne, teamTwo []string) error {
	q := `UPDATE rooms SET team_one=$1, team_two=$2 WHERE room_id=$3`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, teamOne, teamTwo, roomID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	return translate(err, fmt.Sprintf("save teams of room %q", roomID))
}
