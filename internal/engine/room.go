// internal/engine/room.go
package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/models"
)

// Room is the live state of one room: its members in join order and the turn
// session of the round being played, if any. All fields are guarded by mu.
type Room struct {
	ID string

	mu      sync.Mutex
	members []*models.Participant
	session *TurnSession
	retired bool
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: make([]*models.Participant, 0)}
}

// idleUnsafe reports whether nothing references the room anymore.
func (r *Room) idleUnsafe() bool {
	return len(r.members) == 0 && r.session == nil
}

func (r *Room) memberByNameUnsafe(name string) *models.Participant {
	for _, m := range r.members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (r *Room) memberIndexUnsafe(conn uuid.UUID) int {
	for i, m := range r.members {
		if m.ConnectionID == conn {
			return i
		}
	}
	return -1
}

// removeConnUnsafe drops the members bound to conn other than keep, which may
// be nil, and returns how many were removed.
func (r *Room) removeConnUnsafe(conn uuid.UUID, keep *models.Participant) int {
	kept := r.members[:0]
	for _, m := range r.members {
		if m.ConnectionID == conn && m != keep {
			continue
		}
		kept = append(kept, m)
	}
	n := len(r.members) - len(kept)
	clear(r.members[len(kept):])
	r.members = kept
	return n
}

func (r *Room) membersUnsafe() []models.Participant {
	out := make([]models.Participant, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	return out
}

func roomNotFound(roomID string) error {
	return fmt.Errorf("room %q: %w", roomID, ErrNotFound)
}

func sessionNotFound(roomID string) error {
	return fmt.Errorf("turn session for room %q: %w", roomID, ErrNotFound)
}
