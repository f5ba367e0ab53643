// internal/engine/barrier.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

// ReadyEntry is one connection waiting for the word of the current turn.
type ReadyEntry struct {
	ConnectionID uuid.UUID   `json:"connection_id"`
	Role         models.Role `json:"role"`
}

// Release is the outcome of a readiness check. Cohort holds the released
// entries when Ready is set, the pending ones otherwise.
type Release struct {
	Ready  bool
	Role   models.Role
	Cohort []ReadyEntry
}

// markUnsafe records conn as ready. A connection that is already waiting only
// has its role refreshed. Connections without an entry in the sequence are
// refused, so the set only ever holds participants of the round.
func (s *TurnSession) markUnsafe(roomID string, conn uuid.UUID, role models.Role) error {
	if !s.holdsUnsafe(conn) {
		return fmt.Errorf("connection %s is not in the round of room %q: %w", conn, roomID, ErrNotFound)
	}
	for i := range s.ready {
		if s.ready[i].ConnectionID == conn {
			s.ready[i].Role = role
			return nil
		}
	}
	s.ready = append(s.ready, ReadyEntry{ConnectionID: conn, Role: role})
	return nil
}

func (s *TurnSession) holdsUnsafe(conn uuid.UUID) bool {
	for _, p := range s.sequence {
		if p.ConnectionID == conn {
			return true
		}
	}
	return false
}

// releaseUnsafe empties the ready set and returns it when it is complete.
func (s *TurnSession) releaseUnsafe() (bool, []ReadyEntry) {
	if len(s.ready) == len(s.sequence) {
		cohort := s.ready
		s.ready = nil
		return true, cohort
	}
	pending := make([]ReadyEntry, len(s.ready))
	copy(pending, s.ready)
	return false, pending
}

// MarkReady records that conn, playing role, waits for the word.
func (e *Engine) MarkReady(roomID string, conn uuid.UUID, role models.Role) error {
	return e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		return r.session.markUnsafe(roomID, conn, role)
	})
}

// CheckRelease reports whether every participant of the round is ready. On
// success the ready set is cleared in the same critical section, so a second
// check returns false with an empty set until new signals arrive.
func (e *Engine) CheckRelease(roomID string) (bool, []ReadyEntry, error) {
	var (
		ok     bool
		cohort []ReadyEntry
	)
	err := e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		ok, cohort = r.session.releaseUnsafe()
		return nil
	})
	return ok, cohort, err
}

// MarkReadyAndCheck resolves the role of name, marks conn ready and checks the
// barrier as one operation on the room. Only one caller can observe the release
// of a cohort.
func (e *Engine) MarkReadyAndCheck(roomID string, conn uuid.UUID, name string, team models.Team) (Release, error) {
	var rel Release
	err := e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		actor := r.session.currentUnsafe()
		rel.Role = ResolveRole(*actor, actor.Name == name, team)
		if err := r.session.markUnsafe(roomID, conn, rel.Role); err != nil {
			return err
		}
		rel.Ready, rel.Cohort = r.session.releaseUnsafe()
		return nil
	})
	if err == nil && rel.Ready {
		e.logger.WithFields(logrus.Fields{"room": roomID, "cohort": len(rel.Cohort)}).Debug("engine: word barrier released")
	}
	return rel, err
}
