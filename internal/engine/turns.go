// internal/engine/turns.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

// TurnSession is the cyclic speaking order of a running round.
// pointer is always a valid index into a non-empty sequence.
type TurnSession struct {
	sequence []*models.Participant
	pointer  int
	ready    []ReadyEntry
}

func (s *TurnSession) currentUnsafe() *models.Participant {
	return s.sequence[s.pointer%len(s.sequence)]
}

func (s *TurnSession) snapshot() []models.Participant {
	out := make([]models.Participant, 0, len(s.sequence))
	for _, p := range s.sequence {
		out = append(out, *p)
	}
	return out
}

// Interleave alternates one element of a and one of b. When one list runs out
// the rest of the other is appended in order.
func Interleave(a, b []*models.Participant) []*models.Participant {
	out := make([]*models.Participant, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		out = append(out, a[i], b[j])
		i++
		j++
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// BuildSequence creates the turn order of roomID from the team assignment of its
// members. If a session already exists its sequence is returned unchanged.
func (e *Engine) BuildSequence(roomID string) ([]models.Participant, error) {
	var out []models.Participant
	err := e.withRoom(roomID, false, func(r *Room) error {
		if r.session != nil {
			out = r.session.snapshot()
			return nil
		}
		var one, two []*models.Participant
		for _, m := range r.members {
			switch m.Team {
			case models.TeamOne:
				one = append(one, m)
			case models.TeamTwo:
				two = append(two, m)
			}
		}
		seq := Interleave(one, two)
		if len(seq) == 0 {
			return fmt.Errorf("room %q: %w", roomID, ErrEmptySequence)
		}
		r.session = &TurnSession{sequence: seq}
		out = r.session.snapshot()
		e.logger.WithFields(logrus.Fields{"room": roomID, "turns": models.Names(out)}).Info("engine: turn order built")
		return nil
	})
	return out, err
}

// Advance moves the speaker pointer one step, wrapping at the end of the
// sequence. Callers rate-limit through TryAdvance or use NextTurn.
func (e *Engine) Advance(roomID string) error {
	return e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		r.session.advanceUnsafe()
		return nil
	})
}

func (s *TurnSession) advanceUnsafe() {
	s.pointer = (s.pointer + 1) % len(s.sequence)
}

// CurrentActor returns the participant whose turn it is.
func (e *Engine) CurrentActor(roomID string) (models.Participant, error) {
	var actor models.Participant
	err := e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		actor = *r.session.currentUnsafe()
		return nil
	})
	return actor, err
}

// Pointer returns the current index into the turn sequence.
func (e *Engine) Pointer(roomID string) (int, error) {
	var ptr int
	err := e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		ptr = r.session.pointer
		return nil
	})
	return ptr, err
}

// Shrink removes every sequence entry named name. The session is deleted when
// no entry remains; remaining is the new sequence length.
func (e *Engine) Shrink(roomID, name string) (remaining int, err error) {
	err = e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		remaining, _ = e.shrinkUnsafe(r, name)
		return nil
	})
	return remaining, err
}

// shrinkUnsafe drops name from the session of r and keeps the pointer on the
// same speaker when possible. Ready signals of the removed connections are
// discarded; if the remaining signals now complete the cohort the release is
// returned. Assumes r.mu is held and r.session is not nil.
func (e *Engine) shrinkUnsafe(r *Room, name string) (int, *Release) {
	s := r.session
	removed := make(map[uuid.UUID]bool)
	kept := s.sequence[:0:0]
	before := 0
	for i, p := range s.sequence {
		if p.Name == name {
			removed[p.ConnectionID] = true
			if i < s.pointer {
				before++
			}
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		r.session = nil
		e.logger.WithField("room", r.ID).Info("engine: turn session ended, no participants left")
		return 0, nil
	}

	s.sequence = kept
	s.pointer -= before
	if s.pointer >= len(kept) {
		s.pointer = 0
	}

	ready := s.ready[:0:0]
	for _, entry := range s.ready {
		if !removed[entry.ConnectionID] {
			ready = append(ready, entry)
		}
	}
	s.ready = ready

	var rel *Release
	if len(removed) > 0 && len(s.ready) > 0 {
		if ok, cohort := s.releaseUnsafe(); ok {
			rel = &Release{Ready: true, Cohort: cohort}
		}
	}
	return len(kept), rel
}

// CleanTurns deletes the turn session of roomID, if any.
func (e *Engine) CleanTurns(roomID string) {
	_ = e.withRoom(roomID, false, func(r *Room) error {
		r.session = nil
		return nil
	})
}
