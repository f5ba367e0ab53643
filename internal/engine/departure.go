// internal/engine/departure.go
package engine

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Departure describes a participant that left a room or a round.
// Remaining counts the members (LeaveRoom) or sequence entries (LeaveGame) left
// behind. Release is set when the departure completed a pending word cohort.
type Departure struct {
	Name      string
	RoomID    string
	Game      bool
	Remaining int
	Release   *Release
}

// LeaveRoom removes every member bound to conn from the room it joined. It reports
// false if conn is not a member of any room.
func (e *Engine) LeaveRoom(conn uuid.UUID) (*Departure, bool) {
	e.mu.Lock()
	roomID, ok := e.index[conn]
	if ok {
		delete(e.index, conn)
	}
	e.mu.Unlock()
	if !ok {
		return nil, false
	}

	var dep *Departure
	_ = e.withRoom(roomID, false, func(r *Room) error {
		idx := r.memberIndexUnsafe(conn)
		if idx < 0 {
			return nil
		}
		name := r.members[idx].Name
		r.removeConnUnsafe(conn, nil)
		dep = &Departure{Name: name, RoomID: roomID, Remaining: len(r.members)}
		return nil
	})
	if dep == nil {
		return nil, false
	}
	e.logger.WithFields(logrus.Fields{"room": dep.RoomID, "name": dep.Name}).Info("engine: participant left room")
	return dep, true
}

// LeaveGame removes conn from the turn session it takes part in. It reports
// false if conn is not part of any running round.
func (e *Engine) LeaveGame(conn uuid.UUID) (*Departure, bool) {
	for _, roomID := range e.snapshot() {
		var dep *Departure
		_ = e.withRoom(roomID, false, func(r *Room) error {
			if r.session == nil {
				return nil
			}
			for _, p := range r.session.sequence {
				if p.ConnectionID != conn {
					continue
				}
				name := p.Name
				remaining, rel := e.shrinkUnsafe(r, name)
				dep = &Departure{Name: name, RoomID: roomID, Game: true, Remaining: remaining, Release: rel}
				return nil
			}
			return nil
		})
		if dep != nil {
			e.logger.WithFields(logrus.Fields{
				"room":      dep.RoomID,
				"name":      dep.Name,
				"remaining": dep.Remaining,
			}).Info("engine: participant left game")
			return dep, true
		}
	}
	return nil, false
}

// Disconnect runs both departure paths for a lost connection and returns what
// happened: the room departure first, then the game departure.
func (e *Engine) Disconnect(conn uuid.UUID) []Departure {
	var out []Departure
	if dep, ok := e.LeaveRoom(conn); ok {
		out = append(out, *dep)
	}
	if dep, ok := e.LeaveGame(conn); ok {
		out = append(out, *dep)
	}
	return out
}
