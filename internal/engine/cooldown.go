package engine

import "time"

type cooldownState struct {
	last time.Time
}

// TryAdvance is the per-room cooldown gate. The first call for a room and any
// call at least the cooldown after the last permitted one return true and
// restart the window; all others return false.
func (e *Engine) TryAdvance(roomID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	st, ok := e.cooldowns[roomID]
	if !ok {
		e.cooldowns[roomID] = &cooldownState{last: now}
		return true
	}
	if now.Sub(st.last) >= e.cooldown {
		st.last = now
		return true
	}
	return false
}

// NextTurn advances the speaker of roomID if the cooldown gate permits it.
// A suppressed advance returns false and no error.
func (e *Engine) NextTurn(roomID string) (bool, error) {
	var advanced bool
	err := e.withRoom(roomID, false, func(r *Room) error {
		if r.session == nil {
			return sessionNotFound(roomID)
		}
		if !e.TryAdvance(roomID) {
			return nil
		}
		r.session.advanceUnsafe()
		advanced = true
		return nil
	})
	if advanced {
		e.logger.WithField("room", roomID).Debug("engine: turn advanced")
	}
	return advanced, err
}
