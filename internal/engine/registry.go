// internal/engine/registry.go
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	roomIDLength   = 5
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewRoomID draws a 5 character identifier uniformly from [A-Za-z0-9].
func (e *Engine) NewRoomID() string {
	b := make([]byte, roomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[e.intn(len(roomIDAlphabet))]
	}
	return string(b)
}

// CreateRoom allocates an identifier that is not yet known to the store and
// records the room metadata. Collisions are retried up to the configured number
// of attempts, after which ErrConflict is returned.
func (e *Engine) CreateRoom(ctx context.Context, name, owner string) (string, error) {
	if e.store == nil {
		return "", errors.New("engine has no room store")
	}
	for attempt := 0; attempt < e.idAttempts; attempt++ {
		roomID := e.NewRoomID()
		_, err := e.store.FindRoomByID(ctx, roomID)
		switch {
		case err == nil:
			e.logger.WithField("room", roomID).Warn("engine: generated room id already taken, retrying")
			continue
		case !errors.Is(err, ErrNotFound):
			return "", fmt.Errorf("check room id %q: %w", roomID, err)
		}

		rec := models.RoomRecord{RoomID: roomID, Name: name, Owner: owner}
		if err := e.store.UpsertRoom(ctx, rec); err != nil {
			return "", fmt.Errorf("upsert room %q: %w", roomID, err)
		}
		e.logger.WithFields(logrus.Fields{"room": roomID, "name": name, "owner": owner}).Info("engine: room created")
		return roomID, nil
	}
	return "", fmt.Errorf("allocate room id after %d attempts: %w", e.idAttempts, ErrConflict)
}

// Join adds the connection to the room under name. If a member already uses
// name, that member is returned unchanged and nothing is added; the member stays
// bound to its original connection. A connection holds a single entry: it leaves
// any other room first and gives up an entry under a different name in this one.
func (e *Engine) Join(roomID string, conn uuid.UUID, name string) models.Participant {
	return e.join(roomID, conn, name, models.TeamUnassigned, false)
}

// JoinWithTeam is Join followed by setting the team of the stored member, which
// is the existing member when name is already taken.
func (e *Engine) JoinWithTeam(roomID string, conn uuid.UUID, name string, team models.Team) models.Participant {
	return e.join(roomID, conn, name, team, true)
}

func (e *Engine) join(roomID string, conn uuid.UUID, name string, team models.Team, setTeam bool) models.Participant {
	e.mu.Lock()
	prev, ok := e.index[conn]
	e.mu.Unlock()
	if ok && prev != roomID {
		e.LeaveRoom(conn)
	}

	var (
		joined  models.Participant
		added   bool
		bound   bool
		dropped int
	)
	_ = e.withRoom(roomID, true, func(r *Room) error {
		m := r.memberByNameUnsafe(name)
		dropped = r.removeConnUnsafe(conn, m)
		if m == nil {
			m = &models.Participant{ConnectionID: conn, Name: name, Team: models.TeamUnassigned}
			r.members = append(r.members, m)
			added = true
		}
		if setTeam {
			m.Team = team
		}
		bound = m.ConnectionID == conn
		joined = *m
		return nil
	})

	e.mu.Lock()
	switch {
	case bound:
		e.index[conn] = roomID
	case dropped > 0 && e.index[conn] == roomID:
		delete(e.index, conn)
	}
	e.mu.Unlock()
	e.logger.WithFields(logrus.Fields{"room": roomID, "name": name, "added": added, "replaced": dropped}).Debug("engine: join")
	return joined
}

// MembersOf returns the members of roomID in join order.
func (e *Engine) MembersOf(roomID string) ([]models.Participant, error) {
	var out []models.Participant
	err := e.withRoom(roomID, false, func(r *Room) error {
		if len(r.members) == 0 {
			return roomNotFound(roomID)
		}
		out = r.membersUnsafe()
		return nil
	})
	return out, err
}

// MemberNames returns the names of the members of roomID, or an empty slice if
// the room is unknown.
func (e *Engine) MemberNames(roomID string) []string {
	members, err := e.MembersOf(roomID)
	if err != nil {
		return []string{}
	}
	return models.Names(members)
}

// UsersInTurn returns the members of roomID other than exclude.
func (e *Engine) UsersInTurn(roomID, exclude string) ([]models.Participant, error) {
	members, err := e.MembersOf(roomID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Participant, 0, len(members))
	for _, m := range members {
		if m.Name != exclude {
			out = append(out, m)
		}
	}
	return out, nil
}

// AllReady is a headcount gate: it reports whether roomID currently has exactly
// expected members. It does not check which members are present.
func (e *Engine) AllReady(roomID string, expected int) bool {
	members, err := e.MembersOf(roomID)
	if err != nil {
		return false
	}
	return len(members) == expected
}

// DeleteRoom drops the room, its members and its turn session.
func (e *Engine) DeleteRoom(roomID string) {
	_ = e.withRoom(roomID, false, func(r *Room) error {
		e.mu.Lock()
		for _, m := range r.members {
			if e.index[m.ConnectionID] == roomID {
				delete(e.index, m.ConnectionID)
			}
		}
		e.mu.Unlock()
		r.members = r.members[:0]
		r.session = nil
		return nil
	})
}
