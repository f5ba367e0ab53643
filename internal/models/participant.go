// internal/models/participant.go
package models

import "github.com/google/uuid"

// Team identifies one of the two sides of a room. Members start unassigned.
type Team int

const (
	TeamUnassigned Team = -1
	TeamOne        Team = 0
	TeamTwo        Team = 1
)

// Valid reports whether t is one of the two playable teams.
func (t Team) Valid() bool {
	return t == TeamOne || t == TeamTwo
}

// Participant is a single connection present in a room.
// ConnectionID is the lookup key; Name must be unique inside an active room.
type Participant struct {
	ConnectionID uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Team         Team      `json:"team"`
}

// Names returns the display names of ps, preserving order.
func Names(ps []Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}
