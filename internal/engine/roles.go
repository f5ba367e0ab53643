package engine

import "github.com/jason-s-yu/taboo/internal/models"

// ResolveRole derives a role from the current speaker: the speaker itself, a
// teammate (Guesser) or an opponent (Checker).
func ResolveRole(actor models.Participant, isCurrent bool, team models.Team) models.Role {
	if isCurrent {
		return models.RoleSpeaker
	}
	if actor.Team == team {
		return models.RoleGuesser
	}
	return models.RoleChecker
}

// IsCurrentActor reports whether name is the current speaker of roomID.
func (e *Engine) IsCurrentActor(roomID, name string) (bool, error) {
	actor, err := e.CurrentActor(roomID)
	if err != nil {
		return false, err
	}
	return actor.Name == name, nil
}

// RoleFor returns the role of a participant of team, given whether that
// participant is the current speaker.
func (e *Engine) RoleFor(isCurrent bool, team models.Team, roomID string) (models.Role, error) {
	actor, err := e.CurrentActor(roomID)
	if err != nil {
		return "", err
	}
	return ResolveRole(actor, isCurrent, team), nil
}

// RoleOf resolves the role of name in a single look at the turn session.
func (e *Engine) RoleOf(roomID, name string, team models.Team) (models.Role, error) {
	actor, err := e.CurrentActor(roomID)
	if err != nil {
		return "", err
	}
	return ResolveRole(actor, actor.Name == name, team), nil
}
