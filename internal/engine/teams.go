package engine

import (
	"math/rand/v2"

	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

// Split shuffles a copy of members with Fisher-Yates and cuts it at len/2.
// teamB receives the extra member when the count is odd.
func Split(members []models.Participant, rng *rand.Rand) (teamA, teamB []models.Participant) {
	shuffled := make([]models.Participant, len(members))
	copy(shuffled, members)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	half := len(shuffled) / 2
	return shuffled[:half:half], shuffled[half:]
}

func (e *Engine) split(members []models.Participant) ([]models.Participant, []models.Participant) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return Split(members, e.rng)
}

// StartSession splits the current members of roomID into two teams and tags
// every member accordingly. It fails with ErrConflict while a round is running.
func (e *Engine) StartSession(roomID string) (teamA, teamB []models.Participant, err error) {
	err = e.withRoom(roomID, false, func(r *Room) error {
		if len(r.members) == 0 {
			return roomNotFound(roomID)
		}
		if r.session != nil {
			return ErrConflict
		}
		teamA, teamB = e.split(r.membersUnsafe())
		inA := make(map[string]bool, len(teamA))
		for i := range teamA {
			teamA[i].Team = models.TeamOne
			inA[teamA[i].Name] = true
		}
		for i := range teamB {
			teamB[i].Team = models.TeamTwo
		}
		for _, m := range r.members {
			if inA[m.Name] {
				m.Team = models.TeamOne
			} else {
				m.Team = models.TeamTwo
			}
		}
		return nil
	})
	if err == nil {
		e.logger.WithFields(logrus.Fields{
			"room":     roomID,
			"team_one": models.Names(teamA),
			"team_two": models.Names(teamB),
		}).Info("engine: teams split")
	}
	return teamA, teamB, err
}

// AssignTeams re-tags the members of roomID from an externally supplied roster:
// a member listed in teamOne joins TeamOne, every other member joins TeamTwo.
// The updated membership is returned.
func (e *Engine) AssignTeams(roomID string, teamOne []string) ([]models.Participant, error) {
	inOne := make(map[string]bool, len(teamOne))
	for _, name := range teamOne {
		inOne[name] = true
	}
	var out []models.Participant
	err := e.withRoom(roomID, false, func(r *Room) error {
		if len(r.members) == 0 {
			return roomNotFound(roomID)
		}
		for _, m := range r.members {
			if inOne[m.Name] {
				m.Team = models.TeamOne
			} else {
				m.Team = models.TeamTwo
			}
		}
		out = r.membersUnsafe()
		return nil
	})
	return out, err
}
