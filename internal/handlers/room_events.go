// internal/handlers/room_events.go
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

// Packet is an inbound websocket message. Which fields are read depends on Type.
type Packet struct {
	Type         string       `json:"type"`
	RoomID       string       `json:"room_id"`
	Name         string       `json:"name"`
	Team         *models.Team `json:"team"`
	TotalPlayers int          `json:"total_players"`
	Seed         int          `json:"seed"`
	Point        int          `json:"point"`
	TeamOne      []string     `json:"team_one"`
	TeamTwo      []string     `json:"team_two"`
}

// HandleMessage dispatches one packet from conn.
func (s *RoomServer) HandleMessage(ctx context.Context, conn uuid.UUID, p Packet) {
	log := s.logger.WithFields(logrus.Fields{"conn": conn, "type": p.Type, "room": p.RoomID})

	switch p.Type {
	case "join_room":
		if !s.require(conn, p.RoomID != "" && p.Name != "", "join_room needs room_id and name") {
			return
		}
		s.Engine.Join(p.RoomID, conn, p.Name)
		s.Hub.Subscribe(p.RoomID, conn)
		s.broadcastUsers(p.RoomID)

	case "join_with_team":
		if !s.require(conn, p.RoomID != "" && p.Name != "" && p.Team != nil && p.Team.Valid(),
			"join_with_team needs room_id, name and a team of 0 or 1") {
			return
		}
		s.Engine.JoinWithTeam(p.RoomID, conn, p.Name, *p.Team)
		s.Hub.Subscribe(p.RoomID, conn)
		s.broadcastUsers(p.RoomID)
		if p.TotalPlayers > 0 && s.Engine.AllReady(p.RoomID, p.TotalPlayers) {
			log.Info("all players present, starting countdown")
			s.broadcastCountdown(p.RoomID)
		}

	case "request_turns":
		turns, err := s.Engine.BuildSequence(p.RoomID)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		s.Hub.Send(conn, map[string]interface{}{"type": "turns", "turns": turns})

	case "set_teams":
		members, err := s.Engine.AssignTeams(p.RoomID, p.TeamOne)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		s.Hub.Broadcast(p.RoomID, map[string]interface{}{"type": "teams_finalized", "members": members})

	case "request_role":
		if !s.require(conn, p.Team != nil, "request_role needs a team") {
			return
		}
		role, err := s.Engine.RoleOf(p.RoomID, p.Name, *p.Team)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		s.Hub.Send(conn, map[string]interface{}{"type": "role_assigned", "role": role})

	case "request_word":
		if !s.require(conn, p.Team != nil, "request_word needs a team") {
			return
		}
		role, err := s.Engine.RoleOf(p.RoomID, p.Name, *p.Team)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		word, err := s.fetchWord(ctx, p.Seed)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		s.Hub.Send(conn, revealPacket(engine.MaskWord(role, *word)))

	case "ready_for_word":
		if !s.require(conn, p.Team != nil, "ready_for_word needs a team") {
			return
		}
		rel, err := s.Engine.MarkReadyAndCheck(p.RoomID, conn, p.Name, *p.Team)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		s.rememberSeed(p.RoomID, p.Seed)
		if rel.Ready {
			s.revealToCohort(ctx, p.RoomID, p.Seed, rel.Cohort)
		}

	case "score_point":
		if !s.require(conn, p.Team != nil && p.Team.Valid(), "score_point needs a team of 0 or 1") {
			return
		}
		s.Hub.Broadcast(p.RoomID, map[string]interface{}{"type": "score_changed", "team": *p.Team, "delta": p.Point})

	case "next_turn":
		advanced, err := s.Engine.NextTurn(p.RoomID)
		if err != nil {
			s.fail(conn, log, err)
			return
		}
		if !advanced {
			log.Debug("next turn suppressed by cooldown")
			return
		}
		s.broadcastCountdown(p.RoomID)

	case "request_word_prompt":
		s.Hub.Broadcast(p.RoomID, map[string]interface{}{"type": "word_requested"})

	case "leave_room":
		dep, ok := s.Engine.LeaveRoom(conn)
		s.Hub.Unsubscribe(conn)
		if ok {
			s.announceDeparture(ctx, *dep)
		}

	case "leave_game":
		if dep, ok := s.Engine.LeaveGame(conn); ok {
			s.announceDeparture(ctx, *dep)
		}

	default:
		log.Warn("unknown action")
		s.sendError(conn, fmt.Sprintf("Unknown action type: %s", p.Type))
	}
}

// HandleDisconnect runs the departure paths of a connection that went away.
func (s *RoomServer) HandleDisconnect(ctx context.Context, conn uuid.UUID) {
	deps := s.Engine.Disconnect(conn)
	s.Hub.Unsubscribe(conn)
	for _, dep := range deps {
		s.announceDeparture(ctx, dep)
	}
}

func (s *RoomServer) announceDeparture(ctx context.Context, dep engine.Departure) {
	if !dep.Game {
		s.broadcastUsers(dep.RoomID)
		return
	}
	s.Hub.Broadcast(dep.RoomID, map[string]interface{}{
		"type":      "participant_left",
		"name":      dep.Name,
		"remaining": dep.Remaining,
	})
	if dep.Release != nil && dep.Release.Ready {
		s.revealToCohort(ctx, dep.RoomID, s.lastSeed(dep.RoomID), dep.Release.Cohort)
	}
	if dep.Remaining == 0 {
		// round is over
		s.forgetSeed(dep.RoomID)
	}
}

// revealToCohort fetches the word for seed and sends each released entry its
// masked view. The engine has already cleared the ready set, so on failure the
// cohort is told to signal again.
func (s *RoomServer) revealToCohort(ctx context.Context, roomID string, seed int, cohort []engine.ReadyEntry) {
	word, err := s.fetchWord(ctx, seed)
	if err != nil {
		s.logger.WithError(err).WithField("room", roomID).Warn("word fetch failed after release")
		for _, entry := range cohort {
			s.sendError(entry.ConnectionID, "word unavailable, signal ready again")
		}
		return
	}
	for _, entry := range cohort {
		s.Hub.Send(entry.ConnectionID, revealPacket(engine.MaskWord(entry.Role, *word)))
	}
	s.logger.WithFields(logrus.Fields{"room": roomID, "word": word.ID, "cohort": len(cohort)}).Info("word revealed")
}

// fetchWord loads the record selected by seed: id = seed mod deck size.
func (s *RoomServer) fetchWord(ctx context.Context, seed int) (*models.WordRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WordFetchTimeout)
	defer cancel()

	n := s.wordCount(ctx)
	id := ((seed % n) + n) % n
	word, err := s.Words.FindWordByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch word %d: %w", id, err)
	}
	return word, nil
}

func (s *RoomServer) wordCount(ctx context.Context) int {
	n, err := s.Words.CountWords(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("word count unavailable, using configured deck size")
		return s.cfg.WordsInDB
	}
	if n <= 0 {
		return s.cfg.WordsInDB
	}
	return n
}

func (s *RoomServer) broadcastUsers(roomID string) {
	s.Hub.Broadcast(roomID, map[string]interface{}{
		"type":  "room_users",
		"users": s.Engine.MemberNames(roomID),
	})
}

func (s *RoomServer) broadcastCountdown(roomID string) {
	s.Hub.Broadcast(roomID, map[string]interface{}{
		"type":    "countdown_started",
		"seconds": s.cfg.CountdownSeconds,
	})
}

func revealPacket(w models.WordReveal) map[string]interface{} {
	return map[string]interface{}{
		"type":      "word_revealed",
		"word":      w.Word,
		"forbidden": w.Forbidden,
	}
}

func (s *RoomServer) sendError(conn uuid.UUID, msg string) {
	s.Hub.Send(conn, map[string]interface{}{"type": "error", "message": msg})
}

// require sends msg back to conn when ok is false.
func (s *RoomServer) require(conn uuid.UUID, ok bool, msg string) bool {
	if !ok {
		s.sendError(conn, msg)
	}
	return ok
}

func (s *RoomServer) fail(conn uuid.UUID, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrEmptySequence):
		log.WithError(err).Debug("request rejected")
	default:
		log.WithError(err).Warn("request failed")
	}
	s.sendError(conn, err.Error())
}
