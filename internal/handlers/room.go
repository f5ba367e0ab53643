// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

type createRoomRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

type startRoomRequest struct {
	RoomID string `json:"room_id"`
}

// PingHandler answers liveness probes.
func (s *RoomServer) PingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// CreateRoomHandler allocates a room code and stores the room metadata.
func (s *RoomServer) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "room name is required", http.StatusBadRequest)
		return
	}

	roomID, err := s.Engine.CreateRoom(r.Context(), req.Name, req.Owner)
	if err != nil {
		s.logger.WithError(err).Error("create room failed")
		if errors.Is(err, engine.ErrConflict) {
			http.Error(w, "could not allocate a room code", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": true,
		"room":    map[string]string{"name": req.Name, "id": roomID},
	})
}

// FindRoomHandler reports whether a room code exists.
func (s *RoomServer) FindRoomHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.findRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"found": true,
		"room":  map[string]string{"room_id": rec.RoomID},
	})
}

// RoomOwnerHandler returns the owner recorded for a room.
func (s *RoomServer) RoomOwnerHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.findRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": true, "owner": rec.Owner})
}

func (s *RoomServer) findRoom(w http.ResponseWriter, r *http.Request) (*models.RoomRecord, bool) {
	rec, err := s.Rooms.FindRoomByID(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"found": false})
		return nil, false
	case err != nil:
		s.logger.WithError(err).Error("room lookup failed")
		http.Error(w, "room lookup failed", http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

// StartRoomHandler splits the members present in the room into two teams,
// stores the rosters and tells the room.
func (s *RoomServer) StartRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req startRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	teamOne, teamTwo, err := s.Engine.StartSession(req.RoomID)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, "room has no members", http.StatusNotFound)
		return
	case errors.Is(err, engine.ErrConflict):
		http.Error(w, "a round is already running", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "failed to start room", http.StatusInternalServerError)
		return
	}

	one, two := models.Names(teamOne), models.Names(teamTwo)
	if err := s.Rooms.SaveTeams(r.Context(), req.RoomID, one, two); err != nil {
		// rooms joined by code alone have no stored record
		level := logrus.WarnLevel
		if errors.Is(err, engine.ErrNotFound) {
			level = logrus.DebugLevel
		}
		s.logger.WithError(err).WithField("room", req.RoomID).Log(level, "teams not persisted")
	}

	if members, err := s.Engine.MembersOf(req.RoomID); err == nil {
		s.Hub.Broadcast(req.RoomID, map[string]interface{}{"type": "teams_finalized", "members": members})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"team_one": one, "team_two": two})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
