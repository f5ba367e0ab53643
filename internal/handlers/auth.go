// internal/handlers/auth.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/taboo/internal/auth"
	"github.com/jason-s-yu/taboo/internal/engine"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

// SignupHandler creates an account.
func (s *RoomServer) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.Accounts.Signup(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, engine.ErrConflict):
		http.Error(w, "username already taken", http.StatusConflict)
		return
	case err != nil:
		s.logger.WithError(err).Error("signup failed")
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": user.ID, "username": user.Username})
}

// LoginHandler exchanges credentials for an access token.
func (s *RoomServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.Accounts.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusNotFound)
		return
	case err != nil:
		s.logger.WithError(err).Error("login failed")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         "ok",
		"username":     req.Username,
		"access_token": token,
	})
}

// VerifyTokenHandler reports whether a token is valid.
func (s *RoomServer) VerifyTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"verified": s.Accounts.Verify(req.Token)})
}
