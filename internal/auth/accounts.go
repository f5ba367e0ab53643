// internal/auth/accounts.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/models"
)

// ErrInvalidCredentials is returned when the username is unknown or the password
// does not match. Callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore persists accounts. FindUserByName returns engine.ErrNotFound for an
// unknown name and CreateUser returns engine.ErrConflict for a taken one.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByName(ctx context.Context, username string) (*models.User, error)
}

// Accounts ties the user store to password hashing and token issuing.
type Accounts struct {
	users    UserStore
	sessions *Sessions
	params   *HashParams
}

func NewAccounts(users UserStore, sessions *Sessions, params *HashParams) *Accounts {
	if params == nil {
		params = DefaultParams
	}
	return &Accounts{users: users, sessions: sessions, params: params}
}

// Signup stores a new account with a hashed password.
func (a *Accounts) Signup(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	hash, err := CreateHash(password, a.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{ID: uuid.New(), Username: username, Password: hash}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.users.FindUserByName(ctx, username)
	if errors.Is(err, engine.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("user lookup: %w", err)
	}

	match, err := ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", ErrInvalidCredentials
	}

	token, err := a.sessions.CreateJWT(user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, nil
}

// Verify reports whether token was issued by this service and is still valid.
func (a *Accounts) Verify(token string) bool {
	_, err := a.sessions.AuthenticateJWT(token)
	return err == nil
}
