// internal/memstore/memstore.go
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/models"
)

// Store keeps rooms, words and users in process memory. It backs
// STORE_DRIVER=memory and the handler tests.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]models.RoomRecord
	words map[int]models.WordRecord
	users map[string]models.User
}

func New() *Store {
	return &Store{
		rooms: make(map[string]models.RoomRecord),
		words: make(map[int]models.WordRecord),
		users: make(map[string]models.User),
	}
}

// UpsertRoom inserts rec unless a room with the same id exists.
func (s *Store) UpsertRoom(_ context.Context, rec models.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[rec.RoomID]; !ok {
		s.rooms[rec.RoomID] = rec
	}
	return nil
}

func (s *Store) FindRoomByID(_ context.Context, roomID string) (*models.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, engine.ErrNotFound)
	}
	rec.TeamOne = append([]string(nil), rec.TeamOne...)
	rec.TeamTwo = append([]string(nil), rec.TeamTwo...)
	return &rec, nil
}

func (s *Store) SaveTeams(_ context.Context, roomID string, teamOne, teamTwo []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %q: %w", roomID, engine.ErrNotFound)
	}
	rec.TeamOne = append([]string(nil), teamOne...)
	rec.TeamTwo = append([]string(nil), teamTwo...)
	s.rooms[roomID] = rec
	return nil
}

// PutWords loads the deck, replacing records with the same id.
func (s *Store) PutWords(words ...models.WordRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range words {
		w.Forbidden = append([]string(nil), w.Forbidden...)
		s.words[w.ID] = w
	}
}

func (s *Store) FindWordByID(_ context.Context, id int) (*models.WordRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.words[id]
	if !ok {
		return nil, fmt.Errorf("word %d: %w", id, engine.ErrNotFound)
	}
	w.Forbidden = append([]string(nil), w.Forbidden...)
	return &w, nil
}

func (s *Store) CountWords(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words), nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("user %q: %w", user.Username, engine.ErrConflict)
	}
	s.users[user.Username] = *user
	return nil
}

func (s *Store) FindUserByName(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, engine.ErrNotFound)
	}
	return &u, nil
}

// RoomIDs lists the stored room ids in sorted order.
func (s *Store) RoomIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
