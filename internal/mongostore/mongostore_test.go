package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to MONGO_TEST_URI and uses a fresh database per test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("taboo_test_%d", time.Now().UnixNano())

	s, err := Connect(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestMongoRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoom(ctx, models.RoomRecord{RoomID: "Ab3dE", Name: "friday", Owner: "alice"}))
	require.NoError(t, s.UpsertRoom(ctx, models.RoomRecord{RoomID: "Ab3dE", Name: "other", Owner: "bob"}))

	rec, err := s.FindRoomByID(ctx, "Ab3dE")
	require.NoError(t, err)
	assert.Equal(t, "friday", rec.Name)

	require.NoError(t, s.SaveTeams(ctx, "Ab3dE", []string{"alice"}, []string{"bob"}))
	rec, err = s.FindRoomByID(ctx, "Ab3dE")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, rec.TeamOne)
	assert.Equal(t, []string{"bob"}, rec.TeamTwo)

	_, err = s.FindRoomByID(ctx, "ghost")
	assert.ErrorIs(t, err, engine.ErrNotFound)
	assert.ErrorIs(t, s.SaveTeams(ctx, "ghost", nil, nil), engine.ErrNotFound)
}

func TestMongoWordsAndUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutWords(ctx,
		models.WordRecord{ID: 0, Guess: "apple", Forbidden: []string{"fruit"}},
		models.WordRecord{ID: 1, Guess: "moon", Forbidden: []string{"night"}},
	))
	n, err := s.CountWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	w, err := s.FindWordByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "moon", w.Guess)
	_, err = s.FindWordByID(ctx, 5)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	u := &models.User{ID: uuid.New(), Username: "alice", Password: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: uuid.New(), Username: "alice"}), engine.ErrConflict)

	got, err := s.FindUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
