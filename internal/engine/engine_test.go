package engine

import (
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoomStore keeps room records in memory. The first takenLookups calls to
// FindRoomByID report a hit to simulate identifier collisions.
type fakeRoomStore struct {
	mu           sync.Mutex
	rooms        map[string]models.RoomRecord
	takenLookups int
	lookups      int
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]models.RoomRecord)}
}

func (s *fakeRoomStore) UpsertRoom(_ context.Context, rec models.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[rec.RoomID]; !ok {
		s.rooms[rec.RoomID] = rec
	}
	return nil
}

func (s *fakeRoomStore) FindRoomByID(_ context.Context, roomID string) (*models.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookups <= s.takenLookups {
		return &models.RoomRecord{RoomID: roomID}, nil
	}
	rec, ok := s.rooms[roomID]
	if !ok {
		return nil, roomNotFound(roomID)
	}
	return &rec, nil
}

func (s *fakeRoomStore) SaveTeams(_ context.Context, roomID string, teamOne, teamTwo []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rooms[roomID]
	if !ok {
		return roomNotFound(roomID)
	}
	rec.TeamOne, rec.TeamTwo = teamOne, teamTwo
	s.rooms[roomID] = rec
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEngine(t *testing.T, store RoomStore, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	e := New(store, append(base, opts...)...)
	t.Cleanup(e.Shutdown)
	return e
}

type seat struct {
	name string
	team models.Team
}

// seatRoom joins every seat to roomID and returns the connection of each name.
func seatRoom(t *testing.T, e *Engine, roomID string, seats ...seat) map[string]uuid.UUID {
	t.Helper()
	conns := make(map[string]uuid.UUID, len(seats))
	for _, s := range seats {
		conn := uuid.New()
		e.JoinWithTeam(roomID, conn, s.name, s.team)
		conns[s.name] = conn
	}
	return conns
}

func TestJoinIsIdempotentByName(t *testing.T) {
	e := newTestEngine(t, nil)
	first := uuid.New()

	p := e.Join("R1", first, "alice")
	assert.Equal(t, first, p.ConnectionID)
	assert.Equal(t, models.TeamUnassigned, p.Team)

	again := e.Join("R1", uuid.New(), "alice")
	assert.Equal(t, first, again.ConnectionID, "rejoin by name returns the existing entry")

	members, err := e.MembersOf("R1")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestJoinKeepsInsertionOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	for _, name := range []string{"carol", "alice", "bob"} {
		e.Join("R1", uuid.New(), name)
	}
	assert.Equal(t, []string{"carol", "alice", "bob"}, e.MemberNames("R1"))
}

func TestJoinWithTeamTagsStoredMember(t *testing.T) {
	e := newTestEngine(t, nil)
	conn := uuid.New()
	e.Join("R1", conn, "alice")

	p := e.JoinWithTeam("R1", uuid.New(), "alice", models.TeamTwo)
	assert.Equal(t, conn, p.ConnectionID)
	assert.Equal(t, models.TeamTwo, p.Team)

	members, err := e.MembersOf("R1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.TeamTwo, members[0].Team)
}

func TestJoinMovesConnectionBetweenRooms(t *testing.T) {
	e := newTestEngine(t, nil)
	conn := uuid.New()
	e.Join("R1", conn, "alice")
	e.Join("R2", conn, "alice")

	_, err := e.MembersOf("R1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"alice"}, e.MemberNames("R2"))
	assert.Equal(t, 1, e.RoomCount())
}

func TestJoinUnderSecondNameReplacesEntry(t *testing.T) {
	e := newTestEngine(t, nil)
	conn := uuid.New()
	e.Join("R1", conn, "alice")
	e.Join("R1", conn, "bob")

	assert.Equal(t, []string{"bob"}, e.MemberNames("R1"))
	assert.True(t, e.AllReady("R1", 1))

	deps := e.Disconnect(conn)
	require.Len(t, deps, 1)
	assert.Equal(t, "bob", deps[0].Name)
	_, err := e.MembersOf("R1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, e.RoomCount())
}

func TestJoinUnderTakenNameKeepsOriginalBinding(t *testing.T) {
	e := newTestEngine(t, nil)
	alice, other := uuid.New(), uuid.New()
	e.Join("R1", alice, "alice")
	e.Join("R1", other, "carol")

	// other gives up carol and lands on the name alice already holds
	p := e.Join("R1", other, "alice")
	assert.Equal(t, alice, p.ConnectionID)
	assert.Equal(t, []string{"alice"}, e.MemberNames("R1"))

	_, ok := e.LeaveRoom(other)
	assert.False(t, ok, "a connection that was not bound is not a member")

	dep, ok := e.LeaveRoom(alice)
	require.True(t, ok)
	assert.Equal(t, "alice", dep.Name)
	assert.Equal(t, 0, dep.Remaining)
}

func TestMembersOfUnknownRoom(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.MembersOf("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, e.MemberNames("nope"))
	assert.NotNil(t, e.MemberNames("nope"))
}

func TestAllReadyIsHeadcount(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Join("R1", uuid.New(), "alice")
	e.Join("R1", uuid.New(), "bob")

	assert.False(t, e.AllReady("R1", 3))
	assert.True(t, e.AllReady("R1", 2))
	assert.False(t, e.AllReady("unknown", 0))
}

func TestUsersInTurnExcludesName(t *testing.T) {
	e := newTestEngine(t, nil)
	seatRoom(t, e, "R1", seat{"alice", models.TeamOne}, seat{"bob", models.TeamTwo}, seat{"carol", models.TeamOne})

	others, err := e.UsersInTurn("R1", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, models.Names(others))
}

func TestDeleteRoomDropsEverything(t *testing.T) {
	e := newTestEngine(t, nil)
	conns := seatRoom(t, e, "R1", seat{"alice", models.TeamOne}, seat{"bob", models.TeamTwo})
	_, err := e.BuildSequence("R1")
	require.NoError(t, err)

	e.DeleteRoom("R1")

	assert.Equal(t, 0, e.RoomCount())
	_, err = e.CurrentActor("R1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := e.LeaveRoom(conns["alice"])
	assert.False(t, ok)
}

func TestCreateRoom(t *testing.T) {
	store := newFakeRoomStore()
	e := newTestEngine(t, store)

	roomID, err := e.CreateRoom(context.Background(), "friday", "alice")
	require.NoError(t, err)
	require.Len(t, roomID, 5)
	for _, c := range roomID {
		assert.True(t, strings.ContainsRune(roomIDAlphabet, c), "unexpected symbol %q", c)
	}

	rec, err := store.FindRoomByID(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, "friday", rec.Name)
	assert.Equal(t, "alice", rec.Owner)
}

func TestCreateRoomRetriesOnCollision(t *testing.T) {
	store := newFakeRoomStore()
	store.takenLookups = 2
	e := newTestEngine(t, store, WithRoomIDAttempts(3))

	roomID, err := e.CreateRoom(context.Background(), "friday", "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, store.lookups)
	assert.Contains(t, store.rooms, roomID)
}

func TestCreateRoomGivesUpWithConflict(t *testing.T) {
	store := newFakeRoomStore()
	store.takenLookups = 10
	e := newTestEngine(t, store, WithRoomIDAttempts(3))

	_, err := e.CreateRoom(context.Background(), "friday", "alice")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, store.rooms)
}
