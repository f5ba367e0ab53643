package handlers

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/auth"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/hub"
	"github.com/jason-s-yu/taboo/internal/memstore"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

// mockBroadcaster collects packets instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	direct map[uuid.UUID][]map[string]interface{}
	rooms  map[string][]map[string]interface{}
	subs   map[uuid.UUID]string
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		direct: make(map[uuid.UUID][]map[string]interface{}),
		rooms:  make(map[string][]map[string]interface{}),
		subs:   make(map[uuid.UUID]string),
	}
}

func (mb *mockBroadcaster) Register(*hub.Conn)       {}
func (mb *mockBroadcaster) Unregister(id uuid.UUID) { mb.Unsubscribe(id) }

func (mb *mockBroadcaster) Subscribe(roomID string, id uuid.UUID) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.subs[id] = roomID
}

func (mb *mockBroadcaster) Unsubscribe(id uuid.UUID) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	delete(mb.subs, id)
}

func (mb *mockBroadcaster) Send(id uuid.UUID, msg map[string]interface{}) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.direct[id] = append(mb.direct[id], msg)
	return true
}

func (mb *mockBroadcaster) Broadcast(roomID string, msg map[string]interface{}) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.rooms[roomID] = append(mb.rooms[roomID], msg)
	return 1
}

// sent returns the direct packets of id with the given type.
func (mb *mockBroadcaster) sent(id uuid.UUID, typ string) []map[string]interface{} {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return filterType(mb.direct[id], typ)
}

// broadcasted returns the room packets with the given type.
func (mb *mockBroadcaster) broadcasted(roomID, typ string) []map[string]interface{} {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return filterType(mb.rooms[roomID], typ)
}

func (mb *mockBroadcaster) subscription(id uuid.UUID) (string, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	roomID, ok := mb.subs[id]
	return roomID, ok
}

func filterType(msgs []map[string]interface{}, typ string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, m := range msgs {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

// failingWords is a deck whose lookups always fail.
type failingWords struct{}

func (failingWords) FindWordByID(context.Context, int) (*models.WordRecord, error) {
	return nil, errors.New("deck offline")
}

func (failingWords) CountWords(context.Context) (int, error) {
	return 0, errors.New("deck offline")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// cheapParams keeps argon2 fast in tests.
var cheapParams = &auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type testServer struct {
	*RoomServer
	mb    *mockBroadcaster
	store *memstore.Store
	now   time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		mb:    newMockBroadcaster(),
		store: memstore.New(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	ts.store.PutWords(
		models.WordRecord{ID: 0, Guess: "APPLE", Forbidden: []string{"fruit", "tree"}},
		models.WordRecord{ID: 1, Guess: "MOON", Forbidden: []string{"night"}},
	)

	eng := engine.New(ts.store,
		engine.WithLogger(quietLogger()),
		engine.WithRand(rand.New(rand.NewPCG(7, 11))),
		engine.WithClock(func() time.Time { return ts.now }),
	)
	t.Cleanup(eng.Shutdown)

	sessions, err := auth.NewSessions(time.Hour)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	accounts := auth.NewAccounts(ts.store, sessions, cheapParams)

	ts.RoomServer = NewRoomServer(eng, ts.store, ts.store, accounts, ts.mb, quietLogger(), DefaultConfig())
	return ts
}

func teamPtr(t models.Team) *models.Team { return &t }

type player struct {
	name string
	team models.Team
	conn uuid.UUID
}

// seat joins players to roomID with their teams and returns them by name.
func (ts *testServer) seat(roomID string, specs ...player) map[string]player {
	out := make(map[string]player, len(specs))
	for _, p := range specs {
		p.conn = uuid.New()
		ts.HandleMessage(context.Background(), p.conn, Packet{Type: "join_with_team", RoomID: roomID, Name: p.name, Team: teamPtr(p.team)})
		out[p.name] = p
	}
	return out
}
