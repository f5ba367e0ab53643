// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when a room or its turn session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a room identifier cannot be allocated or a
	// round is already running.
	ErrConflict = errors.New("conflict")
	// ErrEmptySequence is returned when no member of a room has a team, so no
	// turn order can be built.
	ErrEmptySequence = errors.New("no participants assigned to a team")
)

const (
	// DefaultCooldown is the minimum interval between two effective turn advances.
	DefaultCooldown = 60 * time.Second
	// DefaultRoomIDAttempts bounds the retries when a generated room id collides.
	DefaultRoomIDAttempts = 5
)

// RoomStore persists room metadata. Implementations must translate a missing
// record into ErrNotFound.
type RoomStore interface {
	UpsertRoom(ctx context.Context, rec models.RoomRecord) error
	FindRoomByID(ctx context.Context, roomID string) (*models.RoomRecord, error)
	SaveTeams(ctx context.Context, roomID string, teamOne, teamTwo []string) error
}

// Engine owns every live room of the process together with the cooldown table.
// Each room is guarded by its own lock; mu only guards the tables themselves.
//
// Lock order is room -> engine. Never acquire a room lock while holding mu.
type Engine struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	index     map[uuid.UUID]string // connection -> room
	cooldowns map[string]*cooldownState

	store      RoomStore
	logger     *logrus.Logger
	now        func() time.Time
	cooldown   time.Duration
	idAttempts int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for engine events.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces the wall clock consulted by the cooldown gate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCooldown sets the minimum interval between effective turn advances.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.cooldown = d }
}

// WithRand sets the random source for team splits and room ids.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithRoomIDAttempts bounds how many identifiers CreateRoom tries.
func WithRoomIDAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.idAttempts = n
		}
	}
}

// New creates an engine backed by store. store may be nil when rooms are never
// created through CreateRoom (tests).
func New(store RoomStore, opts ...Option) *Engine {
	e := &Engine{
		rooms:      make(map[string]*Room),
		index:      make(map[uuid.UUID]string),
		cooldowns:  make(map[string]*cooldownState),
		store:      store,
		logger:     logrus.StandardLogger(),
		now:        time.Now,
		cooldown:   DefaultCooldown,
		idAttempts: DefaultRoomIDAttempts,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Shutdown drops every live room. Rooms handed out before the call are retired
// and reject further use.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	rooms := make([]*Room, 0, len(e.rooms))
	for _, r := range e.rooms {
		rooms = append(rooms, r)
	}
	e.rooms = make(map[string]*Room)
	e.index = make(map[uuid.UUID]string)
	e.cooldowns = make(map[string]*cooldownState)
	e.mu.Unlock()

	for _, r := range rooms {
		r.mu.Lock()
		r.retired = true
		r.mu.Unlock()
	}
	e.logger.Info("engine: shut down")
}

// RoomCount returns the number of live rooms.
func (e *Engine) RoomCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rooms)
}

func (e *Engine) intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.IntN(n)
}

func (e *Engine) lookup(roomID string, create bool) *Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rooms[roomID]
	if !ok && create {
		r = newRoom(roomID)
		e.rooms[roomID] = r
		e.logger.WithField("room", roomID).Debug("engine: room opened")
	}
	return r
}

// forget removes r from the tables if it is still the registered instance.
func (e *Engine) forget(r *Room) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.rooms[r.ID]; ok && cur == r {
		delete(e.rooms, r.ID)
		delete(e.cooldowns, r.ID)
		e.logger.WithField("room", r.ID).Debug("engine: room closed")
	}
}

// withRoom runs fn while holding the lock of roomID. When create is set the room
// is opened on demand. A room left without members and without a turn session
// is retired and dropped once fn returns.
func (e *Engine) withRoom(roomID string, create bool, fn func(r *Room) error) error {
	for {
		r := e.lookup(roomID, create)
		if r == nil {
			return roomNotFound(roomID)
		}
		r.mu.Lock()
		if r.retired {
			r.mu.Unlock()
			e.forget(r)
			continue
		}
		err := fn(r)
		idle := r.idleUnsafe()
		if idle {
			r.retired = true
		}
		r.mu.Unlock()
		if idle {
			e.forget(r)
		}
		return err
	}
}

// snapshot returns the rooms currently registered.
func (e *Engine) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.rooms))
	for id := range e.rooms {
		ids = append(ids, id)
	}
	return ids
}
