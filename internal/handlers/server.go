// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/auth"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/hub"
	"github.com/jason-s-yu/taboo/internal/middleware"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/sirupsen/logrus"
)

// WordStore is the deck the server reveals words from.
type WordStore interface {
	FindWordByID(ctx context.Context, id int) (*models.WordRecord, error)
	CountWords(ctx context.Context) (int, error)
}

// Broadcaster delivers outbound packets. *hub.Hub is the production
// implementation.
type Broadcaster interface {
	Register(c *hub.Conn)
	Unregister(id uuid.UUID)
	Subscribe(roomID string, id uuid.UUID)
	Unsubscribe(id uuid.UUID)
	Send(id uuid.UUID, msg map[string]interface{}) bool
	Broadcast(roomID string, msg map[string]interface{}) int
}

// Config holds the tunables of the room server.
type Config struct {
	CountdownSeconds  int
	WordsInDB         int
	WordFetchTimeout  time.Duration
	MessagesPerSecond float64
	Burst             int
	AllowedOrigins    []string
}

// DefaultConfig mirrors the defaults of the environment configuration.
func DefaultConfig() Config {
	return Config{
		CountdownSeconds:  5,
		WordsInDB:         31,
		WordFetchTimeout:  5 * time.Second,
		MessagesPerSecond: 10,
		Burst:             20,
		AllowedOrigins:    []string{"https://*", "http://*"},
	}
}

// RoomServer binds the engine to the HTTP API and the room websocket.
type RoomServer struct {
	Engine   *engine.Engine
	Rooms    engine.RoomStore
	Words    WordStore
	Accounts *auth.Accounts
	Hub      Broadcaster

	logger *logrus.Logger
	cfg    Config

	// seed of the last ready signal per room while its round runs, used when
	// a departure completes a pending cohort
	seedMu sync.Mutex
	seeds  map[string]int
}

func NewRoomServer(eng *engine.Engine, rooms engine.RoomStore, words WordStore, accounts *auth.Accounts, b Broadcaster, logger *logrus.Logger, cfg Config) *RoomServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	def := DefaultConfig()
	if cfg.CountdownSeconds <= 0 {
		cfg.CountdownSeconds = def.CountdownSeconds
	}
	if cfg.WordsInDB <= 0 {
		cfg.WordsInDB = def.WordsInDB
	}
	if cfg.WordFetchTimeout <= 0 {
		cfg.WordFetchTimeout = def.WordFetchTimeout
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = def.MessagesPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
	return &RoomServer{
		Engine:   eng,
		Rooms:    rooms,
		Words:    words,
		Accounts: accounts,
		Hub:      b,
		logger:   logger,
		cfg:      cfg,
		seeds:    make(map[string]int),
	}
}

// Routes returns the HTTP surface of the service.
func (s *RoomServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.LogMiddleware(s.logger))

	r.Get("/", s.PingHandler)
	r.Get("/ws", s.RoomWSHandler)

	r.Route("/api", func(r chi.Router) {
		if s.Accounts != nil {
			r.Post("/auth/login", s.LoginHandler)
			r.Post("/auth/signup", s.SignupHandler)
			r.Post("/auth/verify", s.VerifyTokenHandler)
		}
		r.Post("/room", s.CreateRoomHandler)
		r.Post("/room/start", s.StartRoomHandler)
		r.Get("/room/{id}", s.FindRoomHandler)
		r.Get("/room/owner/{id}", s.RoomOwnerHandler)
	})

	return r
}

func (s *RoomServer) rememberSeed(roomID string, seed int) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	s.seeds[roomID] = seed
}

func (s *RoomServer) forgetSeed(roomID string) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	delete(s.seeds, roomID)
}

func (s *RoomServer) lastSeed(roomID string) int {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seeds[roomID]
}
