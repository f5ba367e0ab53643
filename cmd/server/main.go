// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/taboo/internal/auth"
	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/jason-s-yu/taboo/internal/config"
	"github.com/jason-s-yu/taboo/internal/database"
	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/handlers"
	"github.com/jason-s-yu/taboo/internal/hub"
	"github.com/jason-s-yu/taboo/internal/memstore"
	"github.com/jason-s-yu/taboo/internal/mongostore"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// stores is the persistence backend selected by STORE_DRIVER.
type stores struct {
	rooms engine.RoomStore
	words handlers.WordStore
	users auth.UserStore
	close func()
}

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer st.close()

	words := st.words
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		words = cache.NewWordCache(rdb, st.words, cfg.WordCacheTTL, logger)
		logger.Infof("Word cache enabled at %s", cfg.RedisAddr)
	}

	sessions, err := auth.NewSessions(cfg.TokenExpire)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}
	accounts := auth.NewAccounts(st.users, sessions, auth.DefaultParams)

	eng := engine.New(st.rooms,
		engine.WithLogger(logger),
		engine.WithCooldown(cfg.TurnCooldown),
		engine.WithRoomIDAttempts(cfg.RoomIDAttempts),
	)
	defer eng.Shutdown()

	srv := handlers.NewRoomServer(eng, st.rooms, words, accounts, hub.New(logger), logger, handlers.Config{
		CountdownSeconds:  cfg.CountdownSeconds,
		WordsInDB:         cfg.WordsInDB,
		WordFetchTimeout:  cfg.WordFetchTimeout,
		MessagesPerSecond: cfg.WSMessagesPerSecond,
		Burst:             cfg.WSBurst,
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s (store: %s)", httpServer.Addr, cfg.StoreDriver)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		logger.Infof("Connected to MongoDB database %s", cfg.MongoDB)
		return &stores{rooms: s, words: s, users: s, close: func() { _ = s.Close(context.Background()) }}, nil
	case config.DriverMemory:
		s := memstore.New()
		logger.Warn("Using in-memory store, nothing is persisted")
		return &stores{rooms: s, words: s, users: s, close: func() {}}, nil
	default:
		s, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Postgres")
		return &stores{rooms: s, words: s, users: s, close: s.Close}, nil
	}
}
