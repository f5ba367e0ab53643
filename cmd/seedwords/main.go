// cmd/seedwords/main.go loads a word deck from a JSON file into the configured store
// and drops any cached copies of the written cards.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/jason-s-yu/taboo/internal/config"
	"github.com/jason-s-yu/taboo/internal/database"
	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/jason-s-yu/taboo/internal/mongostore"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// deckWriter is implemented by the persistent stores.
type deckWriter interface {
	PutWords(ctx context.Context, words ...models.WordRecord) error
}

func main() {
	path := flag.String("deck", "words.json", "path to a JSON array of {id, guess, forbidden}")
	batchSize := flag.Int("batch", 100, "cards written per round trip")
	flag.Parse()

	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatalf("open deck: %v", err)
	}
	deck, err := loadDeck(f)
	f.Close()
	if err != nil {
		logger.Fatalf("deck %s: %v", *path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var w deckWriter
	switch cfg.StoreDriver {
	case config.DriverMongo:
		s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatalf("mongo: %v", err)
		}
		defer s.Close(context.Background())
		w = s
	case config.DriverPostgres:
		s, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("postgres: %v", err)
		}
		defer s.Close()
		w = s
	default:
		logger.Fatalf("store driver %q keeps nothing to seed", cfg.StoreDriver)
	}

	written, err := writeBatches(ctx, w, deck, *batchSize)
	if err != nil {
		logger.Fatalf("after %d cards: %v", written, err)
	}
	logger.Infof("Seeded %d cards into %s", written, cfg.StoreDriver)

	if cfg.RedisAddr == "" {
		return
	}
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Warnf("redis unavailable, cached cards may be stale until they expire: %v", err)
		return
	}
	defer rdb.Close()
	ids := make([]int, len(deck))
	for i, rec := range deck {
		ids[i] = rec.ID
	}
	if err := cache.NewWordCache(rdb, nil, cfg.WordCacheTTL, logger).Invalidate(ctx, ids...); err != nil {
		logger.Warnf("invalidate cache: %v", err)
	}
}

// loadDeck decodes and validates a deck. Ids must be unique and non-negative
// and every card needs a guess word.
func loadDeck(r io.Reader) ([]models.WordRecord, error) {
	var deck []models.WordRecord
	if err := json.NewDecoder(r).Decode(&deck); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	seen := make(map[int]bool, len(deck))
	for i := range deck {
		rec := &deck[i]
		rec.Guess = strings.TrimSpace(rec.Guess)
		if rec.ID < 0 {
			return nil, fmt.Errorf("card %d: negative id %d", i, rec.ID)
		}
		if rec.Guess == "" {
			return nil, fmt.Errorf("card %d: empty guess", rec.ID)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("card %d: duplicate id", rec.ID)
		}
		seen[rec.ID] = true
		if rec.Forbidden == nil {
			rec.Forbidden = []string{}
		}
	}
	return deck, nil
}

// writeBatches writes the deck in chunks and reports how many cards landed.
func writeBatches(ctx context.Context, w deckWriter, deck []models.WordRecord, size int) (int, error) {
	if size <= 0 {
		size = len(deck)
	}
	written := 0
	for start := 0; start < len(deck); start += size {
		end := min(start+size, len(deck))
		if err := w.PutWords(ctx, deck[start:end]...); err != nil {
			return written, err
		}
		written = end
	}
	return written, nil
}
