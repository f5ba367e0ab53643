// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port     string
	LogLevel string

	StoreDriver string
	DatabaseURL string
	MongoURI    string
	MongoDB     string

	RedisAddr    string
	RedisDB      int
	WordCacheTTL time.Duration

	TokenExpire time.Duration

	TurnCooldown     time.Duration
	CountdownSeconds int
	WordsInDB        int
	WordFetchTimeout time.Duration
	RoomIDAttempts   int

	WSMessagesPerSecond float64
	WSBurst             int
	AllowedOrigins      []string
}

// Load reads the configuration. Unparseable numbers fall back to their defaults;
// an unknown store driver is an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL: postgresURL(),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "taboo"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		WordCacheTTL: getEnvDuration("WORD_CACHE_TTL", 10*time.Minute),

		TokenExpire: getEnvDuration("TOKEN_EXPIRE_TIME", 0),

		TurnCooldown:     getEnvDuration("TURN_COOLDOWN", 60*time.Second),
		CountdownSeconds: getEnvInt("COUNTDOWN_SECONDS", 5),
		WordsInDB:        getEnvInt("WORDS_IN_DB", 31),
		WordFetchTimeout: getEnvDuration("WORD_FETCH_TIMEOUT", 5*time.Second),
		RoomIDAttempts:   getEnvInt("ROOM_ID_ATTEMPTS", 5),

		WSMessagesPerSecond: getEnvFloat("WS_MESSAGES_PER_SECOND", 10),
		WSBurst:             getEnvInt("WS_BURST", 20),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", []string{"https://*", "http://*"}),
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.WordsInDB <= 0 {
		return nil, fmt.Errorf("WORDS_IN_DB must be positive, got %d", cfg.WordsInDB)
	}
	return cfg, nil
}

// postgresURL prefers DATABASE_URL and otherwise assembles one from the
// POSTGRES_* and PG_* variables.
func postgresURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getEnv("POSTGRES_USER", "postgres"),
		os.Getenv("POSTGRES_PASSWORD"),
		getEnv("PG_HOST", "localhost"),
		getEnv("PG_PORT", "5432"),
		getEnv("PG_DATABASE", "taboo"),
	)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string, def []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// getEnvDuration accepts Go durations ("90s") and bare integers as seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
