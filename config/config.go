package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"search-backend/domain"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Database    DatabaseConfig
	Meilisearch MeilisearchConfig
	Search      SearchConfig
	HTTP        HTTPConfig
	Consumer    ConsumerConfig
}

type DatabaseConfig struct {
	URL     string
	Timeout time.Duration
}

type MeilisearchConfig struct {
	Host    string
	APIKey  string
	Timeout time.Duration
}

// SearchConfig parametrizes every sync and query decision of the core.
type SearchConfig struct {
	UpdateStrategy domain.UpdateStrategy
	UpdateDelta    domain.CalendarDelta
	SkipTypes      []string
	StopWords      []string
	// QueryLimit caps results per content type on each engine call.
	QueryLimit int64
	BatchSize  int
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// AdminToken guards the reindex trigger; empty disables it.
	AdminToken string
}

type ConsumerConfig struct {
	Enabled      bool
	RedisURL     string
	StreamKey    string
	GroupName    string
	ConsumerName string
}

const (
	defaultQueryLimit = int64(1000)
	defaultBatchSize  = 200
)

// Load reads and validates the configuration. Strategy and delta errors
// surface as domain.ConfigError and are fatal at startup, before any sync
// pass can run with a broken window.
func Load() (*Config, error) {
	strategy, err := domain.ParseUpdateStrategy(getEnvOrDefault("UPDATE_STRATEGY", "soft"))
	if err != nil {
		return nil, err
	}

	delta, err := parseUpdateDelta(getEnvOrDefault("UPDATE_DELTA", ""))
	if err != nil {
		return nil, err
	}

	queryLimit := defaultQueryLimit
	if v := os.Getenv("QUERY_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, &domain.ConfigError{Setting: "QUERY_LIMIT", Reason: "must be a positive integer"}
		}
		queryLimit = n
	}

	batchSize := defaultBatchSize
	if v := os.Getenv("SYNC_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, &domain.ConfigError{Setting: "SYNC_BATCH_SIZE", Reason: "must be a positive integer"}
		}
		batchSize = n
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			Timeout: 10 * time.Second,
		},
		Meilisearch: MeilisearchConfig{
			Host:    getEnvRequired("MEILISEARCH_HOST"),
			APIKey:  getEnvOrDefault("MEILISEARCH_API_KEY", ""),
			Timeout: 15 * time.Second,
		},
		Search: SearchConfig{
			UpdateStrategy: strategy,
			UpdateDelta:    delta,
			SkipTypes:      splitList(os.Getenv("SKIP_MODELS")),
			StopWords:      splitList(os.Getenv("STOP_WORDS")),
			QueryLimit:     queryLimit,
			BatchSize:      batchSize,
		},
		HTTP: HTTPConfig{
			Addr:              getEnvOrDefault("HTTP_ADDR", ":9300"),
			ReadHeaderTimeout: 5 * time.Second,
			AdminToken:        getEnvOrDefault("ADMIN_TOKEN", ""),
		},
		Consumer: ConsumerConfig{
			Enabled:      getEnvOrDefault("CONSUMER_ENABLED", "false") == "true",
			RedisURL:     getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
			StreamKey:    getEnvOrDefault("CONSUMER_STREAM", "content-events"),
			GroupName:    getEnvOrDefault("CONSUMER_GROUP", "search-backend"),
			ConsumerName: getEnvOrDefault("CONSUMER_NAME", "search-backend-1"),
		},
	}

	return cfg, nil
}

// parseUpdateDelta parses a calendar offset of the form
// "weeks=-1,days=-2". Unknown units are a ConfigError; negativity of the
// overall offset is enforced by the strategy engine.
func parseUpdateDelta(raw string) (domain.CalendarDelta, error) {
	var delta domain.CalendarDelta
	if raw == "" {
		return delta, nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		unit, value, found := strings.Cut(part, "=")
		if !found {
			return delta, &domain.ConfigError{Setting: "UPDATE_DELTA", Reason: fmt.Sprintf("malformed entry %q", part)}
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return delta, &domain.ConfigError{Setting: "UPDATE_DELTA", Reason: fmt.Sprintf("malformed entry %q", part)}
		}
		switch strings.TrimSpace(unit) {
		case "years":
			delta.Years = n
		case "months":
			delta.Months = n
		case "weeks":
			delta.Weeks = n
		case "days":
			delta.Days = n
		default:
			return delta, &domain.ConfigError{Setting: "UPDATE_DELTA", Reason: "unknown unit " + unit}
		}
	}
	return delta, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvRequired(key string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
