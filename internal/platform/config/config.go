package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	Redis RedisConfig
	Kafka KafkaConfig

	// ExpiringWindow is how close to expiry a grant must be before it is
	// flagged "expiring" by the status sweep.
	ExpiringWindow time.Duration
	// RenewalExtension is how far a renewal pushes the expiry date out.
	RenewalExtension time.Duration
	// SweepInterval is how often the background status sweep runs.
	SweepInterval time.Duration

	// PageSize is the dashboard table page size.
	PageSize int

	// RateLimit is the per-client request budget per minute. Zero disables
	// throttling.
	RateLimit int

	// SeedDemoData loads sample users and consent records into the memory
	// store at startup. Ignored when a database URL is configured.
	SeedDemoData bool
}

// RedisConfig holds the optional stats-cache connection settings.
type RedisConfig struct {
	URL          string
	StatsTTL     time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the optional audit-mirror settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("CONSENTDESK_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("CONSENTDESK_DATABASE_URL"),
		JWTSigningKey:    envOr("CONSENTDESK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ExpiringWindow:   envDuration("CONSENTDESK_EXPIRING_WINDOW", 7*24*time.Hour),
		RenewalExtension: envDuration("CONSENTDESK_RENEWAL_EXTENSION", 30*24*time.Hour),
		SweepInterval:    envDuration("CONSENTDESK_SWEEP_INTERVAL", time.Minute),
		PageSize:         envInt("CONSENTDESK_PAGE_SIZE", 10),
		RateLimit:        envInt("CONSENTDESK_RATE_LIMIT", 300),
		SeedDemoData:     os.Getenv("CONSENTDESK_SEED_DEMO_DATA") != "false",
		Redis: RedisConfig{
			URL:          os.Getenv("CONSENTDESK_REDIS_URL"),
			StatsTTL:     envDuration("CONSENTDESK_STATS_CACHE_TTL", 15*time.Second),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if os.Getenv("CONSENTDESK_RATE_LIMIT") == "0" {
		cfg.RateLimit = 0
	}
	if brokers := os.Getenv("CONSENTDESK_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka = KafkaConfig{
			Brokers: splitBrokers(brokers),
			Topic:   envOr("CONSENTDESK_KAFKA_TOPIC", "consentdesk.audit"),
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
