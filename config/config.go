package config

import (
	"errors"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL is returned by Load when no connection string is set.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	FrontendDir string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty Addr disables checkout idempotency.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

// KafkaConfig is optional; no brokers disables event publishing.
type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	rawURL := getEnv("DATABASE_URL", os.Getenv("SUPABASE_DB_URL"))
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrMissingDatabaseURL
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxOpen, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	lifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		lifetime = 5 * time.Minute
	}
	idemTTL, err := time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		idemTTL = 24 * time.Hour
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Env:         getEnv("ENV", "development"),
			FrontendDir: getEnv("FRONTEND_DIR", "frontend/dist"),
		},
		Database: DatabaseConfig{
			URL:             NormalizeDatabaseURL(rawURL),
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: lifetime,
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", ""),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             redisDB,
			IdempotencyTTL: idemTTL,
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "")),
			TopicEvents: getEnv("KAFKA_TOPIC_POS_EVENTS", "pos-events"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg, nil
}

// NormalizeDatabaseURL accepts a postgres URL or a lib/pq key=value list and
// makes sure sslmode is set, defaulting to "require". Driver suffixes on the
// scheme such as "postgresql+psycopg" are stripped.
func NormalizeDatabaseURL(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), "\"'")
	if s == "" {
		return s
	}

	if !strings.Contains(s, "://") {
		if !strings.Contains(strings.ToLower(s), "sslmode=") {
			s = strings.Join(strings.Fields(s), " ") + " sslmode=require"
		}
		return s
	}

	u, err := url.Parse(s)
	if err != nil {
		// let the driver report the malformed URL
		return s
	}

	scheme, _, _ := strings.Cut(u.Scheme, "+")
	if scheme == "" {
		scheme = "postgresql"
	}
	u.Scheme = scheme

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
