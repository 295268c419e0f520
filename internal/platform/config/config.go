package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config groups all runtime configuration so main stays lean.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Decision DecisionConfig
	Auth     AuthConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// PostgresConfig configures the durable document stores. Empty DSN means the
// in-memory stores are used (dev / unit-test wiring).
type PostgresConfig struct {
	DSN string
}

// RedisConfig configures the scratch key/value store backing the draft cache.
// Empty URL means the in-process store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the compliance audit stream. Empty brokers disable
// the publisher; audit events still flow to the local store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// DecisionConfig locates the external eligibility decision service.
type DecisionConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds token validation settings.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	// ProvisioningGrace is how long after account creation a missing profile
	// document is treated as "still being provisioned" rather than an
	// integrity error.
	ProvisioningGrace time.Duration
}

// FromEnv builds the Config from environment variables with dev defaults.
func FromEnv() Config {
	cfg := Config{
		Server: ServerConfig{
			Addr:            getenv("RELIEF_ADDR", ":8080"),
			ShutdownTimeout: getduration("RELIEF_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("RELIEF_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("RELIEF_REDIS_URL"),
			PoolSize:     getint("RELIEF_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("RELIEF_REDIS_MIN_IDLE", 2),
			DialTimeout:  getduration("RELIEF_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("RELIEF_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("RELIEF_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: getenv("RELIEF_AUDIT_TOPIC", "relief.audit.compliance"),
		},
		Decision: DecisionConfig{
			BaseURL: getenv("RELIEF_DECISION_URL", "http://localhost:9090"),
			Timeout: getduration("RELIEF_DECISION_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			// Dev default; override in production.
			JWTSigningKey:     getenv("RELIEF_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:            getenv("RELIEF_JWT_ISSUER", "relief"),
			Audience:          getenv("RELIEF_JWT_AUDIENCE", "relief-portal"),
			ProvisioningGrace: getduration("RELIEF_PROVISIONING_GRACE", 10*time.Second),
		},
	}
	if brokers := os.Getenv("RELIEF_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
