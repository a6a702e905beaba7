package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the composition root needs to wire the
// compliance pipeline. FromEnv keeps main lean; every knob has a default so a
// bare process starts with in-memory collaborators.
type Config struct {
	Server   ServerConfig
	Audit    AuditConfig
	Scanner  ScannerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Webhook  WebhookConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// AuditConfig controls the batching audit writer.
type AuditConfig struct {
	FlushInterval time.Duration
	HighWaterMark int
	QueueCap      int
	DrainTimeout  time.Duration
}

// ScannerConfig controls the breach-deadline scanner.
type ScannerConfig struct {
	Interval      time.Duration
	WarningWindow time.Duration
}

// PostgresConfig holds the durable store connection. Empty DSN means the
// in-memory stores are used instead.
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds the connection for the durable notification deduper.
// Empty URL means the process-local deduper is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the optional audit mirror sink. Empty brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// WebhookConfig holds the notification delivery endpoint. Empty URL falls back
// to the logging dispatcher.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:            getenv("FINBOOKS_ADDR", ":8080"),
			ShutdownTimeout: getduration("FINBOOKS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Audit: AuditConfig{
			FlushInterval: getduration("AUDIT_FLUSH_INTERVAL", 5*time.Second),
			HighWaterMark: getint("AUDIT_HIGH_WATER_MARK", 10),
			QueueCap:      getint("AUDIT_QUEUE_CAP", 10000),
			DrainTimeout:  getduration("AUDIT_DRAIN_TIMEOUT", 5*time.Second),
		},
		Scanner: ScannerConfig{
			Interval:      getduration("DEADLINE_SCAN_INTERVAL", 30*time.Minute),
			WarningWindow: getduration("DEADLINE_WARNING_WINDOW", 24*time.Hour),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getint("REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_AUDIT_TOPIC", "finbooks.audit"),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("NOTIFY_WEBHOOK_URL"),
			Timeout: getduration("NOTIFY_WEBHOOK_TIMEOUT", 30*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
