package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Audit.FlushInterval)
	assert.Equal(t, 10, cfg.Audit.HighWaterMark)
	assert.Equal(t, 10000, cfg.Audit.QueueCap)
	assert.Equal(t, 30*time.Minute, cfg.Scanner.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Scanner.WarningWindow)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "finbooks.audit", cfg.Kafka.Topic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FINBOOKS_ADDR", ":9090")
	t.Setenv("AUDIT_FLUSH_INTERVAL", "2s")
	t.Setenv("AUDIT_HIGH_WATER_MARK", "50")
	t.Setenv("DEADLINE_SCAN_INTERVAL", "5m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Audit.FlushInterval)
	assert.Equal(t, 50, cfg.Audit.HighWaterMark)
	assert.Equal(t, 5*time.Minute, cfg.Scanner.Interval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("AUDIT_HIGH_WATER_MARK", "lots")
	t.Setenv("AUDIT_FLUSH_INTERVAL", "soon")

	cfg := FromEnv()

	assert.Equal(t, 10, cfg.Audit.HighWaterMark)
	assert.Equal(t, 5*time.Second, cfg.Audit.FlushInterval)
}
