package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "carbonledger.audit", cfg.AuditTopic)
	assert.Equal(t, 1990, cfg.MinVintageYear)
	assert.Equal(t, 1, cfg.MaxVintageYearsAhead)
	assert.Equal(t, 30*time.Second, cfg.BalanceCacheTTL)
	assert.Equal(t, 1024, cfg.AuditInboxSize)
	assert.False(t, cfg.AuthEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CARBONLEDGER_ADDR", ":9191")
	t.Setenv("CARBONLEDGER_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("CARBONLEDGER_JWT_SIGNING_KEY", "secret")
	t.Setenv("CARBONLEDGER_MIN_VINTAGE_YEAR", "2000")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2000, cfg.MinVintageYear)
	assert.True(t, cfg.AuthEnabled())
}
