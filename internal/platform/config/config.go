// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs from its environment.
// DatabaseURL, RedisURL, and KafkaBrokers are optional: absent, the ledger
// runs on in-memory stores with no cache and an in-memory audit trail,
// which is the development and test setup.
type Config struct {
	Addr          string   `env:"CARBONLEDGER_ADDR" envDefault:":8080"`
	DatabaseURL   string   `env:"CARBONLEDGER_DATABASE_URL"`
	RedisURL      string   `env:"CARBONLEDGER_REDIS_URL"`
	KafkaBrokers  []string `env:"CARBONLEDGER_KAFKA_BROKERS" envSeparator:","`
	AuditTopic    string   `env:"CARBONLEDGER_AUDIT_TOPIC" envDefault:"carbonledger.audit"`
	JWTSigningKey string   `env:"CARBONLEDGER_JWT_SIGNING_KEY"`

	// Vintage policy: bounds on acceptable vintage years for issuance.
	// These are registry policy, not ledger invariants.
	MinVintageYear       int `env:"CARBONLEDGER_MIN_VINTAGE_YEAR" envDefault:"1990"`
	MaxVintageYearsAhead int `env:"CARBONLEDGER_MAX_VINTAGE_YEARS_AHEAD" envDefault:"1"`

	BalanceCacheTTL time.Duration `env:"CARBONLEDGER_BALANCE_CACHE_TTL" envDefault:"30s"`
	AuditInboxSize  int           `env:"CARBONLEDGER_AUDIT_INBOX_SIZE" envDefault:"1024"`
}

// FromEnv parses configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// AuthEnabled reports whether mutating endpoints require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSigningKey != ""
}
