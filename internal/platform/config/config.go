package config

import (
	"os"
	"strings"
	"time"
)

// Engine captures process level configuration for the stall engine daemon.
type Engine struct {
	// Addr is the HTTP listen address (command API plus healthz/metrics).
	Addr string

	// PostgresDSN enables the postgres-backed stores when non-empty;
	// otherwise the daemon runs on in-memory stores.
	PostgresDSN string

	// RedisURL enables the redis seller-refresh broadcaster when non-empty.
	RedisURL string

	// KafkaBrokers enables the domain-event relay when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Rent schedule knobs. These are engine constants, not per-stall state.
	RentInterval time.Duration
	GracePeriod  time.Duration
	TickInterval time.Duration
}

// RedisConfig tunes the shared redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds an Engine config from environment variables so main stays lean.
func FromEnv() Engine {
	cfg := Engine{
		Addr:         getenv("STALLWORKS_ADDR", ":8090"),
		PostgresDSN:  os.Getenv("STALLWORKS_POSTGRES_DSN"),
		RedisURL:     os.Getenv("STALLWORKS_REDIS_URL"),
		KafkaTopic:   getenv("STALLWORKS_KAFKA_TOPIC", "stallworks.events"),
		RentInterval: getduration("STALLWORKS_RENT_INTERVAL", 24*time.Hour),
		GracePeriod:  getduration("STALLWORKS_GRACE_PERIOD", 72*time.Hour),
		TickInterval: getduration("STALLWORKS_TICK_INTERVAL", time.Minute),
	}
	if brokers := os.Getenv("STALLWORKS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// Redis returns the redis client settings derived from the engine config.
func (e Engine) Redis() RedisConfig {
	return RedisConfig{
		URL:          e.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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
