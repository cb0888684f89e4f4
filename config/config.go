// Package config loads environment-driven settings for the exchange
// process.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every knob the process reads at startup.
type Config struct {
	Core   CoreConfig   `envPrefix:"CORE_"`
	Kafka  KafkaConfig  `envPrefix:"KAFKA_"`
	Redis  RedisConfig  `envPrefix:"REDIS_"`
	Outbox OutboxConfig `envPrefix:"OUTBOX_"`
}

// CoreConfig tunes the trading loop.
type CoreConfig struct {
	MaxUsers         int           `env:"MAX_USERS" envDefault:"100000"`
	MaxSymbols       int           `env:"MAX_SYMBOLS" envDefault:"64"`
	QueueCapacity    int           `env:"QUEUE_CAPACITY" envDefault:"65536"`
	OrderBatch       int           `env:"ORDER_BATCH" envDefault:"1000"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	DepthLevels      int           `env:"DEPTH_LEVELS" envDefault:"20"`
	ReportInterval   time.Duration `env:"REPORT_INTERVAL" envDefault:"2s"`
}

// KafkaConfig covers both the event broadcast and the delta stream.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envDefault:"localhost:9092"`
	EventTopic string   `env:"EVENT_TOPIC" envDefault:"order-events"`
	DeltaTopic string   `env:"DELTA_TOPIC" envDefault:"ledger-deltas"`
}

// RedisConfig points at the market-data pub/sub endpoint.
type RedisConfig struct {
	Address  string `env:"ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// OutboxConfig locates the pebble outbox and its replay cadence.
type OutboxConfig struct {
	Dir            string        `env:"DIR" envDefault:"data/outbox"`
	ReplayInterval time.Duration `env:"REPLAY_INTERVAL" envDefault:"250ms"`
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load for main functions that cannot continue without it.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
