package config

import (
	"os"
	"strings"
	"time"
)

// CatalogTTL enforces retention for cached archive metadata. Short by
// design: a supersession must become visible quickly.
var CatalogTTL = 5 * time.Minute

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr          string
	ArchiveRoot   string
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
}

// RedisConfig holds catalog cache settings. An empty URL disables Redis and
// the catalog falls back to memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds provenance stream settings. Empty brokers disable the
// stream; the postgres store remains the source of truth either way.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("KYC_VAULT_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	root := os.Getenv("KYC_VAULT_ARCHIVE_ROOT")
	if root == "" {
		root = "."
	}

	topic := os.Getenv("KYC_VAULT_KAFKA_TOPIC")
	if topic == "" {
		topic = "kycvault.provenance"
	}
	var brokers []string
	if raw := os.Getenv("KYC_VAULT_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	jwtSigningKey := os.Getenv("KYC_VAULT_JWT_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden wherever real survey
		// data is registered.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:        addr,
		ArchiveRoot: root,
		PostgresDSN: os.Getenv("KYC_VAULT_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("KYC_VAULT_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		JWTSigningKey: jwtSigningKey,
	}
}
