package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Engine   EngineConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
	// LockTTL bounds how long a card/order pair stays locked while a
	// promotion batch is running against it.
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	Enabled  bool
	MockMode bool
	Topics   TopicConfig
}

type TopicConfig struct {
	OrderCreated      string
	PromotionApplied  string
	CardPointsChanged string
}

type EngineConfig struct {
	// CriteriaOnWorkingState flips criterion evaluation from the originally
	// loaded card/order to the running working state of the batch. Default
	// false: criteria gate on persisted state only.
	CriteriaOnWorkingState bool
}

type AuthConfig struct {
	QRSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "loyalty_user"),
			Password:     getEnv("DB_PASSWORD", "loyalty_pass"),
			Database:     getEnv("DB_NAME", "loyalty"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			LockTTL: time.Duration(getEnvInt("AKCE_LOCK_TTL_SECONDS", 30)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled:  getEnvBool("KAFKA_ENABLED", true),
			MockMode: getEnvBool("KAFKA_MOCK_MODE", false),
			Topics: TopicConfig{
				OrderCreated:      getEnv("KAFKA_TOPIC_ORDER_CREATED", "order-created"),
				PromotionApplied:  getEnv("KAFKA_TOPIC_PROMOTION_APPLIED", "promotion-applied"),
				CardPointsChanged: getEnv("KAFKA_TOPIC_CARD_POINTS_CHANGED", "card-points-changed"),
			},
		},
		Engine: EngineConfig{
			CriteriaOnWorkingState: getEnvBool("EVALUATE_ON_WORKING_STATE", false),
		},
		Auth: AuthConfig{
			QRSecret: getEnv("CARD_QR_SECRET", "dev-card-qr-secret"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
