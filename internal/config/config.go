package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	HTTPPort    string

	// Broker
	KafkaBrokers    []string
	ConsumerGroup   string        // prefijo de los group IDs de los consumidores
	Prefetch        int           // entregas en vuelo como máximo
	MaxRedeliveries int           // reintentos antes de dead-letter
	ConfirmTimeout  time.Duration // espera máxima del confirm del broker

	// Stores
	SQLitePath     string
	PostgresDSN    string
	UsePostgres    bool
	MongoURI       string
	UseMongoOutbox bool
	RedisAddr      string
	CacheTTL       time.Duration
	ClickHouseAddr string

	// Recovery log (outbox) y reintentos de facturas
	OutboxPeriod  time.Duration
	OutboxLimit   int
	InvoiceSweep  time.Duration
	MaxRetryCount int
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func LoadConfig() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "eventshop"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "eventshop"),
		Prefetch:        getEnvInt("CONSUMER_PREFETCH", 16),
		MaxRedeliveries: getEnvInt("MAX_REDELIVERIES", 5),
		ConfirmTimeout:  time.Duration(getEnvInt("CONFIRM_TIMEOUT_SECS", 5)) * time.Second,

		SQLitePath:     getEnv("SQLITE_PATH", "./eventshop.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		UsePostgres:    getEnvBool("USE_POSTGRES", false),
		MongoURI:       getEnv("MONGO_URI", ""),
		UseMongoOutbox: getEnvBool("USE_MONGO_OUTBOX", false),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:       5 * time.Minute,
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),

		OutboxPeriod:  time.Duration(getEnvInt("OUTBOX_PERIOD_SECS", 2)) * time.Second,
		OutboxLimit:   getEnvInt("OUTBOX_LIMIT", 20),
		InvoiceSweep:  time.Duration(getEnvInt("INVOICE_SWEEP_SECS", 30)) * time.Second,
		MaxRetryCount: getEnvInt("MAX_RETRY_COUNT", 3),
	}
}
