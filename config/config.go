package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	StoreBackend string
	RunStorePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	DefaultTopK          int
	MaxPoolSize          int
	ScoringWorkers       int
	LegacyOriginDistance bool

	ValuationStrategy string
	IQRMultiplier     float64
	HedonicBlend      float64

	AuditQueryLimit int
}

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		RunStorePath: getEnv("RUN_STORE_PATH", "./data/ingestion_runs.jsonl"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "valuation"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "valuation123"),
		PostgresDB:       getEnv("POSTGRES_DB", "valuation_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 5),

		DefaultTopK:          getEnvInt("DEFAULT_TOP_K", 10),
		MaxPoolSize:          getEnvInt("MAX_POOL_SIZE", 1000),
		ScoringWorkers:       getEnvInt("SCORING_WORKERS", 4),
		LegacyOriginDistance: getEnvBool("LEGACY_ORIGIN_DISTANCE", false),

		ValuationStrategy: getEnv("VALUATION_STRATEGY", "weighted-mean"),
		IQRMultiplier:     getEnvFloat("VALUATION_IQR_MULTIPLIER", 1.5),
		HedonicBlend:      getEnvFloat("VALUATION_HEDONIC_BLEND", 0.55),

		AuditQueryLimit: getEnvInt("AUDIT_QUERY_LIMIT", 500),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] %s=%q is not an integer, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
		log.Printf("[config] %s=%q is not a number, using %g", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("[config] %s=%q is not a boolean, using %t", key, val, fallback)
	}
	return fallback
}
