package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer string // Required: issuer claim for tokens

	Algorithm string // Optional: JWT signing algorithm (RS256, ES256, EdDSA) (default: EdDSA)
	RSABits   int    // Optional: RSA key size for RS256 (default: 4096)
	NumKeys   int    // Optional: number of signing keys to generate (default: 1, max: 10)

	StoreDriver  string // Store driver (memory, sqlite) (default: sqlite)
	DatabaseFile string // Optional: path to SQLite database file (default: ./machauth.db)
	PepperFile   string // Optional: path to file containing pepper for secret hashing (default: ./pepper)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	// Seed client registered at startup when all three of ClientID,
	// ClientSecret and ClientScopes are set. ClientsFile points at a JSON
	// file registering any number of additional clients.
	ClientID       string
	ClientSecret   string
	ClientScopes   string
	ClientTokenTTL time.Duration
	ClientsFile    string
}

func LoadConfig() Config {
	// A local .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:              os.Getenv("MACHAUTH_ISSUER"),
		Algorithm:           getEnvOrDefault("MACHAUTH_ALGORITHM", "EdDSA"),
		StoreDriver:         getEnvOrDefault("MACHAUTH_STORE_DRIVER", "sqlite"),
		DatabaseFile:        getEnvOrDefault("MACHAUTH_DATABASE_FILE", "machauth.db"),
		PepperFile:          getEnvOrDefault("MACHAUTH_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		ClientID:       os.Getenv("MACHAUTH_CLIENT_ID"),
		ClientSecret:   os.Getenv("MACHAUTH_CLIENT_SECRET"),
		ClientScopes:   os.Getenv("MACHAUTH_CLIENT_SCOPES"),
		ClientTokenTTL: getEnvDurationOrDefault("MACHAUTH_CLIENT_TOKEN_TTL", time.Hour),
		ClientsFile:    os.Getenv("MACHAUTH_CLIENTS_FILE"),
	}

	cfg.RSABits = getEnvIntOrDefault("MACHAUTH_RSA_BITS", 0)
	cfg.NumKeys = getEnvIntOrDefault("MACHAUTH_NUM_KEYS", 0)

	if cfg.Issuer == "" {
		cfg.Issuer = "machauth"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are read as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
