package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Engine EngineConfig
	Log    LogConfig
}

// ServerConfig configures the operator-facing control API server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	APIKey       string
}

// EngineConfig configures the routing-engine child process and the
// client that talks to its management API.
type EngineConfig struct {
	// BinaryPath is the engine executable, resolved via PATH when bare.
	BinaryPath string
	// PublicURL is the data-plane address clients connect to.
	PublicURL string
	// APIURL is the private management API address. Empty means an
	// ephemeral loopback port chosen at startup.
	APIURL string
	// LogLevel is passed to the engine: error, warn, info or debug.
	LogLevel string
	// AuthToken is the shared bearer token. Empty means generate one.
	AuthToken string
	// RequestTimeout bounds each management API call.
	RequestTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8000),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			APIKey:       getEnv("SERVER_API_KEY", ""),
		},
		Engine: EngineConfig{
			BinaryPath:     getEnv("ENGINE_BINARY", "configurable-tls-proxy"),
			PublicURL:      getEnv("ENGINE_PUBLIC_URL", "tls://0.0.0.0:8080"),
			APIURL:         getEnv("ENGINE_API_URL", ""),
			LogLevel:       getEnv("ENGINE_LOG_LEVEL", "warn"),
			AuthToken:      getEnv("CONFIG_TLS_PROXY_TOKEN", ""),
			RequestTimeout: getEnvDuration("ENGINE_REQUEST_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
