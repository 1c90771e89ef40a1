package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	BackendURL      string
	StatePath       string
	TemplatesPath   string
	StaticFilesPath string
	SessionSecret   string
	RequestTimeout  time.Duration
	UploadMaxSize   int64
	PageSize        int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:3333"),
		StatePath:       getEnv("STATE_PATH", "./.salapoints"),
		TemplatesPath:   getEnv("TEMPLATES_PATH", "./templates"),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		SessionSecret:   getEnv("SESSION_SECRET", "dev-only-insecure-secret"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		UploadMaxSize:   5 * 1024 * 1024, // 5MB avatar cap
		PageSize:        getEnvInt("PAGE_SIZE", 10),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
