package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Port          string
	DatabasePath  string
	TemplatesDir  string
	StaticDir     string
	AdminEmail    string
	AdminPassword string
	SeedUsers     int
	SeedEvents    int
	SeedRSVPRate  float64
}

// Load reads configuration from the environment, after loading a .env
// file if one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabasePath:  getEnv("DATABASE_PATH", "meetup.db"),
		TemplatesDir:  getEnv("TEMPLATES_DIR", "web/templates"),
		StaticDir:     getEnv("STATIC_DIR", "web/static"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin-change-me"),
		SeedUsers:     getEnvInt("SEED_USERS", 100),
		SeedEvents:    getEnvInt("SEED_EVENTS", 20),
		SeedRSVPRate:  getEnvFloat("SEED_RSVP_CHANCE", 0.08),
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
