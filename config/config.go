package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	DBPath              string
	MigrationsPath      string
	AllowedOrigin       string
	MaintenanceInterval time.Duration
}

// Load reads configuration from the environment, with a .env file as fallback.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "./gatherly.db"),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", "pkg/db/migrations/sqlite"),
		AllowedOrigin:       getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		MaintenanceInterval: getDurationEnv("MAINTENANCE_INTERVAL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, falling back to %s", key, defaultValue)
	}
	return defaultValue
}
