package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds server settings resolved from the environment.
type Config struct {
	Port           string
	DatabasePath   string
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	StorageDir     string
	StorageBaseURL string
}

// Load reads an optional .env file and resolves settings from environment
// variables, falling back to development defaults.
func Load() Config {
	// Missing .env is fine; real deployments set env vars directly
	_ = godotenv.Load()

	return Config{
		Port:           getEnv("PORT", "8008"),
		DatabasePath:   getEnv("DATABASE_PATH", "project-management.db"),
		JWTSecret:      getEnv("JWT_SECRET", "development-insecure-secret-change-me"),
		JWTIssuer:      getEnv("JWT_ISSUER", "project-management-app"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "project-management-clients"),
		StorageDir:     getEnv("STORAGE_DIR", "storage/public"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "/storage"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
