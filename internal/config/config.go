package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries all runtime settings, loaded once at startup.
type Config struct {
	Port        string
	MongoURI    string
	MongoDBName string

	JWTSecret   string
	TokenExpiry time.Duration

	AzureAccountName   string
	AzureAccountKey    string
	AzureContainerName string

	AllowedOrigin string

	// Signup birth-year window served to clients.
	MinBirthYear int
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "meetapp"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenExpiry:        getDurationEnv("TOKEN_EXPIRY", 24*time.Hour),
		AzureAccountName:   getEnv("AZURE_STORAGE_ACCOUNT_NAME", ""),
		AzureAccountKey:    getEnv("AZURE_STORAGE_ACCOUNT_KEY", ""),
		AzureContainerName: getEnv("AZURE_CONTAINER_NAME", "profile-images"),
		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		MinBirthYear:       getIntEnv("MIN_BIRTH_YEAR", 1950),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		logrus.Warnf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logrus.Warnf("Invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}
