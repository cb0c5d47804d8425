package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Addr string

	DBUrl  string
	DBNs   string
	DBDb   string
	DBUser string
	DBPass string

	JWTSecret string
	TokenTTL  time.Duration

	HistoryLimit int
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:         getEnv("APP_ADDR", ":8080"),
		DBUrl:        os.Getenv("SURREAL_URL"),
		DBUser:       os.Getenv("SURREAL_USER"),
		DBPass:       os.Getenv("SURREAL_PASS"),
		DBNs:         os.Getenv("SURREAL_NS"),
		DBDb:         os.Getenv("SURREAL_DB"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenTTL:     getDuration("TOKEN_TTL", 7*24*time.Hour),
		HistoryLimit: getInt("CHAT_HISTORY_LIMIT", 50),
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("Required environment variable JWT_SECRET is not set.")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value %q for %s, using default %d", v, key, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid value %q for %s, using default %s", v, key, fallback)
		return fallback
	}
	return d
}
