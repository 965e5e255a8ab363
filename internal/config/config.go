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

	AuthSecret string
	TokenTTL   time.Duration

	AppBaseURL    string
	EmailProvider string
	EmailAPIKey   string
	EmailSender   string

	UploadDir        string
	ModerationScript string
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:             getEnv("APP_ADDR", ":8080"),
		DBUrl:            os.Getenv("SURREAL_URL"),
		DBUser:           os.Getenv("SURREAL_USER"),
		DBPass:           os.Getenv("SURREAL_PASS"),
		DBNs:             os.Getenv("SURREAL_NS"),
		DBDb:             os.Getenv("SURREAL_DB"),
		AuthSecret:       os.Getenv("AUTH_SECRET"),
		TokenTTL:         time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailProvider:    getEnv("EMAIL_PROVIDER", "log"),
		EmailAPIKey:      os.Getenv("EMAIL_API_KEY"),
		EmailSender:      os.Getenv("EMAIL_SENDER"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		ModerationScript: os.Getenv("MODERATION_SCRIPT"),
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
	}
	if cfg.AuthSecret == "" {
		log.Fatal("Required environment variable AUTH_SECRET is not set.")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
		return fallback
	}
	return n
}
