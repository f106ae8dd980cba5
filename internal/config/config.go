package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	JWTTTL      time.Duration
	LogLevel    string
	LogFormat   string

	// Realtime tuning
	MaxClientsPerChart int
	ClientSendBuffer   int

	CORSOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		CORSOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3001")},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttlHours, err := getEnvInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cfg.MaxClientsPerChart, err = getEnvInt("MAX_CLIENTS_PER_CHART", 50)
	if err != nil {
		return nil, err
	}
	if cfg.MaxClientsPerChart < 1 {
		return nil, fmt.Errorf("MAX_CLIENTS_PER_CHART must be positive")
	}

	cfg.ClientSendBuffer, err = getEnvInt("CLIENT_SEND_BUFFER", 64)
	if err != nil {
		return nil, err
	}
	if cfg.ClientSendBuffer < 1 {
		return nil, fmt.Errorf("CLIENT_SEND_BUFFER must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
