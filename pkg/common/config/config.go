package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Model
	ModelArtifactPath string

	// Rate limiting (per process)
	RateLimitRPS   int
	RateLimitBurst int

	// Client
	PredictionAPIURL  string
	PredictionTimeout time.Duration

	// Credentials
	CredentialsBackend string
	CredentialsFile    string

	// Redis
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	RedisCredentialsKey string
}

const (
	CredentialsBackendFile  = "file"
	CredentialsBackendRedis = "redis"
)

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 15*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 64*1024)),

		ModelArtifactPath: getEnv("MODEL_ARTIFACT_PATH", "model/drtb_model.json"),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		PredictionAPIURL:  getEnv("PREDICTION_API_URL", "http://localhost:5000"),
		PredictionTimeout: getDuration("PREDICTION_TIMEOUT", 10*time.Second),

		CredentialsBackend: getEnv("CREDENTIALS_BACKEND", CredentialsBackendFile),
		CredentialsFile:    getEnv("CREDENTIALS_FILE", "config/credentials.yaml"),

		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getIntEnv("REDIS_DB", 0),
		RedisCredentialsKey: getEnv("REDIS_CREDENTIALS_KEY", "resistx:credentials"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
