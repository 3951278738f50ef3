package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	Environment     string
	LogLevel        string
	FirebaseProject string

	// Service account credentials, either inline JSON or a file path.
	ServiceAccountJSON string
	ServiceAccountPath string

	StorageBucket string
	ExpoPushURL   string
	CORSOrigins   []string

	TypingIdle time.Duration

	HTTPRateLimit    float64 // requests per second per IP
	HTTPRateBurst    int
	MessageRateLimit float64 // messages per second per user
	MessageRateBurst int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("PORT", "5001"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		ExpoPushURL:        getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{
			"http://localhost:8081",
			"http://localhost:19006",
			"exp://localhost:19000",
		}),
		TypingIdle:       time.Duration(getEnvAsInt64("TYPING_IDLE_MS", 1500)) * time.Millisecond,
		HTTPRateLimit:    getEnvAsFloat("HTTP_RATE_LIMIT", 20),
		HTTPRateBurst:    int(getEnvAsInt64("HTTP_RATE_BURST", 60)),
		MessageRateLimit: getEnvAsFloat("MESSAGE_RATE_LIMIT", 1),
		MessageRateBurst: int(getEnvAsInt64("MESSAGE_RATE_BURST", 10)),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
