package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Session SessionConfig
	Broker  BrokerConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type SessionConfig struct {
	Backend      string // "memory" or "redis"
	TTL          time.Duration
	DefaultRole  string
	CookieSecure bool
	// ConversationIdle bounds how long an untouched chat or wizard is kept.
	ConversationIdle time.Duration
}

type BrokerConfig struct {
	RedisURL     string
	NatsURL      string
	RefreshTopic string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Backend: BackendConfig{
			URL:     getEnv("BACKEND_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Backend:          getEnv("SESSION_BACKEND", "memory"),
			TTL:              getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			DefaultRole:      getEnv("SESSION_DEFAULT_ROLE", "admin"),
			CookieSecure:     getEnvAsBool("COOKIE_SECURE", false),
			ConversationIdle: getEnvAsDuration("CONVERSATION_IDLE", 2*time.Hour),
		},
		Broker: BrokerConfig{
			RedisURL:     getEnv("REDIS_URL", ""),
			NatsURL:      getEnv("NATS_URL", ""),
			RefreshTopic: getEnv("DASHBOARD_REFRESH_TOPIC_NAME", "DASHBOARD_REFRESH"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("45s") or a plain number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds := getEnvAsInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
