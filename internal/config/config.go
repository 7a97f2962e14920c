package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	WhatsAppToken             string
	PhoneNumberID             string
	WhatsAppBusinessAccountID string
	AppID                     string
	GraphURL                  string
	GraphVersion              string
	HTTPTimeout               time.Duration

	SiteURL  string
	SitePath string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	HandleTTL     time.Duration
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() *Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WhatsAppToken:             getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:             getEnv("PHONE_NUMBER_ID", ""),
		WhatsAppBusinessAccountID: getEnv("WABA_ID", ""),
		AppID:                     getEnv("WHATSAPP_APP_ID", ""),
		GraphURL:                  strings.TrimRight(getEnv("GRAPH_URL", "https://graph.facebook.com"), "/"),
		GraphVersion:              getEnv("GRAPH_VERSION", "v19.0"),
		HTTPTimeout:               getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		SiteURL:  strings.TrimRight(getEnv("SITE_URL", "http://localhost:8000"), "/"),
		SitePath: getEnv("SITE_PATH", "./site"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "./whatsapp.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "whatsapp"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		HandleTTL:     getEnvDuration("HANDLE_TTL", 24*time.Hour),
	}
}

// Validate reports settings the provider client cannot work without.
func (c *Config) Validate() error {
	var missing []string
	if c.WhatsAppToken == "" {
		missing = append(missing, "WHATSAPP_TOKEN")
	}
	if c.PhoneNumberID == "" {
		missing = append(missing, "PHONE_NUMBER_ID")
	}
	if c.WhatsAppBusinessAccountID == "" {
		missing = append(missing, "WABA_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// GraphBase is the versioned Graph API root, e.g. https://graph.facebook.com/v19.0.
func (c *Config) GraphBase() string {
	return c.GraphURL + "/" + c.GraphVersion
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
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
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or a plain number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
