package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort     string
	RequestTimeout time.Duration

	// Storage selects the user and token backend: "mysql" or "memory".
	Storage        string
	MySQLDSN       string
	DBMaxOpenConns int
	DBMaxIdleConns int

	RedisAddr   string
	RedisDB     int
	RedisPass   string
	RedisPrefix string

	// TokenTTL is the lifetime of issued bearer tokens.
	TokenTTL time.Duration
	// Impersonators is the allow-list of operator emails permitted to become another user.
	Impersonators []string
	// AllowedEmailDomain restricts external sign-in to this domain and its subdomains.
	AllowedEmailDomain string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	StateSecret        string

	AuthRateLimit float64
	AuthRateBurst int

	SwaggerHost string
	LogLevel    string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		Storage:            strings.ToLower(getEnv("STORAGE", "mysql")),
		MySQLDSN:           getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/unidos?charset=utf8mb4&parseTime=True&loc=UTC"),
		DBMaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:        getEnv("REDIS_PREFIX", "unidos:"),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 24*time.Hour),
		Impersonators:      getEnvList("IMPERSONATORS"),
		AllowedEmailDomain: strings.ToLower(getEnv("ALLOWED_EMAIL_DOMAIN", "cnec.br")),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		StateSecret:        getEnv("STATE_SECRET", "change-me"),
		AuthRateLimit:      getEnvFloat("AUTH_RATE_LIMIT", 1),
		AuthRateBurst:      getEnvInt("AUTH_RATE_BURST", 10),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		log.Printf("config: invalid int for %s, using default %d", key, def)
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		log.Printf("config: invalid float for %s, using default %g", key, def)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
		log.Printf("config: invalid duration for %s, using default %s", key, def)
	}
	return def
}

// getEnvList splits a comma separated variable, dropping blanks and lower-casing entries.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
