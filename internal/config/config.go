package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	WebPort    string

	DBDriver string
	DBDSN    string
	ResetDB  bool
	SeedDemo bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret string
	TokenTTL  time.Duration

	SessionSecret  string
	SessionMaxAge  int
	SessionBackend string
	SessionDir     string
	SessionSecure  bool

	BcryptCost        int
	PasswordMinLength int

	LogLevel    string
	LogFormat   string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8000"),
		WebPort:           getEnv("WEB_PORT", "5000"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite"),
		DBDSN:             getEnv("DB_DSN", "taskdesk.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"),
		ResetDB:           getEnvBool("RESET_DB", false),
		SeedDemo:          getEnvBool("SEED_DEMO", true),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		TokenTTL:          time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 30)) * time.Minute,
		SessionSecret:     getEnv("SESSION_SECRET", "change-me-too"),
		SessionMaxAge:     getEnvInt("SESSION_MAX_AGE_SECONDS", 86400),
		SessionBackend:    getEnv("SESSION_BACKEND", "redis"),
		SessionDir:        os.Getenv("SESSION_DIR"),
		SessionSecure:     getEnvBool("SESSION_SECURE", false),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),
		PasswordMinLength: getEnvInt("PASSWORD_MIN_LENGTH", 6),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		SwaggerHost:       os.Getenv("SWAGGER_HOST"),
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
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
