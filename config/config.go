package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. It is rejected in production.
const DefaultJWTSecret = "change-me"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	JWT      JWTConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

// DatabaseConfig selects the SQL driver. Driver is "sqlite3" or "postgres";
// DSN is a file path for sqlite3 and a connection string for postgres.
type DatabaseConfig struct {
	Driver        string
	DSN           string
	MigrationsDir string
}

// CacheConfig is passed to go-utils cache.New.
type CacheConfig struct {
	Type          string // redis, memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type AuthConfig struct {
	BcryptCost int
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine, plain environment variables are used instead.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	bcryptCost, _ := strconv.Atoi(getEnv("BCRYPT_COST", "12"))

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "15m"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "todo-service"),
			Port: getEnv("APP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:        getEnv("DB_DRIVER", "sqlite3"),
			DSN:           getEnv("DB_DSN", "./todo_service.db?_foreign_keys=on"),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "./database/migrations"),
		},
		Cache: CacheConfig{
			Type:          getEnv("CACHE_TYPE", "redis"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", DefaultJWTSecret),
			Issuer: getEnv("JWT_ISSUER", "todo-service"),
			TTL:    ttl,
		},
		Auth: AuthConfig{
			BcryptCost: bcryptCost,
		},
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWT.Secret == DefaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
