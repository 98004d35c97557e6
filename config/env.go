package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	Port string
	Env  string

	Storage struct {
		Driver      string
		DataDir     string
		PostgresURI string
	}

	JWT struct {
		Secret   string
		Issuer   string
		Audience string
		TTL      time.Duration
	}

	BcryptCost     int
	MQTTURL        string
	CORSOrigins    string
	LoginRateLimit int
	LogLevel       string
}

// LoadENV loads variables from .env when the file exists. Variables already
// set in the environment win.
func LoadENV() error {
	return loadENVFile(".env")
}

func loadENVFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	var err error

	cfg.Port = getEnv("PORT", "3000")
	cfg.Env = getEnv("APP_ENV", "development")

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile))
	cfg.Storage.DataDir = getEnv("DATA_DIR", "./db")
	cfg.Storage.PostgresURI = os.Getenv("POSTGRESQL_URI")
	switch cfg.Storage.Driver {
	case StorageFile:
	case StoragePostgres:
		if cfg.Storage.PostgresURI == "" {
			return cfg, errors.New("you must set your 'POSTGRESQL_URI' environmental variable")
		}
	default:
		return cfg, fmt.Errorf("invalid STORAGE_DRIVER %q: must be %q or %q", cfg.Storage.Driver, StorageFile, StoragePostgres)
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "TodoApi")
	cfg.JWT.Audience = getEnv("JWT_AUDIENCE", "TodoApi")
	cfg.JWT.TTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil || cfg.JWT.TTL <= 0 {
		return cfg, fmt.Errorf("invalid JWT_TTL %q", os.Getenv("JWT_TTL"))
	}

	cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return cfg, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return cfg, fmt.Errorf("invalid BCRYPT_COST %d: must be between %d and %d", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	cfg.LoginRateLimit, err = getEnvInt("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return cfg, err
	}
	if cfg.LoginRateLimit < 0 {
		return cfg, fmt.Errorf("invalid LOGIN_RATE_LIMIT %d", cfg.LoginRateLimit)
	}

	cfg.MQTTURL = os.Getenv("MQTT_URL")
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", "*")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return cfg, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
