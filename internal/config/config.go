package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	StorageDriver string
	MySQLDSN      string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	JournalWorkers   int
	JournalQueueSize int

	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

// Load reads the environment, after filling it from an optional .env file.
// Variables already set in the process are never overwritten.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var err error
	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:      getEnv("GRPC_ADDR", ":50051"),
		StorageDriver: getEnv("STORAGE_DRIVER", DriverMemory),
		MySQLDSN:      getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/beerstock?parseTime=true"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost port=5432 user=postgres password=postgres dbname=beerstock sslmode=disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.JournalWorkers, err = getEnvInt("JOURNAL_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.JournalQueueSize, err = getEnvInt("JOURNAL_QUEUE_SIZE", 1000); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 200); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", 100); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverMySQL, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	if c.JournalWorkers <= 0 {
		return errors.New("JOURNAL_WORKERS must be positive")
	}
	if c.JournalQueueSize <= 0 {
		return errors.New("JOURNAL_QUEUE_SIZE must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate limit must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return n, nil
}

func getEnvFloat(k string, def float64) (float64, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return f, nil
}

func getEnvDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return d, nil
}
