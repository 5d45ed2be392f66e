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
	Server   ServerConfig
	Upload   UploadConfig
	Scan     ScanConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type UploadConfig struct {
	UploadDir          string // UPLOAD_DIRECTORY, root of the destination tree
	QuarantineDir      string
	MaxChunkSize       int64 // bytes
	StatusTTL          time.Duration
	QuarantineMaxAge   time.Duration
	QuarantineSchedule string
}

type ScanConfig struct {
	Enabled          bool
	Binary           string
	Timeout          time.Duration
	InfectedExitCode int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type QueueConfig struct {
	WorkerCount int
	MaxAttempts int
	RetryDelay  time.Duration
}

type StorageConfig struct {
	Backend   string // local | s3
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type DatabaseConfig struct {
	DSN              string
	RunAutoMigration bool
}

type LogConfig struct {
	Level       string
	Development bool
}

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3000"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Upload: UploadConfig{
			UploadDir:          getEnv("UPLOAD_DIRECTORY", "data/uploads"),
			QuarantineDir:      getEnv("UPLOAD_QUARANTINE_DIRECTORY", "data/quarantine"),
			MaxChunkSize:       getEnvAsInt64("MAX_CHUNKSIZE", 512000),
			StatusTTL:          getEnvAsDuration("UPLOAD_STATUS_TTL", 0),
			QuarantineMaxAge:   getEnvAsDuration("QUARANTINE_MAX_AGE", 24*time.Hour),
			QuarantineSchedule: getEnv("QUARANTINE_SWEEP_SCHEDULE", "0 */5 * * * *"),
		},
		Scan: ScanConfig{
			Enabled:          getEnvAsBool("VIRUS_SCAN_ENABLED", false),
			Binary:           getEnv("VIRUS_SCAN_BINARY", "uvscan"),
			Timeout:          getEnvAsDuration("VIRUS_SCAN_TIMEOUT", 10*time.Minute),
			InfectedExitCode: getEnvAsInt("VIRUS_SCAN_INFECTED_EXIT_CODE", 13),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Queue: QueueConfig{
			WorkerCount: getEnvAsInt("WORKER_COUNT", 4),
			MaxAttempts: getEnvAsInt("TASK_MAX_ATTEMPTS", 5),
			RetryDelay:  getEnvAsDuration("TASK_RETRY_DELAY", 2*time.Second),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", BackendLocal)),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Database: DatabaseConfig{
			DSN:              getEnv("DATABASE_DSN", ""),
			RunAutoMigration: getEnvAsBool("RUN_AUTO_MIGRATION", false),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Upload.UploadDir == "":
		return fmt.Errorf("UPLOAD_DIRECTORY must not be empty")
	case c.Upload.QuarantineDir == "":
		return fmt.Errorf("UPLOAD_QUARANTINE_DIRECTORY must not be empty")
	case c.Upload.MaxChunkSize <= 0:
		return fmt.Errorf("MAX_CHUNKSIZE must be positive, got %d", c.Upload.MaxChunkSize)
	case c.Queue.WorkerCount < 1:
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.Queue.WorkerCount)
	case c.Queue.MaxAttempts < 1:
		return fmt.Errorf("TASK_MAX_ATTEMPTS must be at least 1, got %d", c.Queue.MaxAttempts)
	case c.Scan.Enabled && c.Scan.Binary == "":
		return fmt.Errorf("VIRUS_SCAN_BINARY must be set when scanning is enabled")
	}

	switch c.Storage.Backend {
	case BackendLocal:
	case BackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

// RedisAddr returns host:port of the status store / queue.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// EnsureDirs creates the quarantine and upload roots.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Upload.QuarantineDir, c.Upload.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
