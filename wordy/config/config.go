package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	StorageBackendLocal = "local"
	StorageBackendMinIO = "minio"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`

	DBDriver   string `yaml:"db_driver"`
	DBPath     string `yaml:"db_path"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`

	JWTSecret string `yaml:"jwt_secret"`

	StorageBackend string `yaml:"storage_backend"`
	StorageRoot    string `yaml:"storage_root"`
	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
	MinIOSecure    bool   `yaml:"minio_secure"`

	RedisURL     string `yaml:"redis_url"`
	RedisChannel string `yaml:"redis_channel"`

	CORSOrigins    string `yaml:"cors_origins"`
	LogDir         string `yaml:"log_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

func defaults() Config {
	return Config{
		Port:           "8000",
		Environment:    "dev",
		DBDriver:       DBDriverSQLite,
		DBPath:         "./wordy.db",
		DBPort:         "5432",
		StorageBackend: StorageBackendLocal,
		StorageRoot:    "./storage",
		MinIOBucket:    "wordy",
		RedisChannel:   "wordy:events",
		CORSOrigins:    "http://localhost:3000",
		LogDir:         "./logs",
		MaxUploadBytes: 10 << 20,
	}
}

// LoadConfig reads .env (when present), then the YAML file named by
// WORDY_CONFIG (when set), then the process environment. Later sources win.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("WORDY_CONFIG"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	applyEnv(&cfg)
	return cfg
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", cfg.DBDriver))
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", cfg.StorageBackend))
	cfg.StorageRoot = getEnv("STORAGE_ROOT", cfg.StorageRoot)
	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIOAccessKey)
	cfg.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIOSecretKey)
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)
	cfg.MinIOSecure = getEnvBool("MINIO_SECURE", cfg.MinIOSecure)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RedisChannel = getEnv("REDIS_CHANNEL", cfg.RedisChannel)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
}

// IsProduction reports whether error causes must be hidden from clients.
func (c Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// AllowedOrigins splits CORSOrigins on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
