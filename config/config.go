package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DevJWTSecret is only acceptable outside production.
const DevJWTSecret = "foodgram-dev-secret"

// ConfigPathEnvVar points at an optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "/etc/foodgram/config.yaml"}

// Config holds all configuration for the application
type Config struct {
	Environment Environment `koanf:"env"`

	// Server configuration
	ServerPort  string `koanf:"server_port"`
	ServerHost  string `koanf:"server_host"`
	CORSOrigins string `koanf:"cors_origins"`

	// Database configuration
	DBDriver   string `koanf:"db_driver"`
	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`
	DBSSLMode  string `koanf:"db_ssl_mode"`
	DBPath     string `koanf:"db_path"`

	// Redis configuration. Redis is optional; empty host and URL disable it.
	RedisHost     string `koanf:"redis_host"`
	RedisPort     string `koanf:"redis_port"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisURL      string `koanf:"redis_url"`

	// JWT configuration
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// Recipe creation rate limit
	RecipeRateLimit  int           `koanf:"recipe_rate_limit"`
	RecipeRateWindow time.Duration `koanf:"recipe_rate_window"`

	// Image storage. An empty bucket keeps images inline.
	S3BucketName string `koanf:"s3_bucket_name"`
	AWSRegion    string `koanf:"aws_region"`
	S3PublicURL  string `koanf:"s3_public_url"`

	// Logging
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Tracing
	OTELEndpoint    string `koanf:"otel_exporter_otlp_endpoint"`
	OTELServiceName string `koanf:"otel_service_name"`
}

func defaultConfig() Config {
	return Config{
		Environment:      Development,
		ServerPort:       "8080",
		ServerHost:       "0.0.0.0",
		CORSOrigins:      "http://localhost:3000,http://localhost:5173",
		DBDriver:         "sqlite",
		DBHost:           "localhost",
		DBPort:           "5432",
		DBUser:           "postgres",
		DBName:           "foodgram",
		DBSSLMode:        "disable",
		DBPath:           "foodgram.db",
		RedisPort:        "6379",
		JWTSecret:        DevJWTSecret,
		TokenTTL:         24 * time.Hour,
		RecipeRateLimit:  30,
		RecipeRateWindow: time.Hour,
		LogLevel:         "info",
		LogFormat:        "json",
		OTELServiceName:  "foodgram-backend",
	}
}

// secretKeys are read from SECRETS_DIR and override every other layer.
var secretKeys = []string{"db_user", "db_password", "jwt_secret", "redis_password", "redis_url"}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// environment variables and Docker secrets, in that order.
func LoadConfig() (*Config, error) {
	environment := GetEnvironment()
	if environment == Development {
		// .env is a local convenience and may be absent.
		_ = godotenv.Load()
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for _, name := range secretKeys {
		if value := readSecret(name); value != "" {
			if err := k.Set(name, value); err != nil {
				return nil, fmt.Errorf("failed to apply secret %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Environment = environment

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// knownKeys lists every koanf key; other environment variables are ignored.
var knownKeys = map[string]struct{}{
	"server_port": {}, "server_host": {}, "cors_origins": {},
	"db_driver": {}, "db_host": {}, "db_port": {}, "db_user": {}, "db_password": {},
	"db_name": {}, "db_ssl_mode": {}, "db_path": {},
	"redis_host": {}, "redis_port": {}, "redis_password": {}, "redis_db": {}, "redis_url": {},
	"jwt_secret": {}, "token_ttl": {},
	"recipe_rate_limit": {}, "recipe_rate_window": {},
	"s3_bucket_name": {}, "aws_region": {}, "s3_public_url": {},
	"log_level": {}, "log_format": {},
	"otel_exporter_otlp_endpoint": {}, "otel_service_name": {},
}

func envTransform(key string) string {
	key = strings.ToLower(key)
	if _, ok := knownKeys[key]; !ok {
		return ""
	}
	return key
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// AllowedOrigins splits CORSOrigins on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// PostgresDSN builds a key/value DSN understood by both pgx and lib/pq.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled reports whether a Redis endpoint is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}
