package config

import (
	"errors"
	"fmt"
	"io/fs"
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

// ConfigPathEnvVar points at an optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "change-me"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	Storage   StorageConfig   `koanf:"storage"`
	API       APIConfig       `koanf:"api"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
	CORS      CORSConfig      `koanf:"cors"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver          string        `koanf:"driver"`
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	Path            string        `koanf:"path"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DSN builds the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// URL takes precedence over host/port when set.
	URL string `koanf:"url"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type StorageConfig struct {
	// Backend is either "local" or "s3".
	Backend  string `koanf:"backend"`
	MediaDir string `koanf:"media_dir"`
	// MediaURL is the public prefix the local backend is served under.
	MediaURL    string `koanf:"media_url"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3PublicURL string `koanf:"s3_public_url"`
}

type APIConfig struct {
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`
	// Domain is used to build shareable recipe links.
	Domain string `koanf:"domain"`
	// PDFFontPath is an optional TTF used for non-Latin shopping lists.
	PDFFontPath string `koanf:"pdf_font_path"`
	// MaxBodyBytes caps request bodies; zero disables the cap.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

type RateLimitConfig struct {
	Disabled           bool          `koanf:"disabled"`
	LoginLimit         int           `koanf:"login_limit"`
	LoginWindow        time.Duration `koanf:"login_window"`
	RecipeCreateLimit  int           `koanf:"recipe_create_limit"`
	RecipeCreateWindow time.Duration `koanf:"recipe_create_window"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type CORSConfig struct {
	// AllowedOrigins is a comma separated list.
	AllowedOrigins string `koanf:"allowed_origins"`
}

// Origins splits AllowedOrigins into a clean list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "foodgram",
			SSLMode:         "disable",
			Path:            "foodgram.db",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Auth: AuthConfig{
			JWTSecret: DefaultJWTSecret,
			TokenTTL:  24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:  "local",
			MediaDir: "media",
			MediaURL: "/media",
		},
		API: APIConfig{
			PageSize:     6,
			MaxPageSize:  100,
			Domain:       "localhost",
			MaxBodyBytes: 14 << 20,
		},
		RateLimit: RateLimitConfig{
			LoginLimit:         10,
			LoginWindow:        time.Minute,
			RecipeCreateLimit:  30,
			RecipeCreateWindow: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: "http://localhost:3000",
		},
	}
}

// envMappings maps environment variables (lowercased) to config paths.
var envMappings = map[string]string{
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"db_driver":            "database.driver",
	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_user":              "database.user",
	"db_password":          "database.password",
	"db_name":              "database.name",
	"db_ssl_mode":          "database.ssl_mode",
	"db_path":              "database.path",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",

	"redis_host":     "redis.host",
	"redis_port":     "redis.port",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",
	"redis_url":      "redis.url",

	"jwt_secret": "auth.jwt_secret",
	"token_ttl":  "auth.token_ttl",

	"storage_backend": "storage.backend",
	"media_dir":       "storage.media_dir",
	"media_url":       "storage.media_url",
	"s3_bucket_name":  "storage.s3_bucket",
	"aws_region":      "storage.s3_region",
	"s3_public_url":   "storage.s3_public_url",

	"page_size":      "api.page_size",
	"max_page_size":  "api.max_page_size",
	"domain_name":    "api.domain",
	"pdf_font_path":  "api.pdf_font_path",
	"max_body_bytes": "api.max_body_bytes",

	"rate_limit_disabled":       "rate_limit.disabled",
	"login_rate_limit":          "rate_limit.login_limit",
	"login_rate_window":         "rate_limit.login_window",
	"recipe_create_rate_limit":  "rate_limit.recipe_create_limit",
	"recipe_create_rate_window": "rate_limit.recipe_create_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"cors_origins": "cors.allowed_origins",
}

// secretMappings lists Docker secrets that override sensitive values.
var secretMappings = map[string]string{
	"db_user":        "database.user",
	"db_password":    "database.password",
	"jwt_secret":     "auth.jwt_secret",
	"redis_password": "redis.password",
	"redis_url":      "redis.url",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// LoadConfig layers defaults, an optional YAML file, environment variables and
// Docker secrets, in that order, then validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
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

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for name, path := range secretMappings {
		if value := readSecret(name); value != "" {
			if err := k.Set(path, value); err != nil {
				return nil, fmt.Errorf("failed to apply secret %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, candidate := range []string{"config.yaml", "config.yml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
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
