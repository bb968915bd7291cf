package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfigFile names an optional TOML file loaded before environment overrides.
const EnvConfigFile = "CONFIG_FILE"

// Supported authentication providers.
const (
	AuthProviderJWT    = "jwt"
	AuthProviderRemote = "remote"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `toml:"host"`
	Port               string `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	Name               string `toml:"name"`
	SSLMode            string `toml:"sslmode"`
	MaxOpenConns       int    `toml:"max_open_conns"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `toml:"conn_max_lifetime_sec"`
	AutoMigrate        bool   `toml:"auto_migrate"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// AuthConfig selects and configures the bearer token resolver.
type AuthConfig struct {
	Provider   string `toml:"provider"`
	JWTSecret  string `toml:"jwt_secret"`
	JWTIssuer  string `toml:"jwt_issuer"`
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// Timeout returns the remote provider request timeout.
func (a AuthConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// UploadConfig bounds the raw request body accepted by the HTTP server.
type UploadConfig struct {
	BodyLimit      string `toml:"body_limit"`
	bodyLimitBytes int64
}

// BodyLimitBytes returns the parsed body limit. Only valid after Load.
func (u UploadConfig) BodyLimitBytes() int64 {
	return u.bodyLimitBytes
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from an optional TOML file and then from environment variables.
type AppConfig struct {
	Env      string         `toml:"env"`
	AppHost  string         `toml:"app_host"`
	Port     string         `toml:"port"`
	TimeZone string         `toml:"time_zone"`
	Database DatabaseConfig `toml:"database"`
	MinIO    MinIOConfig    `toml:"minio"`
	Auth     AuthConfig     `toml:"auth"`
	Upload   UploadConfig   `toml:"upload"`
	Log      LogConfig      `toml:"log"`
}

// IsProduction reports whether the service runs with production error hygiene.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Location resolves TimeZone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from the file named by CONFIG_FILE (if any) and then from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over file values.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := os.Getenv(EnvConfigFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.loadEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		Env:      "development",
		AppHost:  "localhost:8080",
		Port:     "8080",
		TimeZone: "UTC",
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Auth: AuthConfig{
			Provider:   AuthProviderJWT,
			TimeoutSec: 5,
		},
		Upload: UploadConfig{BodyLimit: "12MiB"},
		Log:    LogConfig{Level: "info"},
	}
}

func (c *AppConfig) loadEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.AppHost = getEnv("APP_HOST", c.AppHost)
	c.Port = getEnv("PORT", c.Port)
	c.TimeZone = getEnv("TZ", c.TimeZone)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.Database.ConnMaxLifetimeSec)
	c.Database.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)

	c.Auth.Provider = strings.ToLower(getEnv("AUTH_PROVIDER", c.Auth.Provider))
	c.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = getEnv("AUTH_JWT_ISSUER", c.Auth.JWTIssuer)
	c.Auth.URL = getEnv("AUTH_URL", c.Auth.URL)
	c.Auth.APIKey = getEnv("AUTH_API_KEY", c.Auth.APIKey)
	c.Auth.TimeoutSec = getEnvInt("AUTH_TIMEOUT_SEC", c.Auth.TimeoutSec)

	c.Upload.BodyLimit = getEnv("UPLOAD_BODY_LIMIT", c.Upload.BodyLimit)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

func (c *AppConfig) validate() error {
	size, err := units.RAMInBytes(c.Upload.BodyLimit)
	if err != nil {
		return fmt.Errorf("invalid upload body_limit: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("upload body_limit must be positive")
	}
	c.Upload.bodyLimitBytes = size

	switch c.Auth.Provider {
	case AuthProviderJWT, AuthProviderRemote:
	default:
		return fmt.Errorf("invalid auth provider: %s (must be jwt or remote)", c.Auth.Provider)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
