// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LocalEnvFile is loaded, when present, before the process environment is read.
// Variables already set in the environment win.
const LocalEnvFile = "config/local.env"

// KV drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	Server   ServerConfig
	KV       KVConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// KVConfig selects where session state and catalog snapshots live.
type KVConfig struct {
	Driver      string // sqlite, postgres, memory
	DSN         string // sqlite file path
	DatabaseURL string // postgres URL
}

// SecurityConfig holds session and administrator settings.
type SecurityConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// CatalogConfig controls how the catalog is seeded and persisted.
type CatalogConfig struct {
	SeedSource string // embedded, a file path or s3://bucket/key
	Persist    bool
	S3         S3Config
}

// S3Config configures s3:// seed sources.
type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// Load reads LocalEnvFile and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(LocalEnvFile)
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv and validates it.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := source(getenv)
	var problems []string

	cfg := &Config{Env: strings.ToLower(env.or("ENV", "development"))}

	port, err := strconv.Atoi(env.or("PORT", "8080"))
	if err != nil {
		problems = append(problems, "PORT must be a number")
	}
	shutdown, err := time.ParseDuration(env.or("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be a duration such as 10s")
	}
	cfg.Server = ServerConfig{
		Host:            env.or("HOST", "0.0.0.0"),
		Port:            port,
		ShutdownTimeout: shutdown,
	}

	cfg.KV = KVConfig{
		Driver:      strings.ToLower(env.or("KV_DRIVER", DriverSQLite)),
		DSN:         env.or("KV_DSN", "data/onlyhate.db"),
		DatabaseURL: env.get("DATABASE_URL"),
	}

	ttl, err := time.ParseDuration(env.or("SESSION_TTL", "12h"))
	if err != nil {
		problems = append(problems, "SESSION_TTL must be a duration such as 12h")
	}
	cfg.Security = SecurityConfig{
		SessionSecret:     env.get("SESSION_SECRET"),
		SessionTTL:        ttl,
		AdminEmail:        env.or("ADMIN_EMAIL", "admin@onlyhate.com"),
		AdminPassword:     env.get("ADMIN_PASSWORD"),
		AdminPasswordHash: env.get("ADMIN_PASSWORD_HASH"),
	}

	cfg.CORS.AllowedOrigins = ParseList(env.or("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"))

	cfg.Logging = LoggingConfig{
		Level:  strings.ToLower(env.or("LOG_LEVEL", "info")),
		Format: strings.ToLower(env.or("LOG_FORMAT", "json")),
	}

	persist, err := strconv.ParseBool(env.or("CATALOG_PERSIST", strconv.FormatBool(cfg.KV.Driver != DriverMemory)))
	if err != nil {
		problems = append(problems, "CATALOG_PERSIST must be true or false")
	}
	pathStyle, err := strconv.ParseBool(env.or("SEED_S3_PATH_STYLE", "false"))
	if err != nil {
		problems = append(problems, "SEED_S3_PATH_STYLE must be true or false")
	}
	cfg.Catalog = CatalogConfig{
		SeedSource: env.or("SEED_SOURCE", "embedded"),
		Persist:    persist,
		S3: S3Config{
			Region:    env.or("SEED_S3_REGION", "us-east-1"),
			Endpoint:  env.get("SEED_S3_ENDPOINT"),
			PathStyle: pathStyle,
		},
	}

	problems = append(problems, cfg.problems()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	if problems := c.problems(); len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (c *Config) problems() []string {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	switch c.KV.Driver {
	case DriverSQLite:
		if c.KV.DSN == "" {
			problems = append(problems, "KV_DSN is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.KV.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
		if c.Catalog.Persist {
			problems = append(problems, "CATALOG_PERSIST needs a durable KV_DRIVER")
		}
	default:
		problems = append(problems, "KV_DRIVER must be one of: sqlite, postgres, memory")
	}

	if len(c.Security.SessionSecret) < 16 {
		problems = append(problems, "SESSION_SECRET must be at least 16 characters")
	}
	if c.Security.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if strings.TrimSpace(c.Security.AdminEmail) == "" {
		problems = append(problems, "ADMIN_EMAIL is required")
	}
	if c.IsProduction() && c.Security.AdminPassword == "" && c.Security.AdminPasswordHash == "" {
		problems = append(problems, "ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required in production")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	return problems
}

// IsDevelopment reports whether ENV is empty or development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ParseList splits a comma-separated value, dropping blanks.
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type source func(string) string

func (s source) get(key string) string {
	return strings.TrimSpace(s(key))
}

func (s source) or(key, fallback string) string {
	if value := s.get(key); value != "" {
		return value
	}
	return fallback
}
