// Package config handles external configuration loading from JSON and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Debug    bool     `mapstructure:"debug"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	JWT      JWT      `mapstructure:"jwt"`
	Logger   Logger   `mapstructure:"logger"`
	AMQP     AMQP     `mapstructure:"amqp"`
}

// Server holds HTTP server configuration
type Server struct {
	Port          int    `mapstructure:"port"`
	Host          string `mapstructure:"host"`
	ReadTimeout   int    `mapstructure:"readTimeout"`
	WriteTimeout  int    `mapstructure:"writeTimeout"`
	PublicBaseURL string `mapstructure:"publicBaseUrl"`
}

// Database holds database configuration. Path is a file path for sqlite
// and a connection string for postgres.
type Database struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// JWT holds JWT configuration
type JWT struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expirationHours"`
}

// Logger holds logging configuration
type Logger struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// AMQP holds the broker receiving ad tracking events. An empty URL disables publishing.
type AMQP struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

var envBindings = map[string]string{
	"debug":                "DEBUG",
	"server.port":          "PORT",
	"server.host":          "HOST",
	"server.publicBaseUrl": "PUBLIC_BASE_URL",
	"database.driver":      "DATABASE_DRIVER",
	"database.path":        "DATABASE_PATH",
	"jwt.secret":           "JWT_SECRET",
	"logger.level":         "LOG_LEVEL",
	"logger.file":          "LOG_FILE",
	"amqp.url":             "AMQP_URL",
	"amqp.queue":           "AMQP_QUEUE",
}

// Load reads configuration from the specified JSON file and overrides with environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)
	v.SetDefault("server.writeTimeout", 15)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("jwt.expirationHours", 24)
	v.SetDefault("logger.level", "info")
	v.SetDefault("amqp.queue", "biscuits.ad_events")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// A missing file is fine: environment variables alone can configure the app
	if configPath != "" {
		cleanPath := filepath.Clean(configPath)
		if _, err := os.Stat(cleanPath); err == nil {
			v.SetConfigFile(cleanPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration values are present
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required")
		}
		cleanDBPath := filepath.Clean(c.Database.Path)
		if c.Database.Path != ":memory:" && !filepath.IsLocal(cleanDBPath) && !filepath.IsAbs(cleanDBPath) {
			return fmt.Errorf("invalid database path: potential path traversal detected")
		}
	case DriverPostgres:
		if c.Database.Path == "" {
			return fmt.Errorf("database connection string is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" || c.JWT.Secret == "CHANGE_THIS_SECRET_IN_PRODUCTION" {
		if !c.Debug {
			return fmt.Errorf("JWT secret must be changed for production")
		}
	}

	if c.JWT.ExpirationHours <= 0 {
		c.JWT.ExpirationHours = 24
	}

	return nil
}

// Address returns the full server address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabasePath returns the cleaned database path, or the DSN untouched for postgres
func (c *Config) GetDatabasePath() string {
	if c.Database.Driver == DriverPostgres || c.Database.Path == ":memory:" {
		return c.Database.Path
	}
	return filepath.Clean(c.Database.Path)
}

// BaseURL is the public origin used in hosted script snippets
func (c *Config) BaseURL() string {
	if c.Server.PublicBaseURL != "" {
		return strings.TrimRight(c.Server.PublicBaseURL, "/")
	}
	host := c.Server.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}
