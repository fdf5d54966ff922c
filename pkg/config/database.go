package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DatabaseConfig describes the single connection BREAD queries run against
type DatabaseConfig struct {
	// ORM selects the query adapter: "bun" or "gorm"
	ORM string `mapstructure:"orm"`

	// Driver is the database type (sqlite, postgres, mssql)
	Driver string `mapstructure:"driver"`

	// DSN is the complete connection string.
	// If provided, it takes precedence over the individual parameters below.
	DSN string `mapstructure:"dsn"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	// SQLite specific
	FilePath string `mapstructure:"filepath"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// Debug logs every statement through the ORM's query hook
	Debug bool `mapstructure:"debug"`
}

// NormalizedDriver maps driver aliases to sqlite, postgres or mssql
func (c DatabaseConfig) NormalizedDriver() string {
	switch strings.ToLower(c.Driver) {
	case "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql", "pgx", "pg":
		return "postgres"
	case "mssql", "sqlserver":
		return "mssql"
	default:
		return strings.ToLower(c.Driver)
	}
}

// BuildDSN returns the configured DSN or assembles one from the connection parameters
func (c DatabaseConfig) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.NormalizedDriver() {
	case "sqlite":
		if c.FilePath == "" {
			return "file::memory:?cache=shared", nil
		}
		return c.FilePath, nil
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     "/" + c.Database,
			RawQuery: "sslmode=" + sslMode,
		}
		return u.String(), nil
	case "mssql":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			RawQuery: "database=" + url.QueryEscape(c.Database),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
}

// Validate validates the database configuration
func (c DatabaseConfig) Validate() error {
	switch strings.ToLower(c.ORM) {
	case "bun", "gorm":
	default:
		return fmt.Errorf("unsupported orm '%s', expected bun or gorm", c.ORM)
	}

	switch c.NormalizedDriver() {
	case "sqlite", "postgres", "mssql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	if c.DSN == "" && c.NormalizedDriver() != "sqlite" && c.Host == "" {
		return fmt.Errorf("database host or dsn is required for driver %s", c.Driver)
	}

	return nil
}
