package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the default prefix of environment overrides, e.g.
// BREADSPEC_DATABASE_DRIVER overrides database.driver.
const EnvPrefix = "BREADSPEC"

// defaults holds every key of Config. Keys missing here cannot be set from
// the environment.
var defaults = map[string]interface{}{
	"server.addr":             ":8080",
	"server.shutdown_timeout": "30s",
	"server.drain_timeout":    "25s",
	"server.read_timeout":     "10s",
	"server.write_timeout":    "10s",
	"server.idle_timeout":     "120s",
	"server.gzip":             true,

	"database.orm":               "bun",
	"database.driver":            "sqlite",
	"database.filepath":          "breadspec.db",
	"database.port":              5432,
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "30m",
	"database.dsn":               "",
	"database.host":              "",
	"database.user":              "",
	"database.password":          "",
	"database.database":          "",
	"database.sslmode":           "",
	"database.debug":             false,

	"breads.path":              "./breads",
	"breads.route_prefix":      "/admin",
	"breads.route_name_prefix": "voyager",

	"locale.default":   "en",
	"locale.fallback":  "en",
	"locale.available": []string{"en"},

	"cache.provider":                "memory",
	"cache.ttl":                     "10m",
	"cache.redis.host":              "localhost",
	"cache.redis.port":              6379,
	"cache.redis.password":          "",
	"cache.redis.db":                0,
	"cache.memcache.servers":        []string{"localhost:11211"},
	"cache.memcache.max_idle_conns": 10,
	"cache.memcache.timeout":        "100ms",

	"error_tracking.enabled":     false,
	"error_tracking.provider":    "noop",
	"error_tracking.dsn":         "",
	"error_tracking.environment": "",
	"error_tracking.release":     "",
	"error_tracking.debug":       false,
	"error_tracking.sample_rate": 1.0,

	"logger.dev":  false,
	"logger.path": "",

	"metrics.enabled": true,
	"metrics.path":    "/metrics",

	"middleware.max_request_size": 10 << 20,
	"middleware.rate_limit_rps":   0.0,
	"middleware.rate_limit_burst": 20,

	"cors.allowed_origins": []string{"*"},
	"cors.max_age":         86400,
}

// Manager reads the configuration from defaults, an optional YAML file and
// the environment, in increasing priority.
type Manager struct {
	v *viper.Viper
}

type Option func(*viper.Viper)

// WithConfigFile reads exactly path instead of searching for config.yaml
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) { v.SetConfigFile(path) }
}

// WithConfigName changes the searched file name (without extension)
func WithConfigName(name string) Option {
	return func(v *viper.Viper) { v.SetConfigName(name) }
}

func WithConfigPath(path string) Option {
	return func(v *viper.Viper) { v.AddConfigPath(path) }
}

func WithEnvPrefix(prefix string) Option {
	return func(v *viper.Viper) { v.SetEnvPrefix(prefix) }
}

func NewManager() *Manager {
	return NewManagerWithOptions()
}

// NewManagerWithOptions searches ".", "./config", "/etc/breadspec" and
// "$HOME/.breadspec" for config.yaml unless an option says otherwise
func NewManagerWithOptions(opts ...Option) *Manager {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{".", "./config", "/etc/breadspec", "$HOME/.breadspec"} {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for _, opt := range opts {
		opt(v)
	}
	return &Manager{v: v}
}

// Load reads the config file. A missing file is not an error.
func (m *Manager) Load() error {
	err := m.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Set overrides key for the lifetime of the manager
func (m *Manager) Set(key string, value interface{}) {
	m.v.Set(key, value)
}

// GetConfig decodes and validates the configuration
func (m *Manager) GetConfig() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	var errs []error
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Locale.Available) > 0 && !slices.Contains(c.Locale.Available, c.Locale.Default) {
		errs = append(errs, fmt.Errorf("locale.default %q is not in locale.available", c.Locale.Default))
	}
	switch strings.ToLower(c.Cache.Provider) {
	case "", "memory", "redis", "memcache":
	default:
		errs = append(errs, fmt.Errorf("unsupported cache provider: %s", c.Cache.Provider))
	}
	if c.Middleware.RateLimitRPS < 0 {
		errs = append(errs, errors.New("middleware.rate_limit_rps must not be negative"))
	}
	return errors.Join(errs...)
}
