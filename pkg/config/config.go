package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Breads        BreadsConfig        `mapstructure:"breads"`
	Locale        LocaleConfig        `mapstructure:"locale"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	ErrorTracking ErrorTrackingConfig `mapstructure:"error_tracking"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Middleware    MiddlewareConfig    `mapstructure:"middleware"`
	CORS          CORSConfig          `mapstructure:"cors"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DrainTimeout    time.Duration `mapstructure:"drain_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GZIP            bool          `mapstructure:"gzip"`
}

// BreadsConfig controls where bread definitions are loaded from and how their routes are named
type BreadsConfig struct {
	Path            string `mapstructure:"path"`              // directory of *.json / *.yaml bread files
	RoutePrefix     string `mapstructure:"route_prefix"`      // URL prefix, e.g. /admin
	RouteNamePrefix string `mapstructure:"route_name_prefix"` // route names are <prefix>.<slug>.<action>
}

// LocaleConfig holds the request locale defaults
type LocaleConfig struct {
	Default   string   `mapstructure:"default"`
	Fallback  string   `mapstructure:"fallback"`
	Available []string `mapstructure:"available"`
}

// CacheConfig holds cache provider configuration
type CacheConfig struct {
	Provider string         `mapstructure:"provider"` // memory, redis, memcache
	TTL      time.Duration  `mapstructure:"ttl"`      // lifetime of cached table column lists
	Redis    RedisConfig    `mapstructure:"redis"`
	Memcache MemcacheConfig `mapstructure:"memcache"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MemcacheConfig holds Memcache-specific configuration
type MemcacheConfig struct {
	Servers      []string      `mapstructure:"servers"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Dev  bool   `mapstructure:"dev"`
	Path string `mapstructure:"path"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MiddlewareConfig holds middleware configuration
type MiddlewareConfig struct {
	MaxRequestSize int64   `mapstructure:"max_request_size"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"` // 0 disables rate limiting
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// CORSConfig holds the CORS headers sent on BREAD routes
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// ErrorTrackingConfig holds error tracking configuration
type ErrorTrackingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Provider    string  `mapstructure:"provider"`    // sentry, noop
	DSN         string  `mapstructure:"dsn"`         // Sentry DSN
	Environment string  `mapstructure:"environment"` // e.g., production, staging, development
	Release     string  `mapstructure:"release"`     // Application version/release
	Debug       bool    `mapstructure:"debug"`       // Enable debug mode
	SampleRate  float64 `mapstructure:"sample_rate"` // Error sample rate (0.0-1.0)
}
