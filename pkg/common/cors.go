package common

import (
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig allows any origin on the BREAD routes
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: GetBreadHeaders(),
		ExposedHeaders: []string{"X-Request-ID", "X-Total-Count", "Content-Language"},
		MaxAge:         86400,
	}
}

// GetBreadHeaders lists the request headers the BREAD handler reads
func GetBreadHeaders() []string {
	return []string{
		"Content-Type", "Authorization", "Accept", "Accept-Language",
		"Content-Language", "X-Request-ID", "X-Locale",
	}
}

// AllowOrigin reports the value for Access-Control-Allow-Origin, or "" when
// origin is not allowed. A "*" entry allows every origin.
func (c CORSConfig) AllowOrigin(origin string) string {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// SetCORSHeaders writes the CORS response headers for a request from origin.
// Nothing is written for a disallowed origin.
func SetCORSHeaders(w ResponseWriter, origin string, config CORSConfig) {
	allow := config.AllowOrigin(origin)
	if allow == "" {
		return
	}
	w.SetHeader("Access-Control-Allow-Origin", allow)
	if allow != "*" {
		// credentials may not be combined with a wildcard origin
		w.SetHeader("Access-Control-Allow-Credentials", "true")
		w.SetHeader("Vary", "Origin")
	}

	headers := map[string][]string{
		"Access-Control-Allow-Methods":  config.AllowedMethods,
		"Access-Control-Allow-Headers":  config.AllowedHeaders,
		"Access-Control-Expose-Headers": config.ExposedHeaders,
	}
	for name, values := range headers {
		if len(values) > 0 {
			w.SetHeader(name, strings.Join(values, ", "))
		}
	}
	if config.MaxAge > 0 {
		w.SetHeader("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
	}
}
