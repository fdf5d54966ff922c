package middleware

import (
	"net/http"
	"strconv"
)

// DefaultMaxRequestSize applies when the configured limit is not positive
const DefaultMaxRequestSize = 10 << 20

// MaxRequestSizeHeader advertises the limit on every response
const MaxRequestSizeHeader = "X-Max-Request-Size"

// MaxBodySize caps request bodies at limit bytes. A declared Content-Length
// above the limit is answered with 413 before the handler runs; bodies
// without one fail on read once they pass the limit.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxRequestSize
	}
	advertised := strconv.FormatInt(limit, 10)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(MaxRequestSizeHeader, advertised)
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
