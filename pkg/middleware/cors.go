package middleware

import (
	"net/http"

	"github.com/bitechdev/BreadSpec/pkg/common"
)

// CORS sets the configured CORS headers and answers preflight requests itself
func CORS(cfg common.CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw, _ := common.WrapHTTPRequest(w, r)
			common.SetCORSHeaders(rw, r.Header.Get("Origin"), cfg)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
