package middleware

import (
	"net/http"

	"github.com/bitechdev/BreadSpec/pkg/logger"
)

const panicMiddlewareMethodName = "PanicMiddleware"

// PanicRecovery turns a handler panic into a 500 JSON error. The panic is
// logged and tracked with the request's tags, including its request id.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rcv := recover(); rcv != nil {
				err := logger.HandlePanicCtx(r.Context(), panicMiddlewareMethodName, rcv)
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
		}()
		next.ServeHTTP(w, r)
	})
}
