package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// writeError writes the same error envelope the BREAD handler uses
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := common.Response{
		Success: false,
		Error:   &common.APIError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn("Failed to write error response: %v", err)
	}
}
