package vatapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/vatkit/pkg/vies"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// registryStatus maps a registry failure to an HTTP status and error code.
// A failed lookup is never reported as an invalid number.
func registryStatus(err error) (int, string) {
	switch {
	case errors.Is(err, vies.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "registry_timeout"
	case errors.Is(err, vies.ErrCircuitOpen),
		errors.Is(err, vies.ErrServiceUnavailable),
		errors.Is(err, vies.ErrMemberStateUnavailable),
		errors.Is(err, vies.ErrRateLimited):
		return http.StatusServiceUnavailable, "registry_unavailable"
	default:
		return http.StatusBadGateway, "registry_error"
	}
}
