// Package respond writes sandbox replies in the service's JSON shapes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body sent with non-2xx statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// ResultResponse is the body of write endpoints.
type ResultResponse struct {
	ResultCode string `json:"result_code"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteResult writes a 200 with {"result_code": code}.
func WriteResult(w http.ResponseWriter, code string) {
	WriteJSON(w, http.StatusOK, ResultResponse{ResultCode: code})
}

// WriteDone acknowledges a successful write.
func WriteDone(w http.ResponseWriter) { WriteResult(w, "done") }

// WriteError writes a standardized error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   statusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

func statusText(code int) string {
	if code == StatusThrottled {
		return "Throttled"
	}
	return http.StatusText(code)
}

// StatusThrottled is the status the live service uses for rate limiting.
const StatusThrottled = 999
