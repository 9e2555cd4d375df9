package api

import (
	"encoding/json"
	"net/http"

	"github.com/clipstream/backend/internal/apperr"
)

// Envelope is the uniform JSON response body for every endpoint.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Success    bool        `json:"success"`
}

// WriteJSON writes a success envelope with the given status code.
func WriteJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Message:    message,
		Data:       data,
		Success:    status < 400,
	})
}

// WriteError writes a failure envelope. Internal error detail never goes
// in here; callers log it and pass a human-readable message instead.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, message, nil)
}

// WriteErr writes a failure envelope with the status the error's apperr
// kind maps to. The message is what the client sees; err itself stays
// server-side.
func WriteErr(w http.ResponseWriter, err error, message string) {
	WriteError(w, apperr.StatusOf(err), message)
}
