// Package api provides the JSON handlers for runtime status and settings.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pinchlight/internal/app"
)

// Controller is the part of the application the handlers drive.
type Controller interface {
	Status() app.Status
	Settings() app.Settings
	ApplySettings(s app.Settings) error
	SetEnabled(enabled bool)
	IsEnabled() bool
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
