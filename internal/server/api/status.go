package api

import (
	"encoding/json"
	"net/http"
)

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	app Controller
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(c Controller) *StatusHandler {
	return &StatusHandler{app: c}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

// EnabledHandler serves GET and PUT /api/enabled.
type EnabledHandler struct {
	app Controller
}

// NewEnabledHandler creates an EnabledHandler.
func NewEnabledHandler(c Controller) *EnabledHandler {
	return &EnabledHandler{app: c}
}

func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req enabledBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.app.SetEnabled(*req.Enabled)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	enabled := h.app.IsEnabled()
	writeJSON(w, http.StatusOK, enabledBody{Enabled: &enabled})
}
