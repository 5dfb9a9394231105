package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/pinchlight/internal/app"
	"github.com/ayusman/pinchlight/internal/gesture"
)

// SettingsHandler serves GET and PUT /api/settings.
type SettingsHandler struct {
	app Controller
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(c Controller) *SettingsHandler {
	return &SettingsHandler{app: c}
}

// updateSettingsRequest carries the fields to change; omitted fields keep
// their current value.
type updateSettingsRequest struct {
	DebounceMS *int64             `json:"debounce_ms"`
	Region     *gesture.HitRegion `json:"region"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Settings())
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings := h.app.Settings()
	if req.DebounceMS != nil {
		settings.DebounceMS = *req.DebounceMS
	}
	if req.Region != nil {
		settings.Region = *req.Region
	}

	if err := h.app.ApplySettings(settings); err != nil {
		if errors.Is(err, app.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("api: apply settings: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, h.app.Settings())
}
