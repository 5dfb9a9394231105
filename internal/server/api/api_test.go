package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/pinchlight/internal/app"
	"github.com/ayusman/pinchlight/internal/display"
	"github.com/ayusman/pinchlight/internal/gesture"
)

type stubApp struct {
	settings app.Settings
	enabled  bool
	applyErr error
	applied  int
}

func newStubApp() *stubApp {
	return &stubApp{
		settings: app.Settings{
			DebounceMS: 200,
			Region:     gesture.HitRegion{X: 220, Y: 140, Width: 200, Height: 200},
		},
		enabled: true,
	}
}

func (s *stubApp) Status() app.Status {
	return app.Status{
		Enabled:  s.enabled,
		Display:  display.ModeColor,
		Hands:    []gesture.State{gesture.Engaged},
		Settings: s.settings,
	}
}

func (s *stubApp) Settings() app.Settings { return s.settings }

func (s *stubApp) ApplySettings(settings app.Settings) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	s.applied++
	s.settings = settings
	return nil
}

func (s *stubApp) SetEnabled(enabled bool) { s.enabled = enabled }
func (s *stubApp) IsEnabled() bool         { return s.enabled }

func do(t *testing.T, h http.Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusHandler(t *testing.T) {
	handler := NewStatusHandler(newStubApp())

	rec := do(t, handler, http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response struct {
		Enabled bool     `json:"enabled"`
		Display string   `json:"display"`
		Hands   []string `json:"hands"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Enabled || response.Display != "color" {
		t.Errorf("unexpected status %+v", response)
	}
	if len(response.Hands) != 1 || response.Hands[0] != "engaged" {
		t.Errorf("hand states should be rendered by name, got %v", response.Hands)
	}

	if rec := do(t, handler, http.MethodPost, ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestSettingsHandler_Get(t *testing.T) {
	handler := NewSettingsHandler(newStubApp())

	rec := do(t, handler, http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got app.Settings
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.DebounceMS != 200 || got.Region.Width != 200 {
		t.Errorf("unexpected settings %+v", got)
	}
}

func TestSettingsHandler_Update(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		stub := newStubApp()
		handler := NewSettingsHandler(stub)

		rec := do(t, handler, http.MethodPut, `{"debounce_ms": 400}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		if stub.settings.DebounceMS != 400 {
			t.Errorf("debounce = %d, want 400", stub.settings.DebounceMS)
		}
		if stub.settings.Region.X != 220 {
			t.Errorf("region should be unchanged, got %+v", stub.settings.Region)
		}
	})

	t.Run("region update", func(t *testing.T) {
		stub := newStubApp()
		handler := NewSettingsHandler(stub)

		rec := do(t, handler, http.MethodPut, `{"region":{"x":1,"y":2,"width":50,"height":60}}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		want := gesture.HitRegion{X: 1, Y: 2, Width: 50, Height: 60}
		if stub.settings.Region != want {
			t.Errorf("region = %+v, want %+v", stub.settings.Region, want)
		}
	})

	tests := []struct {
		name     string
		body     string
		applyErr error
		want     int
	}{
		{"invalid json", `{"debounce_ms":`, nil, http.StatusBadRequest},
		{"invalid value", `{"debounce_ms": -5}`, nil, http.StatusBadRequest},
		{"debounce overflows duration", `{"debounce_ms": 9300000000000}`, nil, http.StatusBadRequest},
		{"empty region", `{"region":{"x":0,"y":0,"width":0,"height":10}}`, nil, http.StatusBadRequest},
		{"store failure", `{"debounce_ms": 300}`, errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubApp()
			stub.applyErr = tt.applyErr
			handler := NewSettingsHandler(stub)

			rec := do(t, handler, http.MethodPut, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if stub.applied != 0 {
				t.Error("settings should not be applied")
			}
		})
	}
}

func TestSettingsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSettingsHandler(newStubApp())

	for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodPatch} {
		if rec := do(t, handler, method, ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: expected %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestEnabledHandler(t *testing.T) {
	stub := newStubApp()
	handler := NewEnabledHandler(stub)

	for _, want := range []bool{false, true} {
		rec := do(t, handler, http.MethodPut, fmt.Sprintf(`{"enabled": %v}`, want))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if stub.enabled != want {
			t.Errorf("enabled = %v, want %v", stub.enabled, want)
		}
	}

	if rec := do(t, handler, http.MethodPut, `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing field: expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if rec := do(t, handler, http.MethodGet, ""); rec.Code != http.StatusOK {
		t.Errorf("GET: expected %d, got %d", http.StatusOK, rec.Code)
	}
}
