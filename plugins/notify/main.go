// Package main is a pinchlight plugin that reports display toggles, either
// as a desktop notification or as a line in a log file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Params carries the display mode after the toggle.
type Params struct {
	Display string `json:"display"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type actionHandler func(p Params) error

var actionHandlers = map[string]actionHandler{
	"notify": notify,
	"log":    appendLog,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var p Params
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid params: %v", err))
			return
		}
	}
	if p.Display == "" {
		writeErrorResponse("params.display is required")
		return
	}

	if err := handler(p); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func message(p Params) string {
	return "Display switched to " + p.Display
}

// notify shows a desktop notification with osascript on macOS and
// notify-send elsewhere.
func notify(p Params) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "Pinchlight"`, message(p))
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", "Pinchlight", message(p))
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// appendLog writes a timestamped line to activations.log next to the
// plugin binary.
func appendLog(p Params) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(filepath.Dir(exe), "activations.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().Format(time.RFC3339), message(p))
	return err
}
