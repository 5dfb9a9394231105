package server

import (
	"fmt"
	"net/http"
	"time"
)

// defaultStreamInterval caps the preview at about 15 FPS.
const defaultStreamInterval = 66 * time.Millisecond

// JPEGSource provides the latest rendered preview frame.
type JPEGSource interface {
	Latest() ([]byte, bool)
	Seq() uint64
}

// StreamHandler serves the rendered preview as MJPEG.
type StreamHandler struct {
	source   JPEGSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler polling source every interval.
// A zero interval means about 15 FPS.
func NewStreamHandler(source JPEGSource, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &StreamHandler{source: source, interval: interval}
}

// ServeHTTP streams each new frame until the client goes away. Frames that
// have not changed since the last write are not resent.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		if seq := h.source.Seq(); seq != sent {
			if data, ok := h.source.Latest(); ok {
				if err := writePart(w, data); err != nil {
					return
				}
				sent = seq
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
