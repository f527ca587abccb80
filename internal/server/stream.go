package server

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// streamInterval paces the MJPEG stream at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the gesture canvas as MJPEG.
type StreamHandler struct {
	view     GestureView
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler for the gesture view.
func NewStreamHandler(view GestureView) *StreamHandler {
	return &StreamHandler{view: view, interval: streamInterval}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is sent only
// when the canvas changed since the last one.
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

	var (
		buf  bytes.Buffer
		last uint64
		sent bool
	)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frames := h.view.Frames()
		if sent && frames == last {
			continue
		}

		img := h.view.Canvas()
		if img == nil {
			continue
		}

		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
			continue
		}

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", buf.Len()); err != nil {
			return
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		last, sent = frames, true
	}
}
