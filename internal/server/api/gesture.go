package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/gesture"
)

// GestureView is the gesture view as seen by the HTTP layer.
type GestureView interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	Session() string
	Signal() gesture.Signal
	Frames() uint64
	Size() (int, int)
	Resize(width, height int)
}

// GestureHandler turns the gesture view on and off and reports its state.
type GestureHandler struct {
	view     GestureView
	base     context.Context
	validate *validator.Validate
	log      *logrus.Logger
}

// NewGestureHandler creates a GestureHandler. Sessions it starts live until
// base is cancelled or the view is turned off.
func NewGestureHandler(base context.Context, v GestureView, validate *validator.Validate, log *logrus.Logger) *GestureHandler {
	return &GestureHandler{view: v, base: base, validate: validate, log: log}
}

type gestureStatusResponse struct {
	Running bool           `json:"running"`
	Session string         `json:"session,omitempty"`
	Frames  uint64         `json:"frames"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Signal  gesture.Signal `json:"signal"`
}

type toggleGestureRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type resizeGestureRequest struct {
	Width  int `json:"width" validate:"required,min=16,max=7680"`
	Height int `json:"height" validate:"required,min=16,max=4320"`
}

// ServeHTTP routes /api/gesture and /api/gesture/resize.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/gesture", "/api/gesture/":
		switch r.Method {
		case http.MethodGet:
			h.status(w)
		case http.MethodPost:
			h.toggle(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "/api/gesture/resize":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.resize(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *GestureHandler) statusResponse() gestureStatusResponse {
	width, height := h.view.Size()
	resp := gestureStatusResponse{
		Running: h.view.Running(),
		Frames:  h.view.Frames(),
		Width:   width,
		Height:  height,
		Signal:  h.view.Signal(),
	}
	if resp.Running {
		resp.Session = h.view.Session()
	}
	return resp
}

// status handles GET /api/gesture.
func (h *GestureHandler) status(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.statusResponse())
}

// toggle handles POST /api/gesture. Turning it on opens the camera; a
// camera that cannot be opened is reported and nothing is left running.
func (h *GestureHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleGestureRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	if *req.Enabled {
		if err := h.view.Start(h.base); err != nil {
			logFailure(h.log, r, err, "starting gesture view")
			writeError(w, http.StatusServiceUnavailable, "Failed to start camera")
			return
		}
	} else {
		h.view.Stop()
	}

	writeJSON(w, http.StatusOK, h.statusResponse())
}

// resize handles POST /api/gesture/resize.
func (h *GestureHandler) resize(w http.ResponseWriter, r *http.Request) {
	var req resizeGestureRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	h.view.Resize(req.Width, req.Height)
	writeJSON(w, http.StatusOK, h.statusResponse())
}
