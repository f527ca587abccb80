package api

import (
	"context"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/viewer"
)

// ViewHandler exposes the viewer state, accepts input events and renders
// snapshots.
type ViewHandler struct {
	viewer   *viewer.Session
	validate *validator.Validate
	log      *logrus.Logger
}

// NewViewHandler creates a new ViewHandler over the viewer session.
func NewViewHandler(v *viewer.Session, validate *validator.Validate, log *logrus.Logger) *ViewHandler {
	return &ViewHandler{viewer: v, validate: validate, log: log}
}

type eventRequest struct {
	Type     string  `json:"type" validate:"required,oneof=wheel down move up click dblclick zoom_in zoom_out reset resize menu_edit menu_remove close_menu gesture"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	DeltaY   float64 `json:"delta_y"`
	Button   int     `json:"button" validate:"gte=0,lte=4"`
	Modifier bool    `json:"modifier"`
	Width    float64 `json:"width" validate:"gte=0,max=7680"`
	Height   float64 `json:"height" validate:"gte=0,max=4320"`
	Text     string  `json:"text" validate:"max=200"`
	Confirm  bool    `json:"confirm"`
	Active   bool    `json:"active"`
}

func (e eventRequest) toEvent() viewer.Event {
	return viewer.Event{
		Type:     viewer.EventType(e.Type),
		X:        e.X,
		Y:        e.Y,
		DeltaY:   e.DeltaY,
		Button:   e.Button,
		Modifier: e.Modifier,
		Width:    e.Width,
		Height:   e.Height,
		Text:     e.Text,
		Confirm:  e.Confirm,
		Active:   e.Active,
	}
}

// ServeHTTP routes /api/view, /api/view/events and /api/view/snapshot.
func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	switch r.URL.Path {
	case "/api/view", "/api/view/":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.state(w, r)
	case "/api/view/events":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.event(w, r)
	case "/api/view/snapshot":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.snapshot(w, r)
	default:
		http.NotFound(w, r)
	}
}

// state handles GET /api/view.
func (h *ViewHandler) state(w http.ResponseWriter, r *http.Request) {
	st, err := h.viewer.State(r.Context())
	if err != nil {
		failViewer(w, r, h.log, err, "Failed to read view state")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// event handles POST /api/view/events.
func (h *ViewHandler) event(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	st, err := h.viewer.Handle(r.Context(), req.toEvent())
	if err != nil {
		failViewer(w, r, h.log, err, "Failed to apply event")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// snapshot handles GET /api/view/snapshot and returns a PNG.
func (h *ViewHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	img, err := h.viewer.Snapshot(r.Context())
	if err != nil {
		failViewer(w, r, h.log, err, "Failed to render snapshot")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		logFailure(h.log, r, err, "encoding snapshot")
	}
}
