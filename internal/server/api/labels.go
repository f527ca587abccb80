package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/annotation"
	"github.com/ayusman/cosmozoom/internal/viewer"
)

// LabelHandler handles HTTP requests for label resources.
type LabelHandler struct {
	viewer   *viewer.Session
	validate *validator.Validate
	log      *logrus.Logger
}

// NewLabelHandler creates a new LabelHandler over the viewer session.
func NewLabelHandler(v *viewer.Session, validate *validator.Validate, log *logrus.Logger) *LabelHandler {
	return &LabelHandler{viewer: v, validate: validate, log: log}
}

type createLabelRequest struct {
	Text string  `json:"text" validate:"required,max=200"`
	X    float64 `json:"x" validate:"gte=0,lte=1"`
	Y    float64 `json:"y" validate:"gte=0,lte=1"`
}

type editLabelRequest struct {
	Text string `json:"text" validate:"required,max=200"`
}

type labelResponse struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type listLabelsResponse struct {
	Labels []labelResponse `json:"labels"`
}

func toLabelsResponse(labels []annotation.Label) listLabelsResponse {
	resp := listLabelsResponse{Labels: make([]labelResponse, 0, len(labels))}
	for i, l := range labels {
		resp.Labels = append(resp.Labels, labelResponse{
			Index: i,
			Text:  l.Text,
			X:     l.Position.X,
			Y:     l.Position.Y,
		})
	}
	return resp
}

// ServeHTTP routes /api/labels and /api/labels/{index}.
func (h *LabelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	index, item, err := pathIndex(r.URL.Path, "/api/labels")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid label index")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	if !item {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		case http.MethodDelete:
			h.clear(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.edit(w, r, index)
	case http.MethodDelete:
		h.delete(w, r, index)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/labels.
func (h *LabelHandler) list(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)
}

// create handles POST /api/labels. Blank text is accepted and ignored.
func (h *LabelHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createLabelRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	pos := annotation.Position{X: req.X, Y: req.Y}
	if err := h.viewer.AddLabel(r.Context(), req.Text, pos); err != nil {
		h.fail(w, r, err, "Failed to add label")
		return
	}

	h.respond(w, r, http.StatusCreated)
}

// edit handles PUT /api/labels/{index}. Unknown indexes are ignored.
func (h *LabelHandler) edit(w http.ResponseWriter, r *http.Request, index int) {
	var req editLabelRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	if err := h.viewer.EditLabel(r.Context(), index, req.Text); err != nil {
		h.fail(w, r, err, "Failed to edit label")
		return
	}

	h.respond(w, r, http.StatusOK)
}

// delete handles DELETE /api/labels/{index}. Unknown indexes are ignored.
func (h *LabelHandler) delete(w http.ResponseWriter, r *http.Request, index int) {
	if err := h.viewer.DeleteLabel(r.Context(), index); err != nil {
		h.fail(w, r, err, "Failed to delete label")
		return
	}

	h.respond(w, r, http.StatusOK)
}

// clear handles DELETE /api/labels.
func (h *LabelHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.viewer.ClearLabels(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to clear labels")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LabelHandler) respond(w http.ResponseWriter, r *http.Request, status int) {
	labels, err := h.viewer.Labels(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to list labels")
		return
	}
	writeJSON(w, status, toLabelsResponse(labels))
}

func (h *LabelHandler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	failViewer(w, r, h.log, err, msg)
}

// failViewer maps viewer errors to a status code.
func failViewer(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error, msg string) {
	switch {
	case errors.Is(err, viewer.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "Viewer is shutting down")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Request timed out")
	case errors.Is(err, viewer.ErrNoImage):
		writeError(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, viewer.ErrViewportTooLarge):
		writeError(w, http.StatusBadRequest, "Viewport too large")
	default:
		logFailure(log, r, err, msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
