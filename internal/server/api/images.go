package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/viewer"
)

// ImageHandler lists the viewer images and switches between them.
type ImageHandler struct {
	viewer   *viewer.Session
	validate *validator.Validate
	log      *logrus.Logger
}

// NewImageHandler creates a new ImageHandler over the viewer session.
func NewImageHandler(v *viewer.Session, validate *validator.Validate, log *logrus.Logger) *ImageHandler {
	return &ImageHandler{viewer: v, validate: validate, log: log}
}

type imageResponse struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type listImagesResponse struct {
	Images  []imageResponse `json:"images"`
	Current int             `json:"current"`
}

type selectImageRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

// ServeHTTP routes /api/images and /api/images/select.
func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	switch r.URL.Path {
	case "/api/images", "/api/images/":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case "/api/images/select":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.selectImage(w, r)
	default:
		http.NotFound(w, r)
	}
}

// list handles GET /api/images.
func (h *ImageHandler) list(w http.ResponseWriter, r *http.Request) {
	st, err := h.viewer.State(r.Context())
	if err != nil {
		failViewer(w, r, h.log, err, "Failed to list images")
		return
	}

	images := h.viewer.Images()
	resp := listImagesResponse{
		Images:  make([]imageResponse, 0, len(images)),
		Current: st.Image,
	}
	for i, img := range images {
		resp.Images = append(resp.Images, imageResponse{Index: i, Name: img.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

// selectImage handles POST /api/images/select. Selecting an image clears
// the labels and resets the view.
func (h *ImageHandler) selectImage(w http.ResponseWriter, r *http.Request) {
	var req selectImageRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	st, err := h.viewer.SelectImage(r.Context(), *req.Index)
	if err != nil {
		failViewer(w, r, h.log, err, "Failed to select image")
		return
	}

	writeJSON(w, http.StatusOK, st)
}
