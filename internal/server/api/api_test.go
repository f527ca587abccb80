package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"

	"github.com/ayusman/cosmozoom/internal/annotation"
	"github.com/ayusman/cosmozoom/internal/gesture"
	"github.com/ayusman/cosmozoom/internal/log"
	"github.com/ayusman/cosmozoom/internal/view"
	"github.com/ayusman/cosmozoom/internal/viewer"
)

// newTestViewer creates a viewer session over an in-memory store with one
// image on disk.
func newTestViewer(t *testing.T) *viewer.Session {
	t.Helper()

	store, err := annotation.New(annotation.NewMemoryKV())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	path := filepath.Join(t.TempDir(), "m31.png")
	if err := imaging.Save(imaging.New(40, 20, color.NRGBA{R: 200, A: 255}), path); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}

	s := viewer.New(store, viewer.ImagesFromPaths([]string{path}), view.Rect{W: 400, H: 200}, nil)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestLabelHandler(t *testing.T) {
	v := newTestViewer(t)
	h := NewLabelHandler(v, validator.New(), log.Discard())

	rec := do(t, h, http.MethodPost, "/api/labels", `{"text":" Vega ","x":0.25,"y":0.75}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var created listLabelsResponse
	decodeBody(t, rec, &created)
	if len(created.Labels) != 1 || created.Labels[0].Text != "Vega" || created.Labels[0].X != 0.25 {
		t.Errorf("unexpected labels %+v", created.Labels)
	}

	do(t, h, http.MethodPost, "/api/labels", `{"text":"Deneb","x":0.5,"y":0.5}`)

	rec = do(t, h, http.MethodPut, "/api/labels/0", `{"text":"Altair"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: expected status 200, got %d", rec.Code)
	}
	var edited listLabelsResponse
	decodeBody(t, rec, &edited)
	if edited.Labels[0].Text != "Altair" {
		t.Errorf("expected Altair, got %s", edited.Labels[0].Text)
	}

	rec = do(t, h, http.MethodDelete, "/api/labels/0", "")
	var remaining listLabelsResponse
	decodeBody(t, rec, &remaining)
	if len(remaining.Labels) != 1 || remaining.Labels[0].Text != "Deneb" || remaining.Labels[0].Index != 0 {
		t.Errorf("unexpected labels after delete %+v", remaining.Labels)
	}

	rec = do(t, h, http.MethodDelete, "/api/labels/7", "")
	if rec.Code != http.StatusOK {
		t.Errorf("out of range delete: expected 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/labels", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("clear: expected 204, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/labels", "")
	var empty listLabelsResponse
	decodeBody(t, rec, &empty)
	if len(empty.Labels) != 0 {
		t.Errorf("expected no labels, got %d", len(empty.Labels))
	}
}

func TestLabelHandler_BadRequests(t *testing.T) {
	v := newTestViewer(t)
	h := NewLabelHandler(v, validator.New(), log.Discard())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "position out of image", method: http.MethodPost, path: "/api/labels", body: `{"text":"x","x":1.5,"y":0}`, want: http.StatusBadRequest},
		{name: "missing text", method: http.MethodPost, path: "/api/labels", body: `{"x":0.5,"y":0.5}`, want: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/api/labels", body: `{`, want: http.StatusBadRequest},
		{name: "bad index", method: http.MethodPut, path: "/api/labels/first", body: `{"text":"x"}`, want: http.StatusBadRequest},
		{name: "method on item", method: http.MethodGet, path: "/api/labels/0", want: http.StatusMethodNotAllowed},
		{name: "method on collection", method: http.MethodPatch, path: "/api/labels", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/api/labels", `{"text":"x","x":1.5,"y":0}`)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Fields["x"] != "lte" {
		t.Errorf("expected field error on x, got %+v", resp.Fields)
	}
}

func TestLabelHandler_ClosedViewer(t *testing.T) {
	v := newTestViewer(t)
	h := NewLabelHandler(v, validator.New(), log.Discard())
	v.Close()

	rec := do(t, h, http.MethodGet, "/api/labels", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

func TestViewHandler(t *testing.T) {
	v := newTestViewer(t)
	h := NewViewHandler(v, validator.New(), log.Discard())

	rec := do(t, h, http.MethodPost, "/api/view/events", `{"type":"dblclick","x":100,"y":150,"text":"Nebula"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body)
	}
	var st viewer.State
	decodeBody(t, rec, &st)
	if len(st.Labels) != 1 || st.Labels[0].Position != (annotation.Position{X: 0.25, Y: 0.75}) {
		t.Errorf("unexpected labels %+v", st.Labels)
	}

	rec = do(t, h, http.MethodPost, "/api/view/events", `{"type":"zoom_in"}`)
	decodeBody(t, rec, &st)
	if st.Transform.Scale != 1.5 {
		t.Errorf("expected scale 1.5, got %f", st.Transform.Scale)
	}

	rec = do(t, h, http.MethodGet, "/api/view", "")
	decodeBody(t, rec, &st)
	if st.Transform.Scale != 1.5 || st.Image != 0 {
		t.Errorf("unexpected state %+v", st)
	}

	rec = do(t, h, http.MethodPost, "/api/view/events", `{"type":"pinch"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown event: expected 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/view/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("snapshot is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("snapshot size %v, want 400x200", b)
	}

	rec = do(t, h, http.MethodGet, "/api/view/events", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/view/other", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestViewHandler_OversizedResize(t *testing.T) {
	v := newTestViewer(t)
	h := NewViewHandler(v, validator.New(), log.Discard())

	for _, body := range []string{
		`{"type":"resize","width":1e10,"height":1e10}`,
		`{"type":"resize","width":60000,"height":60000}`,
		`{"type":"resize","width":7681,"height":600}`,
		`{"type":"resize","width":800,"height":4321}`,
	} {
		rec := do(t, h, http.MethodPost, "/api/view/events", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/view/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("snapshot is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("snapshot size %v, want the unchanged 400x200", b)
	}
}

func TestFailViewer_ViewportTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/view/events", nil)
	failViewer(rec, req, log.Discard(), fmt.Errorf("apply: %w", viewer.ErrViewportTooLarge), "Failed to apply event")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestImageHandler(t *testing.T) {
	v := newTestViewer(t)
	ctx := context.Background()
	if err := v.AddLabel(ctx, "Core", annotation.Position{X: 0.5, Y: 0.5}); err != nil {
		t.Fatal(err)
	}

	h := NewImageHandler(v, validator.New(), log.Discard())

	rec := do(t, h, http.MethodGet, "/api/images", "")
	var list listImagesResponse
	decodeBody(t, rec, &list)
	if len(list.Images) != 1 || list.Images[0].Name != "m31" || list.Current != 0 {
		t.Errorf("unexpected images %+v", list)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing index", body: `{}`, want: http.StatusBadRequest},
		{name: "negative index", body: `{"index":-1}`, want: http.StatusBadRequest},
		{name: "unknown image", body: `{"index":3}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/api/images/select", tt.body); rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	rec = do(t, h, http.MethodPost, "/api/images/select", `{"index":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var st viewer.State
	decodeBody(t, rec, &st)
	if len(st.Labels) != 0 {
		t.Errorf("selecting an image should clear labels, got %d", len(st.Labels))
	}
}

// fakeGestureView records calls from the handler.
type fakeGestureView struct {
	mu       sync.Mutex
	running  bool
	startErr error
	starts   int
	stops    int
	w, h     int
}

func (f *fakeGestureView) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeGestureView) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
}

func (f *fakeGestureView) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeGestureView) Session() string { return "session-1" }

func (f *fakeGestureView) Signal() gesture.Signal {
	return gesture.Signal{Position: view.Pt(320, 240), Scale: 1}
}

func (f *fakeGestureView) Frames() uint64 { return 0 }

func (f *fakeGestureView) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w, f.h
}

func (f *fakeGestureView) Resize(w, h int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.w, f.h = w, h
}

func TestGestureHandler(t *testing.T) {
	fake := &fakeGestureView{w: 640, h: 480}
	h := NewGestureHandler(context.Background(), fake, validator.New(), log.Discard())

	rec := do(t, h, http.MethodPost, "/api/gesture", `{"enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status gestureStatusResponse
	decodeBody(t, rec, &status)
	if !status.Running || status.Session != "session-1" || status.Signal.Scale != 1 {
		t.Errorf("unexpected status %+v", status)
	}

	rec = do(t, h, http.MethodPost, "/api/gesture/resize", `{"width":1280,"height":720}`)
	decodeBody(t, rec, &status)
	if status.Width != 1280 || status.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", status.Width, status.Height)
	}

	rec = do(t, h, http.MethodPost, "/api/gesture/resize", `{"width":0,"height":720}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty width, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/gesture", `{"enabled":false}`)
	decodeBody(t, rec, &status)
	if status.Running || fake.stops != 1 {
		t.Errorf("expected stopped view, got %+v (stops %d)", status, fake.stops)
	}

	rec = do(t, h, http.MethodPost, "/api/gesture", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without enabled, got %d", rec.Code)
	}
}

func TestGestureHandler_StartFailure(t *testing.T) {
	fake := &fakeGestureView{startErr: errors.New("no camera")}
	h := NewGestureHandler(context.Background(), fake, validator.New(), log.Discard())

	rec := do(t, h, http.MethodPost, "/api/gesture", `{"enabled":true}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if fake.Running() {
		t.Error("view should not be running")
	}

	rec = do(t, h, http.MethodGet, "/api/gesture", "")
	var status gestureStatusResponse
	decodeBody(t, rec, &status)
	if status.Running || status.Session != "" {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestPathIndex(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantOK  bool
		wantErr bool
	}{
		{path: "/api/labels", wantOK: false},
		{path: "/api/labels/", wantOK: false},
		{path: "/api/labels/3", want: 3, wantOK: true},
		{path: "/api/labels/x", wantOK: true, wantErr: true},
	}

	for _, tt := range tests {
		got, ok, err := pathIndex(tt.path, "/api/labels")
		if got != tt.want || ok != tt.wantOK || (err != nil) != tt.wantErr {
			t.Errorf("pathIndex(%q) = %d, %v, %v", tt.path, got, ok, err)
		}
	}
}
