// Package server provides the HTTP server for the CosmoZoom viewer and
// gesture view.
package server

import (
	"context"
	"errors"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/cosmozoom/internal/app"
	"github.com/ayusman/cosmozoom/internal/log"
	"github.com/ayusman/cosmozoom/internal/server/api"
	"github.com/ayusman/cosmozoom/internal/viewer"
)

// Defaults for the per-client request limiter and the signal push rate.
const (
	DefaultRequestRate  = rate.Limit(200)
	DefaultRequestBurst = 400
	DefaultSignalRate   = rate.Limit(30)
)

// GestureView is the gesture view the server exposes.
type GestureView interface {
	api.GestureView
	Canvas() image.Image
	Subscribe(fn func(app.Update)) func()
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Viewer    *viewer.Session
	Gesture   GestureView
	Logger    *logrus.Logger

	RequestRate  rate.Limit
	RequestBurst int
	SignalRate   rate.Limit
}

// Server represents the HTTP server for the CosmoZoom application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	log     *logrus.Logger
	start   time.Time

	base   context.Context
	cancel context.CancelFunc
	hub    *SignalHub

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = log.Discard()
	}
	if config.RequestRate <= 0 {
		config.RequestRate = DefaultRequestRate
	}
	if config.RequestBurst <= 0 {
		config.RequestBurst = DefaultRequestBurst
	}
	if config.SignalRate <= 0 {
		config.SignalRate = DefaultSignalRate
	}

	base, cancel := context.WithCancel(context.Background())

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		log:    config.Logger,
		start:  time.Now(),
		base:   base,
		cancel: cancel,
	}
	s.setupRoutes()

	limiter := newRateLimiter(config.RequestRate, config.RequestBurst)
	s.handler = requestLogger(s.log, limiter.middleware(s.log, s.mux))

	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	validate := validator.New()

	if s.config.Viewer != nil {
		labels := api.NewLabelHandler(s.config.Viewer, validate, s.log)
		s.mux.Handle("/api/labels", labels)
		s.mux.Handle("/api/labels/", labels)

		views := api.NewViewHandler(s.config.Viewer, validate, s.log)
		s.mux.Handle("/api/view", views)
		s.mux.Handle("/api/view/", views)

		images := api.NewImageHandler(s.config.Viewer, validate, s.log)
		s.mux.Handle("/api/images", images)
		s.mux.Handle("/api/images/", images)
	}

	if s.config.Gesture != nil {
		gestures := api.NewGestureHandler(s.base, s.config.Gesture, validate, s.log)
		s.mux.Handle("/api/gesture", gestures)
		s.mux.Handle("/api/gesture/", gestures)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Gesture))

		s.hub = NewSignalHub(s.config.Gesture, s.config.SignalRate, s.log)
		s.mux.Handle("/api/signal", s.hub)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Gesture != nil {
		response["gesture"] = s.config.Gesture.Running()
	}
	if s.hub != nil {
		response["signal_clients"] = s.hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address. It returns
// nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.log.WithField("addr", addr).Info("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes signal clients and cancels the
// context gesture sessions were started with.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.hub != nil {
		s.hub.Close()
	}
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
