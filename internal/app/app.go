// Package app drives the gesture view: it owns the camera capture session
// and feeds detected frames through the render loop one at a time.
package app

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/capture"
	"github.com/ayusman/cosmozoom/internal/detector"
	"github.com/ayusman/cosmozoom/internal/gesture"
	"github.com/ayusman/cosmozoom/internal/log"
	"github.com/ayusman/cosmozoom/internal/render"
)

// Config holds configuration options for the gesture view.
type Config struct {
	CanvasWidth  int
	CanvasHeight int
	// Overlay is the controlled object. It may be nil.
	Overlay   image.Image
	Smoothing bool
	Logger    *logrus.Logger
}

// Update describes one processed frame.
type Update struct {
	Session   string         `json:"session"`
	Seq       uint64         `json:"seq"`
	Signal    gesture.Signal `json:"signal"`
	Hands     int            `json:"hands"`
	Timestamp int64          `json:"timestamp"`
}

// App is the gesture view. Between Start and Stop a producer goroutine reads
// camera frames and runs the detector, and a single consumer draws them.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	logger   *logrus.Logger

	loop    *render.Loop
	surface *render.RGBASurface

	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
	session string
	size    image.Point
	resized bool
	signal  gesture.Signal
	canvas  *image.NRGBA
	seq     uint64

	subMu  sync.Mutex
	subs   map[int]func(Update)
	nextID int
}

// New creates the gesture view over a camera and a hand detector.
func New(config Config, camera capture.Camera, det detector.Detector) *App {
	if config.CanvasWidth <= 0 {
		config.CanvasWidth = capture.DefaultWidth
	}
	if config.CanvasHeight <= 0 {
		config.CanvasHeight = capture.DefaultHeight
	}
	if config.Logger == nil {
		config.Logger = log.Discard()
	}

	surface := render.NewRGBASurface(config.CanvasWidth, config.CanvasHeight)
	loop := render.NewLoop(surface, config.Overlay, gesture.WithSmoothing(config.Smoothing))

	return &App{
		config:   config,
		camera:   camera,
		detector: det,
		logger:   config.Logger,
		loop:     loop,
		surface:  surface,
		size:     image.Pt(config.CanvasWidth, config.CanvasHeight),
		signal:   loop.Signal(),
		subs:     make(map[int]func(Update)),
	}
}

// Start opens the camera and begins processing frames. If the camera
// cannot be opened the error is returned and no session is left running.
// Calling Start on a running App does nothing.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		if cerr := a.camera.Close(); cerr != nil {
			a.logger.WithError(cerr).Warn("closing camera after failed open")
		}
		return errors.Wrap(err, "start capture session")
	}

	runCtx, cancel := context.WithCancel(ctx)
	frames := make(chan render.Frame)
	done := make(chan struct{})

	a.cancel = cancel
	a.done = done
	a.session = uuid.NewString()

	entry := a.logger.WithField("session_id", a.session)

	go a.produce(runCtx, frames, entry)
	go func() {
		a.consume(frames, entry)
		cancel()

		// The parent context ended the session; Stop has not claimed it.
		a.mu.Lock()
		ended := a.done == done
		if ended {
			a.cancel = nil
			a.done = nil
		}
		a.mu.Unlock()
		if ended {
			entry.WithField("frames", a.Frames()).Info("capture session ended")
		}

		close(done)
	}()

	entry.WithField("fps", a.camera.FPS()).Info("capture session started")
	return nil
}

// Stop ends the capture session and releases the camera. It is safe to call
// at any time and more than once.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done, session := a.cancel, a.done, a.session
	a.cancel = nil
	a.done = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := a.camera.Close(); err != nil {
		a.logger.WithError(err).Warn("closing camera")
	}

	if cancel != nil {
		a.logger.WithFields(logrus.Fields{
			"session_id": session,
			"frames":     a.Frames(),
		}).Info("capture session stopped")
	}
}

// Close stops the session and shuts the detector down.
func (a *App) Close() error {
	a.Stop()
	if a.detector == nil {
		return nil
	}
	return a.detector.Close()
}

// Running reports whether a capture session is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// Session returns the id of the current or most recent capture session.
func (a *App) Session() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Resize sets the canvas size. It takes effect before the next frame is drawn.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.size = image.Pt(width, height)
	a.resized = true
}

// Size returns the canvas size, including a pending resize.
func (a *App) Size() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size.X, a.size.Y
}

// Signal returns the latest gesture signal.
func (a *App) Signal() gesture.Signal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.signal
}

// Frames returns how many frames have been drawn since New.
func (a *App) Frames() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.seq
}

// Canvas returns a copy of the most recently drawn canvas, or nil before the
// first frame.
func (a *App) Canvas() image.Image {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.canvas == nil {
		return nil
	}
	return a.canvas
}

// Subscribe registers fn to be called after every drawn frame. fn runs on
// the consumer goroutine and must not block. The returned func unregisters it.
func (a *App) Subscribe(fn func(Update)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextID
	a.nextID++
	a.subs[id] = fn

	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subs, id)
	}
}

func (a *App) publish(u Update) {
	a.subMu.Lock()
	subs := make([]func(Update), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.subMu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
