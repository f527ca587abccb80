package app

import (
	"context"
	"errors"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/capture"
	"github.com/ayusman/cosmozoom/internal/render"
)

// produce reads camera frames at the camera rate, runs the detector and
// hands each result to the consumer. The channel is unbuffered so at most
// one frame is in flight. The camera is released when produce returns.
func (a *App) produce(ctx context.Context, out chan<- render.Frame, log *logrus.Entry) {
	defer close(out)
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.WithError(err).Warn("closing camera")
		}
	}()

	ticker := time.NewTicker(frameInterval(a.camera.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, ok := a.grab(log)
		if !ok {
			continue
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// grab reads one frame and detects hands in it. Read and conversion errors
// skip the frame; a detector error keeps the frame with no hands.
func (a *App) grab(log *logrus.Entry) (render.Frame, bool) {
	mat, err := a.camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrNoMoreFrames) {
			log.WithError(err).Debug("reading frame")
		}
		return render.Frame{}, false
	}
	defer mat.Close()

	captured, err := capture.FrameFromMat(mat)
	if err != nil {
		log.WithError(err).Debug("converting frame")
		return render.Frame{}, false
	}

	frame := render.Frame{Image: captured.Image}
	if a.detector != nil {
		hands, err := a.detector.Detect(mat)
		if err != nil {
			log.WithError(err).Warn("detecting hands")
		} else {
			frame.Hands = hands
		}
	}

	return frame, true
}

// consume is the only goroutine that touches the render loop.
func (a *App) consume(in <-chan render.Frame, log *logrus.Entry) {
	for frame := range in {
		a.applyResize(log)

		sig := a.loop.Process(frame)
		canvas := imaging.Clone(a.surface.Image())

		a.mu.Lock()
		a.signal = sig
		a.canvas = canvas
		a.seq++
		update := Update{
			Session:   a.session,
			Seq:       a.seq,
			Signal:    sig,
			Hands:     len(frame.Hands),
			Timestamp: time.Now().UnixMilli(),
		}
		a.mu.Unlock()

		a.publish(update)
	}
}

func (a *App) applyResize(log *logrus.Entry) {
	a.mu.Lock()
	size, pending := a.size, a.resized
	a.resized = false
	a.mu.Unlock()

	if !pending {
		return
	}

	a.loop.Resize(size.X, size.Y)
	log.WithFields(logrus.Fields{"width": size.X, "height": size.Y}).Debug("canvas resized")
}
