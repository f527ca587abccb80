// Package viewer is the image viewer: a single session that owns the view
// controller, the label store and the current image. Every operation runs
// on one goroutine in arrival order.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cosmozoom/internal/annotation"
	"github.com/ayusman/cosmozoom/internal/log"
	"github.com/ayusman/cosmozoom/internal/render"
	"github.com/ayusman/cosmozoom/internal/view"
)

var (
	// ErrClosed is returned for operations on a closed session.
	ErrClosed = errors.New("viewer session closed")
	// ErrNoImage is returned when an image index is out of range.
	ErrNoImage = errors.New("no such image")
	// ErrViewportTooLarge is returned for a resize beyond the maximum viewport.
	ErrViewportTooLarge = errors.New("viewport too large")
)

// Largest viewport a session accepts. Snapshots allocate one pixel per unit.
const (
	MaxViewportWidth  = 7680
	MaxViewportHeight = 4320
)

// boundViewport clamps r to the maximum viewport size.
func boundViewport(r view.Rect) view.Rect {
	r.W = math.Min(r.W, MaxViewportWidth)
	r.H = math.Min(r.H, MaxViewportHeight)
	return r
}

// Image is an entry in the image list.
type Image struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ImagesFromPaths builds the image list, naming each entry after its file.
func ImagesFromPaths(paths []string) []Image {
	images := make([]Image, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		images = append(images, Image{Name: name, Path: p})
	}
	return images
}

// State is what a client needs to draw the viewer.
type State struct {
	Transform view.Transform     `json:"transform"`
	Viewport  view.Rect          `json:"viewport"`
	Menu      *view.Menu         `json:"menu,omitempty"`
	Selected  int                `json:"selected"`
	Panning   bool               `json:"panning"`
	Image     int                `json:"image"`
	Labels    []annotation.Label `json:"labels"`
}

// Session serializes all viewer mutations through one queue.
type Session struct {
	store  *annotation.Store
	ctrl   *view.Controller
	images []Image
	logger *logrus.Entry

	// owned by the run goroutine
	current int
	img     image.Image

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a session over store with the given viewport. The first image
// in the list is loaded if possible; labels are left as persisted.
func New(store *annotation.Store, images []Image, viewport view.Rect, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}

	s := &Session{
		store:   store,
		ctrl:    view.NewController(boundViewport(viewport)),
		images:  images,
		logger:  logger.WithField("component", "viewer"),
		current: -1,
		ops:     make(chan func()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if len(images) > 0 {
		if img, err := render.LoadImage(images[0].Path); err != nil {
			s.logger.WithError(err).WithField("path", images[0].Path).Warn("loading initial image")
		} else {
			s.current, s.img = 0, img
		}
	}

	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			return
		}
	}
}

// Close stops the session. Pending calls return ErrClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	op := func() { errc <- fn() }

	select {
	case s.ops <- op:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// state must run on the session goroutine.
func (s *Session) state() State {
	st := State{
		Transform: s.ctrl.Transform(),
		Viewport:  s.ctrl.Viewport(),
		Selected:  s.ctrl.Selected(),
		Panning:   s.ctrl.Panning(),
		Image:     s.current,
		Labels:    s.store.List(),
	}
	if m, ok := s.ctrl.Menu(); ok {
		st.Menu = &m
	}
	return st
}

// State returns the current viewer state.
func (s *Session) State(ctx context.Context) (State, error) {
	var st State
	err := s.do(ctx, func() error {
		st = s.state()
		return nil
	})
	return st, err
}

// Images returns the image list.
func (s *Session) Images() []Image {
	out := make([]Image, len(s.images))
	copy(out, s.images)
	return out
}

// SelectImage switches to the image at index. The new image starts with no
// labels and an identity view. If the image cannot be loaded nothing changes.
func (s *Session) SelectImage(ctx context.Context, index int) (State, error) {
	if index < 0 || index >= len(s.images) {
		return State{}, fmt.Errorf("%w: %d", ErrNoImage, index)
	}

	var st State
	err := s.do(ctx, func() error {
		img, err := render.LoadImage(s.images[index].Path)
		if err != nil {
			return err
		}

		s.current, s.img = index, img
		s.ctrl.Reset()
		clearErr := s.store.Clear()

		s.logger.WithFields(logrus.Fields{
			"index": index,
			"name":  s.images[index].Name,
		}).Info("image selected")

		st = s.state()
		return clearErr
	})
	return st, err
}

// Labels returns the labels in order.
func (s *Session) Labels(ctx context.Context) ([]annotation.Label, error) {
	var labels []annotation.Label
	err := s.do(ctx, func() error {
		labels = s.store.List()
		return nil
	})
	return labels, err
}

// AddLabel appends a label. Blank text is ignored.
func (s *Session) AddLabel(ctx context.Context, text string, pos annotation.Position) error {
	return s.do(ctx, func() error {
		return s.store.Add(text, pos)
	})
}

// EditLabel changes the text of the label at index. Blank text and unknown
// indexes are ignored.
func (s *Session) EditLabel(ctx context.Context, index int, text string) error {
	return s.do(ctx, func() error {
		return s.store.Edit(index, text)
	})
}

// DeleteLabel removes the label at index. Unknown indexes are ignored.
func (s *Session) DeleteLabel(ctx context.Context, index int) error {
	return s.do(ctx, func() error {
		return s.deleteLabel(index)
	})
}

func (s *Session) deleteLabel(index int) error {
	if index < 0 || index >= s.store.Len() {
		return nil
	}
	if err := s.store.Delete(index); err != nil {
		return err
	}
	s.ctrl.LabelRemoved(index)
	return nil
}

// ClearLabels removes every label.
func (s *Session) ClearLabels(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.ctrl.ClearSelection()
		return s.store.Clear()
	})
}
