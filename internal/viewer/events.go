package viewer

import (
	"context"
	"fmt"

	"github.com/ayusman/cosmozoom/internal/view"
)

// EventType names a viewer input event.
type EventType string

const (
	EventWheel       EventType = "wheel"
	EventDown        EventType = "down"
	EventMove        EventType = "move"
	EventUp          EventType = "up"
	EventClick       EventType = "click"
	EventDoubleClick EventType = "dblclick"
	EventZoomIn      EventType = "zoom_in"
	EventZoomOut     EventType = "zoom_out"
	EventReset       EventType = "reset"
	EventResize      EventType = "resize"
	EventMenuEdit    EventType = "menu_edit"
	EventMenuRemove  EventType = "menu_remove"
	EventCloseMenu   EventType = "close_menu"
	EventGesture     EventType = "gesture"
)

// Event is one input event. Coordinates are client space. Answers to the
// label prompt and the remove confirmation travel with the event that asks
// for them: Text for dblclick and menu_edit, Confirm for menu_remove.
type Event struct {
	Type     EventType `json:"type"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	DeltaY   float64   `json:"delta_y"`
	Button   int       `json:"button"`
	Modifier bool      `json:"modifier"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Text     string    `json:"text"`
	Confirm  bool      `json:"confirm"`
	Active   bool      `json:"active"`
}

func (e Event) point() view.Point {
	return view.Pt(e.X, e.Y)
}

// Handle applies ev and returns the resulting state.
func (s *Session) Handle(ctx context.Context, ev Event) (State, error) {
	var st State
	err := s.do(ctx, func() error {
		err := s.apply(ev)
		st = s.state()
		return err
	})
	return st, err
}

func (s *Session) apply(ev Event) error {
	switch ev.Type {
	case EventWheel:
		s.ctrl.Wheel(ev.point(), ev.DeltaY)
	case EventDown:
		s.ctrl.PointerDown(ev.point(), view.Button(ev.Button))
	case EventMove:
		s.ctrl.PointerMove(ev.point())
	case EventUp:
		s.ctrl.PointerUp()
	case EventClick:
		s.ctrl.Click(ev.point(), s.store.List())
	case EventDoubleClick:
		res := s.ctrl.DoubleClick(ev.point(), ev.Modifier)
		if res.Kind == view.DoubleClickPlace {
			return s.store.Add(ev.Text, res.Position)
		}
	case EventZoomIn:
		s.ctrl.ZoomIn()
	case EventZoomOut:
		s.ctrl.ZoomOut()
	case EventReset:
		s.ctrl.Reset()
	case EventResize:
		if !(ev.Width <= MaxViewportWidth && ev.Height <= MaxViewportHeight) {
			return fmt.Errorf("%w: %gx%g", ErrViewportTooLarge, ev.Width, ev.Height)
		}
		if ev.Width > 0 && ev.Height > 0 {
			s.ctrl.SetViewport(view.Rect{X: ev.X, Y: ev.Y, W: ev.Width, H: ev.Height})
		}
	case EventMenuEdit:
		m, ok := s.ctrl.Menu()
		if !ok {
			return nil
		}
		s.ctrl.CloseMenu()
		return s.store.Edit(m.Index, ev.Text)
	case EventMenuRemove:
		m, ok := s.ctrl.Menu()
		if !ok {
			return nil
		}
		s.ctrl.CloseMenu()
		if !ev.Confirm {
			return nil
		}
		return s.deleteLabel(m.Index)
	case EventCloseMenu:
		s.ctrl.CloseMenu()
	case EventGesture:
		s.ctrl.SetGestureActive(ev.Active)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
