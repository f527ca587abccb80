package view

import "github.com/ayusman/cosmozoom/internal/annotation"

// Button identifies a pointer button.
type Button int

// Pointer buttons, numbered as browsers report them.
const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// Menu is the context menu opened on a label.
type Menu struct {
	Index int   `json:"index"`
	At    Point `json:"at"`
}

// DoubleClickKind says what a double-activation resolved to.
type DoubleClickKind int

const (
	// DoubleClickIgnored means the point was outside the image.
	DoubleClickIgnored DoubleClickKind = iota
	// DoubleClickPlace means a label should be created at Position.
	DoubleClickPlace
	// DoubleClickReset means the view was reset.
	DoubleClickReset
)

// DoubleClickResult is the outcome of Controller.DoubleClick.
type DoubleClickResult struct {
	Kind     DoubleClickKind
	Position annotation.Position
}

// Controller turns raw viewport input into Transform updates, placement
// requests and label selection. Points passed in are in client space; the
// viewport rect maps them to viewport-relative space.
//
// A Controller is not safe for concurrent use. Callers serialize access.
type Controller struct {
	viewport  Rect
	transform Transform

	panning   bool
	panAnchor Point
	gesture   bool

	selected int
	menu     *Menu
}

// NewController creates a controller for a viewport with an identity transform.
func NewController(viewport Rect) *Controller {
	return &Controller{
		viewport:  viewport,
		transform: Identity(),
		selected:  -1,
	}
}

// SetViewport updates the viewport rect, e.g. after a resize.
func (c *Controller) SetViewport(r Rect) {
	c.viewport = r
}

// Viewport returns the viewport rect in client space.
func (c *Controller) Viewport() Rect {
	return c.viewport
}

// Size returns the unscaled viewport width and height.
func (c *Controller) Size() Point {
	return Point{X: c.viewport.W, Y: c.viewport.H}
}

// Transform returns the current view transform.
func (c *Controller) Transform() Transform {
	return c.transform
}

func (c *Controller) local(p Point) Point {
	return p.Sub(c.viewport.Origin())
}

// Wheel zooms by deltaY around the client point p.
func (c *Controller) Wheel(p Point, deltaY float64) {
	c.transform.ZoomAt(c.local(p), deltaY)
}

// ZoomIn steps the scale up around the viewport centre. The offset is
// adjusted so the image point at the centre stays there.
func (c *Controller) ZoomIn() {
	c.transform.ZoomBy(ButtonStep, c.Size().Mul(0.5))
}

// ZoomOut steps the scale down around the viewport centre.
func (c *Controller) ZoomOut() {
	c.transform.ZoomBy(-ButtonStep, c.Size().Mul(0.5))
}

// PointerDown starts a pan on a primary-button press. It reports whether a
// pan started.
func (c *Controller) PointerDown(p Point, b Button) bool {
	if b != ButtonPrimary || c.gesture {
		return false
	}
	c.panning = true
	c.panAnchor = c.local(p).Sub(c.transform.Offset)
	return true
}

// PointerMove drags the image while a pan is active.
func (c *Controller) PointerMove(p Point) bool {
	if !c.panning {
		return false
	}
	c.transform.Offset = c.local(p).Sub(c.panAnchor)
	return true
}

// PointerUp ends any active pan.
func (c *Controller) PointerUp() {
	c.panning = false
}

// Panning reports whether a pan is in progress.
func (c *Controller) Panning() bool {
	return c.panning
}

// SetGestureActive blocks pointer panning while a gesture owns the input.
func (c *Controller) SetGestureActive(active bool) {
	c.gesture = active
	if active {
		c.panning = false
	}
}

// DoubleClick resolves a double-activation at client point p. With a
// modifier held it resets the view regardless of position; otherwise it
// maps p into normalized image space and asks for a label there when the
// point lies on the unscaled image box.
func (c *Controller) DoubleClick(p Point, modifier bool) DoubleClickResult {
	if modifier {
		c.Reset()
		return DoubleClickResult{Kind: DoubleClickReset}
	}

	if c.viewport.W <= 0 || c.viewport.H <= 0 {
		return DoubleClickResult{Kind: DoubleClickIgnored}
	}

	img := c.transform.ToImageSpace(c.local(p))
	rel := annotation.Position{X: img.X / c.viewport.W, Y: img.Y / c.viewport.H}

	if rel.X < 0 || rel.X > 1 || rel.Y < 0 || rel.Y > 1 {
		return DoubleClickResult{Kind: DoubleClickIgnored}
	}

	return DoubleClickResult{Kind: DoubleClickPlace, Position: rel}
}

// Click handles a single activation. A hit on a label selects it and opens
// the menu at p; anything else closes the menu. Returns the hit index or -1.
func (c *Controller) Click(p Point, labels []annotation.Label) int {
	i := HitLabel(labels, c.transform, c.Size(), c.local(p))
	if i < 0 {
		c.menu = nil
		return -1
	}

	c.selected = i
	c.menu = &Menu{Index: i, At: p}
	return i
}

// Menu returns the open context menu, if any.
func (c *Controller) Menu() (Menu, bool) {
	if c.menu == nil {
		return Menu{}, false
	}
	return *c.menu, true
}

// CloseMenu closes the context menu without other side effects.
func (c *Controller) CloseMenu() {
	c.menu = nil
}

// Selected returns the selected label index or -1.
func (c *Controller) Selected() int {
	return c.selected
}

// LabelRemoved keeps the selection pointing at the same label after the
// label at index was deleted and the list compacted.
func (c *Controller) LabelRemoved(index int) {
	switch {
	case c.selected == index:
		c.selected = -1
	case c.selected > index:
		c.selected--
	}
	if c.menu != nil {
		switch {
		case c.menu.Index == index:
			c.menu = nil
		case c.menu.Index > index:
			c.menu.Index--
		}
	}
}

// ClearSelection drops the selection and closes the menu.
func (c *Controller) ClearSelection() {
	c.selected = -1
	c.menu = nil
}

// Reset restores the identity transform and clears selection and menu.
func (c *Controller) Reset() {
	c.transform.Reset()
	c.panning = false
	c.ClearSelection()
}
