// Package view provides the pan/zoom geometry of the image viewport and the
// interaction controller that turns pointer input into transform updates.
package view

import "math"

// Zoom limits and input constants.
const (
	// MinScale is the smallest allowed zoom factor.
	MinScale = 0.1
	// MaxScale is the largest allowed zoom factor.
	MaxScale = 10.0
	// WheelSensitivity converts one unit of wheel delta into a relative zoom change.
	WheelSensitivity = 0.0015
	// ButtonStep is the additive scale change of the zoom in/out buttons.
	ButtonStep = 0.5
)

// Point is a 2D point or vector in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns p scaled by k.
func (p Point) Mul(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Transform maps viewport-relative image pixels to viewport-relative screen
// pixels: screen = Offset + Scale*image.
type Transform struct {
	Scale  float64 `json:"scale"`
	Offset Point   `json:"offset"`
}

// Identity returns the transform a viewport starts with.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Reset puts the transform back to identity.
func (t *Transform) Reset() {
	*t = Identity()
}

// ToScreenSpace maps an image point to screen space.
func (t Transform) ToScreenSpace(img Point) Point {
	return t.Offset.Add(img.Mul(t.Scale))
}

// ToImageSpace maps a screen point to image space. It is the exact inverse
// of ToScreenSpace.
func (t Transform) ToImageSpace(screen Point) Point {
	return screen.Sub(t.Offset).Mul(1 / t.Scale)
}

// PanBy translates the transform by a screen-space delta.
func (t *Transform) PanBy(delta Point) {
	t.Offset = t.Offset.Add(delta)
}

// ZoomAt applies a wheel delta at screen point p. The image point under p
// stays under p, including when the new scale is clamped to a bound.
func (t *Transform) ZoomAt(p Point, wheelDelta float64) {
	factor := 1 + (-wheelDelta * WheelSensitivity)
	t.rescale(p, t.Scale*factor)
}

// ZoomBy adds step to the scale, keeping anchor fixed on screen. Unlike a
// bare scale change, the offset moves too: with the viewport centre as
// anchor the centred content stays centred instead of drifting towards the
// bottom right.
func (t *Transform) ZoomBy(step float64, anchor Point) {
	t.rescale(anchor, t.Scale+step)
}

func (t *Transform) rescale(anchor Point, target float64) {
	if t.Scale <= 0 || math.IsNaN(t.Scale) {
		t.Reset()
	}

	newScale := ClampScale(target)
	ratio := newScale / t.Scale

	t.Offset = t.Offset.Sub(anchor.Sub(t.Offset).Mul(ratio - 1))
	t.Scale = newScale
}

// ClampScale bounds s to [MinScale, MaxScale]. NaN and non-positive values
// map to MinScale.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) || s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
