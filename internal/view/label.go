package view

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/ayusman/cosmozoom/internal/annotation"
)

// Label box metrics in screen pixels. They do not change with zoom.
const (
	LabelPadX     = 12
	LabelPadY     = 6
	LabelBorder   = 2
	LabelMinWidth = 60
)

// LabelFace is the font labels are rendered and measured with.
var LabelFace font.Face = basicfont.Face7x13

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the centre point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// LabelSize returns the on-screen width and height of a label box for text.
func LabelSize(text string) (w, h float64) {
	textW := float64(font.MeasureString(LabelFace, text).Ceil())
	if textW < LabelMinWidth {
		textW = LabelMinWidth
	}
	textH := float64(LabelFace.Metrics().Height.Ceil())

	w = textW + 2*LabelPadX + 2*LabelBorder
	h = textH + 2*LabelPadY + 2*LabelBorder
	return w, h
}

// LabelAnchor returns the viewport-relative screen point a label is centred on.
func LabelAnchor(l annotation.Label, t Transform, size Point) Point {
	img := Point{X: l.Position.X * size.X, Y: l.Position.Y * size.Y}
	return t.ToScreenSpace(img)
}

// LabelBox returns the viewport-relative rectangle a label is drawn in. The
// box is counter-scaled by 1/scale inside the image, so on screen it keeps
// the same size at every zoom level.
func LabelBox(l annotation.Label, t Transform, size Point) Rect {
	c := LabelAnchor(l, t, size)
	w, h := LabelSize(l.Text)
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}

// HitLabel returns the index of the topmost label whose box contains p, or -1.
func HitLabel(labels []annotation.Label, t Transform, size Point, p Point) int {
	for i := len(labels) - 1; i >= 0; i-- {
		if LabelBox(labels[i], t, size).Contains(p) {
			return i
		}
	}
	return -1
}
