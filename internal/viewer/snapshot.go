package viewer

import (
	"context"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"

	"github.com/ayusman/cosmozoom/internal/annotation"
	"github.com/ayusman/cosmozoom/internal/render"
	"github.com/ayusman/cosmozoom/internal/view"
)

// Snapshot colours.
var (
	Background     = color.RGBA{R: 0x1a, G: 0x20, B: 0x2c, A: 0xff}
	LabelFill      = color.RGBA{R: 244, G: 67, B: 54, A: 255}
	LabelBorder    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	SelectedFill   = color.RGBA{R: 33, G: 150, B: 243, A: 255}
	SelectedBorder = color.RGBA{R: 0x90, G: 0xca, B: 0xf9, A: 0xff}
	LabelText      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Snapshot renders the viewport: the image under the current transform and
// the labels on top at constant screen size.
func (s *Session) Snapshot(ctx context.Context) (*image.RGBA, error) {
	var out *image.RGBA
	err := s.do(ctx, func() error {
		out = s.draw()
		return nil
	})
	return out, err
}

func (s *Session) draw() *image.RGBA {
	vp := s.ctrl.Viewport()
	surface := render.NewRGBASurface(int(math.Ceil(vp.W)), int(math.Ceil(vp.H)))
	surface.Clear(Background)

	t := s.ctrl.Transform()
	size := s.ctrl.Size()

	if s.img != nil {
		box := ContainRect(s.img.Bounds(), size)
		tl := t.ToScreenSpace(box.Origin())
		br := t.ToScreenSpace(view.Pt(box.X+box.W, box.Y+box.H))
		surface.DrawImage(s.img, pixelRect(tl, br))
	}

	selected := s.ctrl.Selected()
	for i, l := range s.store.List() {
		drawLabel(surface, l, t, size, i == selected)
	}

	return surface.Image()
}

// ContainRect places an image of the given bounds inside a box of size,
// centred and shrunk to fit. Images smaller than the box keep their size.
func ContainRect(bounds image.Rectangle, size view.Point) view.Rect {
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	if iw <= 0 || ih <= 0 {
		return view.Rect{}
	}

	k := math.Min(1, math.Min(size.X/iw, size.Y/ih))
	w, h := iw*k, ih*k
	return view.Rect{X: (size.X - w) / 2, Y: (size.Y - h) / 2, W: w, H: h}
}

func drawLabel(s render.Surface, l annotation.Label, t view.Transform, size view.Point, selected bool) {
	fill, border := LabelFill, LabelBorder
	if selected {
		fill, border = SelectedFill, SelectedBorder
	}

	box := view.LabelBox(l, t, size)
	outer := pixelRect(box.Origin(), view.Pt(box.X+box.W, box.Y+box.H))
	s.FillRect(outer, border)
	s.FillRect(outer.Inset(view.LabelBorder), fill)

	tw := float64(font.MeasureString(view.LabelFace, l.Text).Ceil())
	th := float64(view.LabelFace.Metrics().Height.Ceil())
	c := box.Center()
	s.DrawText(view.Pt(c.X-tw/2, c.Y-th/2), l.Text, LabelText)
}

func pixelRect(tl, br view.Point) image.Rectangle {
	return image.Rect(
		int(math.Round(tl.X)), int(math.Round(tl.Y)),
		int(math.Round(br.X)), int(math.Round(br.Y)),
	)
}
