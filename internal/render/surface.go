// Package render draws the gesture canvas: the camera frame, a skeleton for
// every detected hand and the overlay object driven by the gesture signal.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ayusman/cosmozoom/internal/view"
)

// Surface is a 2D immediate-mode drawing context.
type Surface interface {
	Size() (width, height int)
	Resize(width, height int)
	Clear(c color.Color)
	DrawImage(img image.Image, dst image.Rectangle)
	DrawCircle(center view.Point, radius float64, c color.Color)
	DrawLine(from, to view.Point, width float64, c color.Color)
	DrawText(topLeft view.Point, text string, c color.Color)
	FillRect(r image.Rectangle, c color.Color)
}

// RGBASurface is a Surface backed by an in-memory RGBA image.
type RGBASurface struct {
	img  *image.RGBA
	face font.Face
}

// NewRGBASurface creates a surface of the given size.
func NewRGBASurface(width, height int) *RGBASurface {
	return &RGBASurface{
		img:  image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		face: view.LabelFace,
	}
}

// Image returns the backing image. It is reused between frames.
func (s *RGBASurface) Image() *image.RGBA {
	return s.img
}

func (s *RGBASurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize replaces the backing image. Content is discarded, as with a
// resized canvas.
func (s *RGBASurface) Resize(width, height int) {
	if w, h := s.Size(); w == width && h == height {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

func (s *RGBASurface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage scales img into dst.
func (s *RGBASurface) DrawImage(img image.Image, dst image.Rectangle) {
	if img == nil || dst.Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(s.img, dst, img, img.Bounds(), xdraw.Over, nil)
}

// DrawCircle draws a filled disc.
func (s *RGBASurface) DrawCircle(center view.Point, radius float64, c color.Color) {
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	r := int(math.Round(radius))
	s.disc(cx, cy, r, c)
}

func (s *RGBASurface) disc(cx, cy, r int, c color.Color) {
	bounds := s.img.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			p := image.Pt(cx+dx, cy+dy)
			if p.In(bounds) {
				s.img.Set(p.X, p.Y, c)
			}
		}
	}
}

// DrawLine draws a line of the given stroke width.
func (s *RGBASurface) DrawLine(from, to view.Point, width float64, c color.Color) {
	x0, y0 := int(math.Round(from.X)), int(math.Round(from.Y))
	x1, y1 := int(math.Round(to.X)), int(math.Round(to.Y))
	half := int(math.Max(0, math.Round(width/2-0.5)))

	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}

	err := dx - dy
	for {
		s.disc(x0, y0, half, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawText draws a single line of text with its box's top-left corner at topLeft.
func (s *RGBASurface) DrawText(topLeft view.Point, text string, c color.Color) {
	ascent := s.face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: s.face,
		Dot:  fixed.P(int(math.Round(topLeft.X)), int(math.Round(topLeft.Y))+ascent),
	}
	d.DrawString(text)
}

func (s *RGBASurface) FillRect(r image.Rectangle, c color.Color) {
	draw.Draw(s.img, r.Intersect(s.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
