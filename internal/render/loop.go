package render

import (
	"image"
	"image/color"
	"math"

	"github.com/ayusman/cosmozoom/internal/detector"
	"github.com/ayusman/cosmozoom/internal/gesture"
)

// Frame is one detector result: the camera image and the hands found in it.
type Frame struct {
	Image image.Image
	Hands []detector.HandLandmarks
}

// Background is the colour the canvas is cleared to.
var Background = color.Black

// Loop draws one frame at a time onto a surface and keeps the gesture signal.
// It is not safe for concurrent use; a single consumer drives it.
type Loop struct {
	surface   Surface
	extractor *gesture.Extractor
	overlay   image.Image
}

// NewLoop creates a loop drawing onto s. overlay may be nil.
func NewLoop(s Surface, overlay image.Image, opts ...gesture.Option) *Loop {
	w, h := s.Size()
	return &Loop{
		surface:   s,
		extractor: gesture.NewExtractor(float64(w), float64(h), opts...),
		overlay:   overlay,
	}
}

// Surface returns the surface the loop draws on.
func (l *Loop) Surface() Surface {
	return l.surface
}

// Signal returns the current gesture signal.
func (l *Loop) Signal() gesture.Signal {
	return l.extractor.Signal()
}

// Resize updates the surface and canvas dimensions for the next frame.
func (l *Loop) Resize(width, height int) {
	l.surface.Resize(width, height)
	l.extractor.Resize(float64(width), float64(height))
}

// Process draws f and returns the updated signal. The camera image is
// stretched to the canvas, every hand gets a skeleton and the overlay is
// drawn centred on the signal position at the signal scale.
func (l *Loop) Process(f Frame) gesture.Signal {
	w, h := l.surface.Size()
	fw, fh := float64(w), float64(h)

	l.surface.Clear(Background)
	if f.Image != nil {
		l.surface.DrawImage(f.Image, image.Rect(0, 0, w, h))
	}

	for _, hand := range f.Hands {
		DrawHand(l.surface, hand, fw, fh)
	}

	sig := l.extractor.Update(gesture.Classify(f.Hands))

	if l.overlay != nil {
		l.surface.DrawImage(l.overlay, OverlayRect(l.overlay.Bounds(), sig))
	}

	return sig
}

// OverlayRect is the destination of an overlay of the given bounds centred
// on the signal position and scaled by the signal scale.
func OverlayRect(bounds image.Rectangle, sig gesture.Signal) image.Rectangle {
	w := float64(bounds.Dx()) * sig.Scale
	h := float64(bounds.Dy()) * sig.Scale
	x0 := int(math.Round(sig.Position.X - w/2))
	y0 := int(math.Round(sig.Position.Y - h/2))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}
