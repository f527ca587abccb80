package gesture

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"

	"github.com/ayusman/cosmozoom/internal/detector"
	"github.com/ayusman/cosmozoom/internal/view"
)

// Scale mapping from the left hand span.
const (
	// SpanCalibration is the thumb-to-pinky distance in canvas pixels that
	// maps to scale 1.0.
	SpanCalibration = 150.0
	MinSignalScale  = 0.3
	MaxSignalScale  = 3.0
)

// Kalman parameters for position smoothing. Control input is zero so a
// still hand does not drift.
const (
	smoothDT      = 1.0
	smoothStdDevA = 2.0
	smoothStdDevM = 4.0
)

// Signal is the control value for the overlay object.
type Signal struct {
	Position view.Point `json:"position"`
	Scale    float64    `json:"scale"`
}

// Extractor keeps the sticky signal. Each field is overwritten only when
// its role is observed; an absent role leaves the previous value in place.
//
// An Extractor is not safe for concurrent use.
type Extractor struct {
	width  float64
	height float64
	signal Signal

	smoothing bool
	filter    *kalman_filter.Kalman2D
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSmoothing runs the fingertip position through a 2D Kalman filter.
func WithSmoothing(enabled bool) Option {
	return func(e *Extractor) {
		e.smoothing = enabled
	}
}

// NewExtractor creates an extractor for a width×height canvas. The signal
// starts at the canvas centre with scale 1.
func NewExtractor(width, height float64, opts ...Option) *Extractor {
	e := &Extractor{
		width:  width,
		height: height,
		signal: Signal{Position: view.Pt(width/2, height/2), Scale: 1},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resize changes the canvas dimensions used for subsequent frames. The
// current signal is kept.
func (e *Extractor) Resize(width, height float64) {
	e.width = width
	e.height = height
}

// Signal returns the current signal.
func (e *Extractor) Signal() Signal {
	return e.signal
}

// Update applies one frame's roles and returns the resulting signal.
func (e *Extractor) Update(roles Roles) Signal {
	if roles.Right != nil {
		x, y := roles.Right.Pixel(detector.IndexTip, e.width, e.height)
		e.signal.Position = e.smooth(x, y)
	}

	if roles.Left != nil {
		e.signal.Scale = SpanScale(*roles.Left, e.width, e.height)
	}

	return e.signal
}

func (e *Extractor) smooth(x, y float64) view.Point {
	if !e.smoothing {
		return view.Pt(x, y)
	}

	if e.filter == nil {
		e.filter = kalman_filter.NewKalman2D(smoothDT, 0, 0, smoothStdDevA, smoothStdDevM, smoothStdDevM, kalman_filter.WithState2D(x, y))
		return view.Pt(x, y)
	}

	e.filter.Predict()
	if err := e.filter.Update(x, y); err != nil {
		// Singular innovation; fall back to the raw measurement.
		return view.Pt(x, y)
	}
	sx, sy := e.filter.GetState()
	return view.Pt(sx, sy)
}

// SpanScale maps the thumb-to-pinky distance of hand, measured in a
// width×height canvas, to a scale in [MinSignalScale, MaxSignalScale].
func SpanScale(hand detector.HandLandmarks, width, height float64) float64 {
	tx, ty := hand.Pixel(detector.ThumbTip, width, height)
	px, py := hand.Pixel(detector.PinkyTip, width, height)

	s := math.Hypot(tx-px, ty-py) / SpanCalibration
	return math.Max(MinSignalScale, math.Min(MaxSignalScale, s))
}
