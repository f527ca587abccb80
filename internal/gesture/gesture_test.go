package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/cosmozoom/internal/detector"
	"github.com/ayusman/cosmozoom/internal/view"
)

const epsilon = 1e-9

func TestClassify(t *testing.T) {
	right1 := detector.PointingLandmarks(0.1, 0.1)
	right2 := detector.PointingLandmarks(0.9, 0.9)
	left1 := detector.SpanLandmarks(detector.Point3D{X: 0.2}, detector.Point3D{X: 0.4})
	left2 := detector.SpanLandmarks(detector.Point3D{X: 0.6}, detector.Point3D{X: 0.8})
	unknown := detector.OpenPalmLandmarks("Other")

	tests := []struct {
		name      string
		hands     []detector.HandLandmarks
		wantRight *detector.HandLandmarks
		wantLeft  *detector.HandLandmarks
	}{
		{name: "no hands"},
		{name: "right only", hands: []detector.HandLandmarks{right1}, wantRight: &right1},
		{name: "left only", hands: []detector.HandLandmarks{left1}, wantLeft: &left1},
		{name: "both", hands: []detector.HandLandmarks{left1, right1}, wantRight: &right1, wantLeft: &left1},
		{name: "duplicate right keeps first", hands: []detector.HandLandmarks{right1, right2}, wantRight: &right1},
		{name: "duplicate left keeps first", hands: []detector.HandLandmarks{left2, right1, left1}, wantRight: &right1, wantLeft: &left2},
		{name: "unknown tag ignored", hands: []detector.HandLandmarks{unknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := Classify(tt.hands)

			if (roles.Right == nil) != (tt.wantRight == nil) {
				t.Fatalf("Right = %v, want %v", roles.Right, tt.wantRight)
			}
			if tt.wantRight != nil && roles.Right.Points != tt.wantRight.Points {
				t.Error("wrong right hand chosen")
			}
			if (roles.Left == nil) != (tt.wantLeft == nil) {
				t.Fatalf("Left = %v, want %v", roles.Left, tt.wantLeft)
			}
			if tt.wantLeft != nil && roles.Left.Points != tt.wantLeft.Points {
				t.Error("wrong left hand chosen")
			}
			if roles.Empty() != (tt.wantRight == nil && tt.wantLeft == nil) {
				t.Errorf("Empty() = %v", roles.Empty())
			}
		})
	}
}

func TestClassify_DoesNotAliasInput(t *testing.T) {
	hands := []detector.HandLandmarks{detector.PointingLandmarks(0.5, 0.5)}
	roles := Classify(hands)

	hands[0].Points[detector.IndexTip].X = 0.99
	if roles.Right.Points[detector.IndexTip].X != 0.5 {
		t.Error("role shares storage with the detector output")
	}
}

func TestExtractor_InitialSignal(t *testing.T) {
	e := NewExtractor(640, 480)
	got := e.Signal()

	if got.Position != view.Pt(320, 240) {
		t.Errorf("Position = %v, want (320, 240)", got.Position)
	}
	if got.Scale != 1 {
		t.Errorf("Scale = %f, want 1", got.Scale)
	}
}

func TestExtractor_Stickiness(t *testing.T) {
	e := NewExtractor(640, 480)

	first := e.Update(Classify([]detector.HandLandmarks{detector.PointingLandmarks(0.5, 0.5)}))
	if math.Abs(first.Position.X-320) > 1e-6 || math.Abs(first.Position.Y-240) > 1e-6 {
		t.Fatalf("frame 1 Position = %v, want (320, 240)", first.Position)
	}

	second := e.Update(Classify(nil))
	if second.Position != first.Position {
		t.Errorf("frame 2 Position = %v, want %v", second.Position, first.Position)
	}
	if second.Scale != 1 {
		t.Errorf("frame 2 Scale = %f, want 1", second.Scale)
	}
}

func TestExtractor_FieldsAreIndependent(t *testing.T) {
	e := NewExtractor(640, 480)

	left := detector.SpanLandmarks(detector.Point3D{X: 0.1, Y: 0.5}, detector.Point3D{X: 0.1 + 300.0/640, Y: 0.5})
	e.Update(Classify([]detector.HandLandmarks{left}))
	if got := e.Signal(); math.Abs(got.Scale-2) > 1e-6 || got.Position != view.Pt(320, 240) {
		t.Fatalf("after left only: %+v, want scale 2 at centre", got)
	}

	e.Update(Classify([]detector.HandLandmarks{detector.PointingLandmarks(0.25, 0.75)}))
	got := e.Signal()
	if math.Abs(got.Scale-2) > 1e-6 {
		t.Errorf("right hand changed scale to %f", got.Scale)
	}
	if math.Abs(got.Position.X-160) > 1e-6 || math.Abs(got.Position.Y-360) > 1e-6 {
		t.Errorf("Position = %v, want (160, 360)", got.Position)
	}
}

func TestSpanScale(t *testing.T) {
	tests := []struct {
		name  string
		thumb detector.Point3D
		pinky detector.Point3D
		want  float64
	}{
		{
			name:  "calibration span",
			thumb: detector.Point3D{X: 0.5, Y: 0.5},
			pinky: detector.Point3D{X: 0.5 + 150.0/640, Y: 0.5},
			want:  1.0,
		},
		{
			name:  "vertical span uses canvas height",
			thumb: detector.Point3D{X: 0.5, Y: 0.2},
			pinky: detector.Point3D{X: 0.5, Y: 0.2 + 225.0/480},
			want:  1.5,
		},
		{
			name:  "tiny span clamps low",
			thumb: detector.Point3D{X: 0.5, Y: 0.5},
			pinky: detector.Point3D{X: 0.51, Y: 0.5},
			want:  MinSignalScale,
		},
		{
			name:  "touching tips clamp low",
			thumb: detector.Point3D{X: 0.5, Y: 0.5},
			pinky: detector.Point3D{X: 0.5, Y: 0.5},
			want:  MinSignalScale,
		},
		{
			name:  "huge span clamps high",
			thumb: detector.Point3D{X: 0, Y: 0},
			pinky: detector.Point3D{X: 1, Y: 1},
			want:  MaxSignalScale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpanScale(detector.SpanLandmarks(tt.thumb, tt.pinky), 640, 480)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SpanScale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractor_Resize(t *testing.T) {
	e := NewExtractor(640, 480)
	e.Update(Classify([]detector.HandLandmarks{detector.PointingLandmarks(0.5, 0.5)}))

	e.Resize(1280, 720)
	if got := e.Signal().Position; got.X < 319 || got.X > 321 {
		t.Errorf("Resize moved the sticky position to %v", got)
	}

	e.Update(Classify([]detector.HandLandmarks{detector.PointingLandmarks(0.5, 0.5)}))
	if got := e.Signal().Position; math.Abs(got.X-640) > 1e-6 || math.Abs(got.Y-360) > 1e-6 {
		t.Errorf("Position = %v, want (640, 360)", got)
	}
}

func TestExtractor_Smoothing(t *testing.T) {
	e := NewExtractor(640, 480, WithSmoothing(true))

	first := e.Update(Classify([]detector.HandLandmarks{detector.PointingLandmarks(0.25, 0.25)}))
	if math.Abs(first.Position.X-160) > epsilon || math.Abs(first.Position.Y-120) > epsilon {
		t.Fatalf("first smoothed position = %v, want the raw measurement", first.Position)
	}

	var got Signal
	for i := 0; i < 100; i++ {
		got = e.Update(Classify([]detector.HandLandmarks{detector.PointingLandmarks(0.5, 0.5)}))
	}
	if math.Abs(got.Position.X-320) > 2 || math.Abs(got.Position.Y-240) > 2 {
		t.Errorf("smoothed position = %v, want near (320, 240)", got.Position)
	}

	sticky := e.Update(Roles{})
	if sticky.Position != got.Position {
		t.Errorf("absent hand moved the smoothed position from %v to %v", got.Position, sticky.Position)
	}
}
