package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewCamera(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		cam := NewCamera(id)

		if cam == nil {
			t.Fatal("NewCamera returned nil")
		}
		if got := cam.FPS(); got != DefaultFPS {
			t.Errorf("device %d: FPS() = %d, want %d (default)", id, got, DefaultFPS)
		}
		if cam.IsOpen() {
			t.Errorf("device %d: camera should not be running initially", id)
		}
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "set to 10", fps: 10, wantFPS: 10},
		{name: "set to 24", fps: 24, wantFPS: 24},
		{name: "set to 0 should keep previous", fps: 0, wantFPS: 24},
		{name: "set to negative should keep previous", fps: -5, wantFPS: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestNewCamera_Options(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantFPS    int
		wantWidth  int
		wantHeight int
	}{
		{name: "defaults", wantFPS: DefaultFPS, wantWidth: DefaultWidth, wantHeight: DefaultHeight},
		{name: "size and rate", opts: []Option{WithSize(1280, 720), WithFPS(15)}, wantFPS: 15, wantWidth: 1280, wantHeight: 720},
		{name: "invalid values ignored", opts: []Option{WithSize(0, 720), WithFPS(-1)}, wantFPS: DefaultFPS, wantWidth: DefaultWidth, wantHeight: DefaultHeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(0, tt.opts...).(*cameraImpl)
			if cam.FPS() != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", cam.FPS(), tt.wantFPS)
			}
			if cam.width != tt.wantWidth || cam.height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", cam.width, cam.height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_Idempotent(t *testing.T) {
	cam := NewCamera(0)

	for i := 0; i < 3; i++ {
		if err := cam.Close(); err != nil {
			t.Errorf("Close() #%d = %v, want nil", i, err)
		}
	}
}

func TestCamera_OpenMissingDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping device probe in short mode")
	}

	cam := NewCamera(97)
	if err := cam.Open(); err == nil {
		cam.Close()
		t.Skip("device 97 unexpectedly present")
	}
	if cam.IsOpen() {
		t.Error("failed Open left the camera marked open")
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		frame, err := FrameFromMat(mat)
		if err != nil {
			t.Errorf("FrameFromMat() failed: %v", err)
		} else if frame.Width != mat.Cols() || frame.Height != mat.Rows() {
			t.Errorf("frame %dx%d, mat %dx%d", frame.Width, frame.Height, mat.Cols(), mat.Rows())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestFrameFromMat(t *testing.T) {
	t.Run("converts dimensions", func(t *testing.T) {
		mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		defer mat.Close()

		frame, err := FrameFromMat(&mat)
		if err != nil {
			t.Fatalf("FrameFromMat() error = %v", err)
		}
		if frame.Width != 64 || frame.Height != 48 {
			t.Errorf("size = %dx%d, want 64x48", frame.Width, frame.Height)
		}
		if b := frame.Image.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
			t.Errorf("image bounds = %v", b)
		}
		if frame.Timestamp == 0 {
			t.Error("timestamp not set")
		}
	})

	t.Run("empty mat", func(t *testing.T) {
		mat := gocv.NewMat()
		defer mat.Close()

		if _, err := FrameFromMat(&mat); !errors.Is(err, ErrEmptyFrame) {
			t.Errorf("error = %v, want ErrEmptyFrame", err)
		}
		if _, err := FrameFromMat(nil); !errors.Is(err, ErrEmptyFrame) {
			t.Errorf("nil error = %v, want ErrEmptyFrame", err)
		}
	})
}
