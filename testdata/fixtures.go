// Package testdata builds synthetic camera frames and sky images for tests.
package testdata

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Frames returns n BGR frames of the given size, each a flat grey slightly
// brighter than the last. Callers close them with CloseFrames.
func Frames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		v := float64(40 + 10*(i%16))
		mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), height, width, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	return frames
}

// CloseFrames releases frames returned by Frames.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// StarField returns a dark image scattered with white points. The same seed
// gives the same image.
func StarField(width, height int, seed int64) *image.NRGBA {
	img := imaging.New(width, height, color.NRGBA{R: 8, G: 10, B: 24, A: 255})
	rng := rand.New(rand.NewSource(seed))

	stars := width * height / 200
	for i := 0; i < stars; i++ {
		img.SetNRGBA(rng.Intn(width), rng.Intn(height), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return img
}

// SaveStarField writes a star field to dir/name. The extension picks the
// encoder; ".webp" is written lossless.
func SaveStarField(dir, name string, width, height int) (string, error) {
	path := filepath.Join(dir, name)
	img := StarField(width, height, int64(len(name)))

	if strings.EqualFold(filepath.Ext(name), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
			return "", fmt.Errorf("encode %s: %w", name, err)
		}
		return path, nil
	}

	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}
