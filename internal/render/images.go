package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Overlay bounds. Larger images are shrunk to fit; smaller ones are kept.
const (
	OverlayMaxWidth  = 200
	OverlayMaxHeight = 200
)

// LoadImage decodes an image file. WebP is handled explicitly since it is
// not among the registered decoders.
func LoadImage(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		img, err := webp.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// FitOverlay shrinks img to fit the overlay bounds, keeping its aspect ratio.
// Images already inside the bounds are returned unscaled.
func FitOverlay(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	return imaging.Fit(img, OverlayMaxWidth, OverlayMaxHeight, imaging.Lanczos)
}

// LoadOverlay loads the controlled object image and fits it to the overlay bounds.
func LoadOverlay(path string) (image.Image, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return FitOverlay(img), nil
}
