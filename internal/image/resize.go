package image

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ResizeMode selects how an image is brought to a target size.
type ResizeMode int

const (
	ResizeStretch ResizeMode = iota // Exact size, aspect ratio not kept
	ResizeFit                       // Keep aspect ratio, pad with background
	ResizeCrop                      // Keep aspect ratio, crop the overflow around the center
)

func (m ResizeMode) String() string {
	switch m {
	case ResizeStretch:
		return "resize"
	case ResizeFit:
		return "fit"
	case ResizeCrop:
		return "crop"
	default:
		return "unknown"
	}
}

// ParseResizeMode accepts the names printed by String.
func ParseResizeMode(s string) (ResizeMode, error) {
	switch s {
	case "resize", "stretch":
		return ResizeStretch, nil
	case "fit":
		return ResizeFit, nil
	case "crop":
		return ResizeCrop, nil
	}
	return 0, fmt.Errorf("unknown resize mode %q", s)
}

// Resize scales img to exactly width x height using the given mode.
func Resize(img image.Image, width, height int, mode ResizeMode, background color.Color) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	switch mode {
	case ResizeStretch:
		return imaging.Resize(img, width, height, imaging.Lanczos), nil
	case ResizeFit:
		fitted := imaging.Fit(img, width, height, imaging.Lanczos)
		canvas := imaging.New(width, height, background)
		return imaging.PasteCenter(canvas, fitted), nil
	case ResizeCrop:
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
	}
	return nil, fmt.Errorf("unknown resize mode %d", mode)
}

// Thumbnail returns a center-cropped thumbnail for the scene gallery.
func Thumbnail(img image.Image, width, height int) *image.NRGBA {
	return imaging.Thumbnail(img, width, height, imaging.Lanczos)
}
