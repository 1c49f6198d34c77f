// Package lens implements the synchronized multi-viewport magnifier: the
// coordinate mapping between the displayed primary image and each
// comparison image, patch extraction, zoom and the interaction state machine.
package lens

import (
	"depthlens/pkg/geometry"
)

// ToNatural converts a position over the displayed element into the image's
// natural pixel space. Each axis scales independently by natural/display.
// An axis with zero display extent maps to 0.
func ToNatural(display geometry.Point2D, displaySize, naturalSize geometry.Size) geometry.Point2D {
	return geometry.Point2D{
		X: scaleAxis(display.X, displaySize.Width, naturalSize.Width),
		Y: scaleAxis(display.Y, displaySize.Height, naturalSize.Height),
	}
}

// ToDisplay is the inverse of ToNatural.
func ToDisplay(natural geometry.Point2D, displaySize, naturalSize geometry.Size) geometry.Point2D {
	return geometry.Point2D{
		X: scaleAxis(natural.X, naturalSize.Width, displaySize.Width),
		Y: scaleAxis(natural.Y, naturalSize.Height, displaySize.Height),
	}
}

// ClampCenter keeps a square patch of side 2*halfPatch inside the image.
// When the image is smaller than the patch on an axis the center falls back
// to the middle of that axis.
func ClampCenter(natural geometry.Point2D, halfPatch float64, naturalSize geometry.Size) geometry.Point2D {
	return geometry.Point2D{
		X: clampAxis(natural.X, halfPatch, naturalSize.Width),
		Y: clampAxis(natural.Y, halfPatch, naturalSize.Height),
	}
}

// MapAcrossImages re-expresses a center and square patch defined against
// image A as the same relative region of image B. The patch is taken as a
// fraction of A's extent and that fraction is applied to B's extent, so the
// result is non-square whenever the aspect ratios differ.
func MapAcrossImages(centerA geometry.Point2D, patchSize float64, sizeA, sizeB geometry.Size) (geometry.Point2D, geometry.Size) {
	center := geometry.Point2D{
		X: scaleAxis(centerA.X, sizeA.Width, sizeB.Width),
		Y: scaleAxis(centerA.Y, sizeA.Height, sizeB.Height),
	}
	patch := geometry.Size{
		Width:  scaleAxis(patchSize, sizeA.Width, sizeB.Width),
		Height: scaleAxis(patchSize, sizeA.Height, sizeB.Height),
	}
	return center, patch
}

// PlaceLoupe returns the top-left corner of a square loupe of the given
// diameter centered on a display position, kept inside the display area.
func PlaceLoupe(center geometry.Point2D, diameter float64, displaySize geometry.Size) geometry.Point2D {
	pos := geometry.Point2D{X: center.X - diameter/2, Y: center.Y - diameter/2}
	pos.X = max(0, min(pos.X, displaySize.Width-diameter))
	pos.Y = max(0, min(pos.Y, displaySize.Height-diameter))
	return pos
}

func scaleAxis(v, from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return v / from * to
}

func clampAxis(v, half, extent float64) float64 {
	if extent < 2*half {
		return extent / 2
	}
	return max(half, min(v, extent-half))
}
