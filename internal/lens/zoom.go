package lens

import (
	"fmt"
	"math"
)

// Direction is a discrete zoom request.
type Direction int

const (
	ZoomIn Direction = iota
	ZoomOut
)

func (d Direction) String() string {
	if d == ZoomIn {
		return "in"
	}
	return "out"
}

// WheelDirection maps a wheel delta to a zoom direction. A positive delta
// (scrolling down) enlarges the patch, i.e. zooms out.
func WheelDirection(deltaY float64) (Direction, bool) {
	switch {
	case deltaY > 0:
		return ZoomOut, true
	case deltaY < 0:
		return ZoomIn, true
	}
	return 0, false
}

// Zoom owns the patch size. Every mutation clamps to [Min, Max].
type Zoom struct {
	Min     float64
	Max     float64
	Initial float64

	patch float64
}

// NewZoom creates a zoom controller starting at initial.
func NewZoom(initial, minPatch, maxPatch float64) *Zoom {
	if minPatch > maxPatch {
		minPatch, maxPatch = maxPatch, minPatch
	}
	z := &Zoom{Min: minPatch, Max: maxPatch, Initial: initial}
	z.Reset()
	return z
}

// PatchSize returns the current patch extent in primary-image pixels.
func (z *Zoom) PatchSize() float64 {
	return z.patch
}

// Reset returns to the initial patch size.
func (z *Zoom) Reset() float64 {
	z.patch = z.clamp(z.Initial)
	return z.patch
}

// Apply shrinks (in) or grows (out) the patch by step and returns the result.
func (z *Zoom) Apply(dir Direction, step float64) float64 {
	switch dir {
	case ZoomIn:
		z.patch = z.clamp(z.patch * (1 - step))
	case ZoomOut:
		z.patch = z.clamp(z.patch * (1 + step))
	}
	return z.patch
}

// Ratio is the loupe magnification for the current patch.
func (z *Zoom) Ratio(diameter float64) float64 {
	if z.patch <= 0 {
		return 0
	}
	return diameter / z.patch
}

// Label formats the patch size and ratio for the zoom indicator.
func (z *Zoom) Label(diameter float64) string {
	return fmt.Sprintf("Patch: %dpx | Zoom: %.2fx", int(math.Round(z.patch)), z.Ratio(diameter))
}

func (z *Zoom) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return z.Min
	}
	return max(z.Min, min(v, z.Max))
}
