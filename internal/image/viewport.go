package image

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"depthlens/pkg/geometry"
)

// Viewport is a drawable surface of fixed output size. Its size is set by
// layout and is independent of whatever source is drawn into it.
//
// Drawing happens on the event loop while the UI reads snapshots from its
// render goroutine, so access to the surface goes through the mutex.
type Viewport struct {
	mu         sync.RWMutex
	surface    *image.RGBA
	generation uint64

	Label     string
	BackColor color.Color
}

// NewViewport creates a viewport with a cleared surface of the given size.
func NewViewport(label string, width, height int) *Viewport {
	vp := &Viewport{
		Label:     label,
		BackColor: color.RGBA{40, 40, 40, 255}, // Dark gray background
	}
	vp.Resize(width, height)
	return vp
}

// Resize reallocates the surface when the size changes. Returns true if it did.
func (v *Viewport) Resize(width, height int) bool {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface != nil && v.surface.Rect.Dx() == width && v.surface.Rect.Dy() == height {
		return false
	}
	v.surface = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(v.surface, v.surface.Bounds(), &image.Uniform{v.BackColor}, image.Point{}, draw.Src)
	v.generation++
	return true
}

// Bounds returns the surface rectangle.
func (v *Viewport) Bounds() image.Rectangle {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.surface.Bounds()
}

// Size returns the surface dimensions.
func (v *Viewport) Size() geometry.Size {
	b := v.Bounds()
	return geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Clear fills the surface with the background color.
func (v *Viewport) Clear() {
	v.Paint(func(dst *image.RGBA) {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{v.BackColor}, image.Point{}, draw.Src)
	})
}

// Paint runs fn with exclusive access to the surface.
func (v *Viewport) Paint(fn func(dst *image.RGBA)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.surface)
	v.generation++
}

// Generation increments on every Paint or reallocation.
func (v *Viewport) Generation() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.generation
}

// Snapshot returns a copy of the surface safe to hand to another goroutine.
func (v *Viewport) Snapshot() *image.RGBA {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := image.NewRGBA(v.surface.Rect)
	copy(out.Pix, v.surface.Pix)
	return out
}
