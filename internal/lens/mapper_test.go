package lens

import (
	"testing"
	"testing/quick"

	"depthlens/pkg/geometry"

	"github.com/stretchr/testify/assert"
)

func TestToNatural(t *testing.T) {
	display := geometry.NewSize(500, 400)
	natural := geometry.NewSize(1000, 800)

	got := ToNatural(geometry.NewPoint2D(250, 200), display, natural)
	assert.Equal(t, geometry.NewPoint2D(500, 400), got)

	back := ToDisplay(got, display, natural)
	assert.Equal(t, geometry.NewPoint2D(250, 200), back)

	// Independent per-axis scale.
	got = ToNatural(geometry.NewPoint2D(100, 100), geometry.NewSize(200, 100), geometry.NewSize(400, 400))
	assert.Equal(t, geometry.NewPoint2D(200, 400), got)

	// Zero display extent does not divide by zero.
	got = ToNatural(geometry.NewPoint2D(10, 10), geometry.NewSize(0, 100), natural)
	assert.Equal(t, 0.0, got.X)
}

func TestClampCenter(t *testing.T) {
	natural := geometry.NewSize(1000, 800)
	tests := []struct {
		name string
		in   geometry.Point2D
		half float64
		want geometry.Point2D
	}{
		{"inside", geometry.NewPoint2D(500, 400), 128, geometry.NewPoint2D(500, 400)},
		{"top left", geometry.NewPoint2D(10, 20), 128, geometry.NewPoint2D(128, 128)},
		{"bottom right", geometry.NewPoint2D(999, 799), 128, geometry.NewPoint2D(872, 672)},
		{"patch wider than image", geometry.NewPoint2D(10, 10), 600, geometry.NewPoint2D(500, 400)},
		{"patch taller only", geometry.NewPoint2D(10, 10), 450, geometry.NewPoint2D(450, 400)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampCenter(tt.in, tt.half, natural))
		})
	}
}

func TestMapAcrossImages(t *testing.T) {
	rgb := geometry.NewSize(1000, 800)
	tests := []struct {
		name       string
		comparison geometry.Size
	}{
		{"equal", geometry.NewSize(1000, 800)},
		{"smaller", geometry.NewSize(500, 400)},
		{"larger", geometry.NewSize(4000, 2400)},
		{"different aspect", geometry.NewSize(640, 640)},
	}
	const p = 256.0
	center := geometry.NewPoint2D(300, 500)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, patch := MapAcrossImages(center, p, rgb, tt.comparison)
			assert.InDelta(t, p*tt.comparison.Width/rgb.Width, patch.Width, 1e-9)
			assert.InDelta(t, p*tt.comparison.Height/rgb.Height, patch.Height, 1e-9)
			assert.InDelta(t, center.X/rgb.Width, c.X/tt.comparison.Width, 1e-12)
			assert.InDelta(t, center.Y/rgb.Height, c.Y/tt.comparison.Height, 1e-12)
		})
	}
}

func TestMapAcrossImagesDeterministic(t *testing.T) {
	f := func(x, y, p, wa, ha, wb, hb float64) bool {
		a := geometry.NewSize(wa, ha)
		b := geometry.NewSize(wb, hb)
		c1, p1 := MapAcrossImages(geometry.NewPoint2D(x, y), p, a, b)
		c2, p2 := MapAcrossImages(geometry.NewPoint2D(x, y), p, a, b)
		return sameBits(c1.X, c2.X) && sameBits(c1.Y, c2.Y) &&
			sameBits(p1.Width, p2.Width) && sameBits(p1.Height, p2.Height)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

// sameBits treats NaN as equal to itself.
func sameBits(a, b float64) bool {
	return a == b || (a != a && b != b)
}

func TestPlaceLoupe(t *testing.T) {
	display := geometry.NewSize(500, 400)
	assert.Equal(t, geometry.NewPoint2D(150, 100), PlaceLoupe(geometry.NewPoint2D(250, 200), 200, display))
	assert.Equal(t, geometry.NewPoint2D(0, 0), PlaceLoupe(geometry.NewPoint2D(10, 10), 200, display))
	assert.Equal(t, geometry.NewPoint2D(300, 200), PlaceLoupe(geometry.NewPoint2D(499, 399), 200, display))
}

func TestCellSize(t *testing.T) {
	display := geometry.NewSize(810, 610)
	assert.Equal(t, display, CellSize(display, 1, 10))
	assert.Equal(t, geometry.NewSize(400, 300), CellSize(display, 4, 10))
	assert.Equal(t, geometry.NewPoint2D(410, 310), CellOrigin(3, display, 4, 10))
	assert.Equal(t, geometry.NewPoint2D(0, 310), CellOrigin(2, display, 3, 10))
}
