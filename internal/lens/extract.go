package lens

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	dlimage "depthlens/internal/image"
	"depthlens/pkg/geometry"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ChooseInterpolator maps a configured name to an x/image interpolator.
// Unknown names fall back to Catmull-Rom.
func ChooseInterpolator(name string) xdraw.Interpolator {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest":
		return xdraw.NearestNeighbor
	case "approx", "approxbilinear":
		return xdraw.ApproxBiLinear
	case "bilinear":
		return xdraw.BiLinear
	case "bicubic", "catmullrom":
		fallthrough
	default:
		return xdraw.CatmullRom
	}
}

// SourceRect builds the patch rectangle around center and clamps it to the
// image by shrinking whichever edge overflows. The center is never shifted,
// so a patch near an edge comes out smaller and possibly non-square.
func SourceRect(center geometry.Point2D, patch, imageSize geometry.Size) geometry.Rect {
	sx, sw := shrinkAxis(center.X-patch.Width/2, patch.Width, imageSize.Width)
	sy, sh := shrinkAxis(center.Y-patch.Height/2, patch.Height, imageSize.Height)
	return geometry.Rect{X: sx, Y: sy, Width: sw, Height: sh}
}

func shrinkAxis(start, length, extent float64) (float64, float64) {
	if start < 0 {
		length += start
		start = 0
	}
	if start+length > extent {
		length = extent - start
	}
	return start, length
}

// Extractor blits whole images, patches and the circular loupe into viewports.
// It only ever writes to the target viewport.
type Extractor struct {
	Interp xdraw.Interpolator
}

// NewExtractor creates an extractor using the named interpolation.
func NewExtractor(interpolation string) *Extractor {
	return &Extractor{Interp: ChooseInterpolator(interpolation)}
}

// DrawFull scales the entire source to fill the viewport. Returns false when
// the source is not ready.
func (e *Extractor) DrawFull(vp *dlimage.Viewport, src *dlimage.Source) bool {
	if vp == nil || !src.Ready() {
		return false
	}
	vp.Paint(func(dst *image.RGBA) {
		e.Interp.Scale(dst, dst.Bounds(), src.Image, src.Image.Bounds(), draw.Src, nil)
	})
	return true
}

// DrawPatch extracts the clamped patch around center (in the source's
// natural pixels) and scales it to exactly fill the viewport. Returns the
// source rectangle used and whether anything was drawn.
func (e *Extractor) DrawPatch(vp *dlimage.Viewport, src *dlimage.Source, center geometry.Point2D, patch geometry.Size) (geometry.Rect, bool) {
	if vp == nil || !src.Ready() {
		return geometry.Rect{}, false
	}
	sr := SourceRect(center, patch, src.Size())

	vp.Paint(func(dst *image.RGBA) {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{vp.BackColor}, image.Point{}, draw.Src)
		if sr.IsEmpty() {
			return
		}
		e.transform(dst, dst.Bounds(), src.Image, sr, draw.Src, nil)
	})
	return sr, !sr.IsEmpty()
}

// DrawLoupe draws the same clamped patch as DrawPatch, clipped to a circle
// of the given diameter inscribed in the viewport. Pixels outside the circle
// are left transparent.
func (e *Extractor) DrawLoupe(vp *dlimage.Viewport, src *dlimage.Source, center geometry.Point2D, patchSize, diameter float64) (geometry.Rect, bool) {
	if vp == nil || !src.Ready() {
		return geometry.Rect{}, false
	}
	sr := SourceRect(center, geometry.Square(patchSize), src.Size())

	vp.Paint(func(dst *image.RGBA) {
		b := dst.Bounds()
		draw.Draw(dst, b, image.Transparent, image.Point{}, draw.Src)
		if sr.IsEmpty() {
			return
		}
		d := math.Min(diameter, float64(min(b.Dx(), b.Dy())))
		mask := &circle{center: geometry.Point2D{X: float64(b.Min.X) + float64(b.Dx())/2, Y: float64(b.Min.Y) + float64(b.Dy())/2}, r: d / 2}
		e.transform(dst, b, src.Image, sr, draw.Over, &xdraw.Options{DstMask: mask})
	})
	return sr, !sr.IsEmpty()
}

// transform maps the fractional source rectangle sr onto dr. Using an affine
// transform instead of Scale keeps sub-pixel patch origins.
func (e *Extractor) transform(dst *image.RGBA, dr image.Rectangle, src image.Image, sr geometry.Rect, op draw.Op, opts *xdraw.Options) {
	origin := src.Bounds().Min
	local := geometry.NewRect(sr.X+float64(origin.X), sr.Y+float64(origin.Y), sr.Width, sr.Height)
	target := geometry.NewRect(float64(dr.Min.X), float64(dr.Min.Y), float64(dr.Dx()), float64(dr.Dy()))

	s2d := f64.Aff3(geometry.RectToRect(local, target).Matrix())
	covered := image.Rect(
		int(math.Floor(local.X)), int(math.Floor(local.Y)),
		int(math.Ceil(local.X+local.Width)), int(math.Ceil(local.Y+local.Height)),
	).Intersect(src.Bounds())
	e.Interp.Transform(dst, s2d, src, covered, op, opts)
}

// circle is an alpha mask that is opaque inside a disc.
type circle struct {
	center geometry.Point2D
	r      float64
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(c.center.X-c.r)), int(math.Floor(c.center.Y-c.r)),
		int(math.Ceil(c.center.X+c.r)), int(math.Ceil(c.center.Y+c.r)),
	)
}

func (c *circle) At(x, y int) color.Color {
	p := geometry.Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}
	if p.Distance(c.center) <= c.r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
