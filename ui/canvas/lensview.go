// Package canvas provides the fyne widgets that display the primary image
// with its loupe and the grid of comparison viewports.
package canvas

import (
	"image"
	"image/color"
	"sync"

	"depthlens/internal/app"
	dlimage "depthlens/internal/image"
	"depthlens/internal/viewer"
	"depthlens/pkg/colorutil"
	"depthlens/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// LensView shows the primary image and forwards pointer, wheel and touch
// input to the viewer. The loupe is drawn on top at the position the
// magnifier publishes.
type LensView struct {
	widget.BaseWidget

	viewer *viewer.Viewer

	// Display objects
	image  *fynecanvas.Image
	loupe  *fynecanvas.Raster
	tint   *fynecanvas.Circle
	border *fynecanvas.Circle

	mu       sync.Mutex
	move     app.LensMove
	hovering bool
	lastSize fyne.Size
	touching bool
}

var (
	_ desktop.Hoverable = (*LensView)(nil)
	_ fyne.Scrollable   = (*LensView)(nil)
	_ fyne.Draggable    = (*LensView)(nil)
	_ mobile.Touchable  = (*LensView)(nil)
)

// NewLensView creates the primary view bound to v.
func NewLensView(v *viewer.Viewer) *LensView {
	lv := &LensView{viewer: v}

	lensColor, err := colorutil.ParseHex(v.Config.LensColor)
	if err != nil {
		lensColor = colorutil.LensBlue
	}

	lv.image = fynecanvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	lv.image.FillMode = fynecanvas.ImageFillStretch
	lv.image.ScaleMode = fynecanvas.ImageScaleSmooth

	loupeVP := v.Magnifier.Loupe()
	lv.loupe = fynecanvas.NewRaster(func(w, h int) image.Image {
		return loupeVP.Snapshot()
	})
	lv.loupe.ScaleMode = fynecanvas.ImageScaleSmooth

	lv.tint = fynecanvas.NewCircle(colorutil.WithOpacity(lensColor, v.Config.LensOpacity))
	lv.border = fynecanvas.NewCircle(color.Transparent)
	lv.border.StrokeColor = lensColor
	lv.border.StrokeWidth = 3

	lv.hideLoupe()

	v.Events.On(app.EventLensMoved, func(data interface{}) {
		lv.mu.Lock()
		lv.move = data.(app.LensMove)
		lv.mu.Unlock()
		lv.Refresh()
	})
	v.Events.On(app.EventHoverChanged, func(data interface{}) {
		lv.mu.Lock()
		lv.hovering = data.(bool)
		lv.mu.Unlock()
		lv.Refresh()
	})

	lv.ExtendBaseWidget(lv)
	return lv
}

// SetPrimary replaces the displayed primary image. Nil shows a blank view.
func (lv *LensView) SetPrimary(src *dlimage.Source) {
	if src.Ready() {
		lv.image.Image = src.Image
	} else {
		lv.image.Image = image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	lv.image.Refresh()
}

func (lv *LensView) hideLoupe() {
	lv.loupe.Hide()
	lv.tint.Hide()
	lv.border.Hide()
}

// MouseIn starts hovering.
func (lv *LensView) MouseIn(ev *desktop.MouseEvent) {
	lv.viewer.PointerEnter(toPoint(ev.Position))
}

// MouseMoved moves the loupe.
func (lv *LensView) MouseMoved(ev *desktop.MouseEvent) {
	lv.viewer.PointerMove(toPoint(ev.Position))
}

// MouseOut stops hovering.
func (lv *LensView) MouseOut() {
	lv.viewer.PointerLeave()
}

// Scrolled zooms. Fyne reports wheel-up as positive DY, the opposite sign
// of a DOM wheel delta.
func (lv *LensView) Scrolled(ev *fyne.ScrollEvent) {
	lv.viewer.Wheel(-float64(ev.Scrolled.DY))
}

// TouchDown begins a touch.
func (lv *LensView) TouchDown(ev *mobile.TouchEvent) {
	lv.mu.Lock()
	lv.touching = true
	lv.mu.Unlock()
	lv.viewer.TouchStart(toPoint(ev.Position))
}

// TouchUp ends a touch.
func (lv *LensView) TouchUp(*mobile.TouchEvent) {
	lv.endTouch()
}

// TouchCancel ends a touch.
func (lv *LensView) TouchCancel(*mobile.TouchEvent) {
	lv.endTouch()
}

// Dragged moves the loupe while a touch is down.
func (lv *LensView) Dragged(ev *fyne.DragEvent) {
	lv.mu.Lock()
	touching := lv.touching
	lv.mu.Unlock()
	if touching {
		lv.viewer.TouchMove(toPoint(ev.Position))
	}
}

// DragEnd is a no-op; TouchUp ends the touch.
func (lv *LensView) DragEnd() {}

func (lv *LensView) endTouch() {
	lv.mu.Lock()
	lv.touching = false
	lv.mu.Unlock()
	lv.viewer.TouchEnd()
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func (lv *LensView) CreateRenderer() fyne.WidgetRenderer {
	return &lensViewRenderer{view: lv}
}

// MinSize keeps the view usable before an image arrives.
func (lv *LensView) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

type lensViewRenderer struct {
	view *LensView
}

func (r *lensViewRenderer) Layout(size fyne.Size) {
	lv := r.view
	lv.image.Resize(size)
	lv.image.Move(fyne.NewPos(0, 0))

	lv.mu.Lock()
	changed := size != lv.lastSize
	lv.lastSize = size
	lv.mu.Unlock()
	if changed {
		lv.viewer.Resize(geometry.NewSize(float64(size.Width), float64(size.Height)))
	}
	r.placeLoupe()
}

func (r *lensViewRenderer) placeLoupe() {
	lv := r.view
	lv.mu.Lock()
	move, hovering := lv.move, lv.hovering
	lv.mu.Unlock()

	if !hovering || move.Diameter <= 0 {
		lv.hideLoupe()
		return
	}
	d := float32(move.Diameter)
	pos := fyne.NewPos(float32(move.Loupe.X), float32(move.Loupe.Y))
	for _, o := range []fyne.CanvasObject{lv.loupe, lv.tint, lv.border} {
		o.Resize(fyne.NewSize(d, d))
		o.Move(pos)
		o.Show()
	}
}

func (r *lensViewRenderer) MinSize() fyne.Size {
	return r.view.MinSize()
}

func (r *lensViewRenderer) Refresh() {
	r.placeLoupe()
	r.view.loupe.Refresh()
	r.view.border.Refresh()
	r.view.tint.Refresh()
	r.view.image.Refresh()
}

func (r *lensViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.image, r.view.loupe, r.view.tint, r.view.border}
}

func (r *lensViewRenderer) Destroy() {}
