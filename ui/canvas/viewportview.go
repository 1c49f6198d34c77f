package canvas

import (
	"image"

	dlimage "depthlens/internal/image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ViewportView displays one comparison viewport with its caption.
type ViewportView struct {
	widget.BaseWidget

	vp     *dlimage.Viewport
	raster *fynecanvas.Raster
	label  *widget.Label
}

// NewViewportView wraps vp for display.
func NewViewportView(vp *dlimage.Viewport) *ViewportView {
	v := &ViewportView{vp: vp}
	v.raster = fynecanvas.NewRaster(func(w, h int) image.Image {
		return vp.Snapshot()
	})
	v.raster.ScaleMode = fynecanvas.ImageScaleFastest
	v.label = widget.NewLabel(vp.Label)
	v.label.Alignment = fyne.TextAlignCenter
	v.ExtendBaseWidget(v)
	return v
}

// SetLabel updates the caption shown under the viewport.
func (v *ViewportView) SetLabel(text string) {
	v.vp.Label = text
	v.label.SetText(text)
}

// Viewport returns the viewport being displayed.
func (v *ViewportView) Viewport() *dlimage.Viewport { return v.vp }

func (v *ViewportView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(nil, v.label, nil, nil, v.raster))
}

// Refresh repaints the raster from the latest viewport contents.
func (v *ViewportView) Refresh() {
	v.raster.Refresh()
	v.BaseWidget.Refresh()
}
