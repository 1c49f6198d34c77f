package canvas

import (
	"depthlens/internal/lens"
	"depthlens/pkg/geometry"

	"fyne.io/fyne/v2"
)

// gridLayout places comparison views the same way the magnifier sizes
// their viewports: one view fills the area, more share a 2x2 grid.
type gridLayout struct {
	gap float64
}

// NewGridLayout returns a layout for up to four comparison views.
func NewGridLayout(gap float64) fyne.Layout {
	return &gridLayout{gap: gap}
}

func (g *gridLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	visible := make([]fyne.CanvasObject, 0, len(objects))
	for _, o := range objects {
		if o.Visible() {
			visible = append(visible, o)
		}
	}
	display := geometry.NewSize(float64(size.Width), float64(size.Height))
	cell := lens.CellSize(display, len(visible), g.gap)
	for i, o := range visible {
		origin := lens.CellOrigin(i, display, len(visible), g.gap)
		o.Move(fyne.NewPos(float32(origin.X), float32(origin.Y)))
		o.Resize(fyne.NewSize(float32(cell.Width), float32(cell.Height)))
	}
}

func (g *gridLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var min fyne.Size
	for _, o := range objects {
		if o.Visible() {
			min = min.Max(o.MinSize())
		}
	}
	if len(objects) > 1 {
		return fyne.NewSize(min.Width*2+float32(g.gap), min.Height*2+float32(g.gap))
	}
	return min
}
