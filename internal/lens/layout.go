package lens

import (
	"image"
	"image/draw"

	"depthlens/pkg/geometry"
)

// CellSize is the size of one comparison viewport. A single comparison
// matches the primary display; two to four share a 2x2 grid separated by gap.
func CellSize(display geometry.Size, count int, gap float64) geometry.Size {
	if count <= 1 {
		return display
	}
	return geometry.Size{
		Width:  max(0, (display.Width-gap)/2),
		Height: max(0, (display.Height-gap)/2),
	}
}

// CellOrigin is the top-left of a slot's cell inside the grid.
func CellOrigin(slot int, display geometry.Size, count int, gap float64) geometry.Point2D {
	if count <= 1 {
		return geometry.Point2D{}
	}
	cell := CellSize(display, count, gap)
	col, row := slot%2, slot/2
	return geometry.Point2D{
		X: float64(col) * (cell.Width + gap),
		Y: float64(row) * (cell.Height + gap),
	}
}

func clearTransparent(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
}
