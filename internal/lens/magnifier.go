package lens

import (
	"math"

	"depthlens/internal/app"
	dlimage "depthlens/internal/image"
	"depthlens/pkg/geometry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mode is the interaction state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeHovering
	ModeZooming
	ModeTransitioning
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeHovering:
		return "hovering"
	case ModeZooming:
		return "zooming"
	case ModeTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// MaxComparisons is the number of comparison viewports the grid can hold.
const MaxComparisons = 4

// Assets gives read access to the current scene's decoded images. A nil or
// not-ready source means the slot is still loading or failed.
type Assets interface {
	Primary() *dlimage.Source
	Comparison(slot int) *dlimage.Source
}

// Gate reports whether a scene transition is running.
type Gate interface {
	Transitioning() bool
}

// PointerState is the raw and smoothed pointer, in primary display pixels.
type PointerState struct {
	Target   geometry.Point2D
	Current  geometry.Point2D
	Hovering bool
}

// Config parameterizes a Magnifier.
type Config struct {
	InitialPatch    float64
	MinPatch        float64
	MaxPatch        float64
	ZoomStep        float64 // wheel
	KeyZoomStep     float64 // per key press
	LoupeDiameter   float64
	Smoothing       bool
	SmoothingFactor float64
	ComparisonCount int
	GridGap         float64
	Interpolation   string
}

// Magnifier is the interaction state machine. It owns the pointer and zoom
// state and redraws every comparison viewport plus the loupe from them.
//
// All methods must be called from the scheduler's thread.
type Magnifier struct {
	cfg       Config
	zoom      *Zoom
	extractor *Extractor
	assets    Assets
	gate      Gate
	sched     app.Scheduler
	events    *app.Events
	logger    zerolog.Logger

	views   []*dlimage.Viewport
	loupe   *dlimage.Viewport
	display geometry.Size

	mode        Mode
	pointer     PointerState
	cancelFrame app.Cancel

	center     geometry.Point2D // last clamped center, primary natural pixels
	patchRects []geometry.Rect
	loupeRect  geometry.Rect
}

// NewMagnifier creates a magnifier with one viewport per comparison slot.
func NewMagnifier(cfg Config, assets Assets, gate Gate, sched app.Scheduler, events *app.Events) *Magnifier {
	cfg.ComparisonCount = max(1, min(cfg.ComparisonCount, MaxComparisons))
	if cfg.KeyZoomStep <= 0 {
		cfg.KeyZoomStep = cfg.ZoomStep
	}
	m := &Magnifier{
		cfg:        cfg,
		zoom:       NewZoom(cfg.InitialPatch, cfg.MinPatch, cfg.MaxPatch),
		extractor:  NewExtractor(cfg.Interpolation),
		assets:     assets,
		gate:       gate,
		sched:      sched,
		events:     events,
		logger:     log.With().Str("module", "lens").Logger(),
		patchRects: make([]geometry.Rect, cfg.ComparisonCount),
	}
	d := int(math.Round(cfg.LoupeDiameter))
	m.loupe = dlimage.NewViewport("loupe", d, d)
	for i := 0; i < cfg.ComparisonCount; i++ {
		m.views = append(m.views, dlimage.NewViewport("", 0, 0))
	}
	return m
}

// Mode returns the current interaction mode.
func (m *Magnifier) Mode() Mode {
	if m.blocked() {
		return ModeTransitioning
	}
	return m.mode
}

// Hovering reports whether patches are being drawn.
func (m *Magnifier) Hovering() bool { return m.pointer.Hovering }

// Pointer returns a copy of the pointer state.
func (m *Magnifier) Pointer() PointerState { return m.pointer }

// Zoom exposes the zoom controller for reading.
func (m *Magnifier) Zoom() *Zoom { return m.zoom }

// Viewports returns the comparison viewports in slot order.
func (m *Magnifier) Viewports() []*dlimage.Viewport { return m.views }

// Loupe returns the loupe surface.
func (m *Magnifier) Loupe() *dlimage.Viewport { return m.loupe }

// Display returns the primary image's display size.
func (m *Magnifier) Display() geometry.Size { return m.display }

// Center returns the last clamped center in primary natural pixels.
func (m *Magnifier) Center() geometry.Point2D { return m.center }

// PatchRects returns the source rectangles of the last patch redraw, one per
// comparison slot. A zero rect means the slot was not drawn.
func (m *Magnifier) PatchRects() []geometry.Rect {
	out := make([]geometry.Rect, len(m.patchRects))
	copy(out, m.patchRects)
	return out
}

// LoupeRect returns the primary-image rectangle shown in the loupe.
func (m *Magnifier) LoupeRect() geometry.Rect { return m.loupeRect }

// ZoomText is the current zoom indicator string.
func (m *Magnifier) ZoomText() string { return m.zoom.Label(m.cfg.LoupeDiameter) }

func (m *Magnifier) blocked() bool {
	return m.mode == ModeTransitioning || (m.gate != nil && m.gate.Transitioning())
}

// Resize sets the primary display size and lays out the comparison grid.
func (m *Magnifier) Resize(display geometry.Size) {
	m.display = display
	cell := CellSize(display, m.cfg.ComparisonCount, m.cfg.GridGap)
	for _, vp := range m.views {
		vp.Resize(int(math.Round(cell.Width)), int(math.Round(cell.Height)))
	}
	m.refresh()
}

// PointerEnter starts hovering at pos.
func (m *Magnifier) PointerEnter(pos geometry.Point2D) {
	if m.blocked() {
		return
	}
	m.mode = ModeHovering
	m.pointer = PointerState{Target: pos, Current: pos, Hovering: true}
	m.events.Emit(app.EventHoverChanged, true)
	m.redraw(pos)
}

// PointerMove updates the target position. Without smoothing the redraw is
// immediate; with smoothing it happens on the next frame.
func (m *Magnifier) PointerMove(pos geometry.Point2D) {
	if m.blocked() {
		return
	}
	if !m.pointer.Hovering {
		m.PointerEnter(pos)
		return
	}
	m.mode = ModeHovering
	m.pointer.Target = pos
	if !m.cfg.Smoothing {
		m.pointer.Current = pos
		m.redraw(pos)
		return
	}
	m.startSmoothing()
}

// PointerLeave stops hovering and restores the full view on every viewport.
func (m *Magnifier) PointerLeave() {
	m.stopSmoothing()
	if !m.pointer.Hovering {
		return
	}
	m.pointer.Hovering = false
	if m.mode != ModeTransitioning {
		m.mode = ModeIdle
	}
	m.events.Emit(app.EventHoverChanged, false)
	m.showFull()
}

// TouchStart behaves like PointerEnter.
func (m *Magnifier) TouchStart(pos geometry.Point2D) { m.PointerEnter(pos) }

// TouchMove behaves like PointerMove.
func (m *Magnifier) TouchMove(pos geometry.Point2D) { m.PointerMove(pos) }

// TouchEnd behaves like PointerLeave.
func (m *Magnifier) TouchEnd() { m.PointerLeave() }

// Wheel zooms by the wheel step. A positive deltaY zooms out. Returns
// whether the event was consumed.
func (m *Magnifier) Wheel(deltaY float64) bool {
	if m.blocked() || !m.pointer.Hovering {
		return false
	}
	dir, ok := WheelDirection(deltaY)
	if !ok {
		return false
	}
	m.applyZoom(dir, m.cfg.ZoomStep)
	return true
}

// KeyZoom zooms by the keyboard step. The patch size changes even when not
// hovering; viewports are only redrawn while hovering.
func (m *Magnifier) KeyZoom(dir Direction) {
	if m.blocked() {
		return
	}
	m.applyZoom(dir, m.cfg.KeyZoomStep)
}

func (m *Magnifier) applyZoom(dir Direction, step float64) {
	before := m.zoom.PatchSize()
	after := m.zoom.Apply(dir, step)
	m.logger.Debug().Str("direction", dir.String()).Float64("patch", after).Msg("zoom")

	if !m.pointer.Hovering {
		m.publishZoom()
		return
	}
	m.mode = ModeZooming
	if before == after {
		m.publishZoom()
		return
	}
	m.redraw(m.pointer.Current)
}

// BeginTransition blocks input until EndTransition.
func (m *Magnifier) BeginTransition() {
	m.stopSmoothing()
	if m.pointer.Hovering {
		m.pointer.Hovering = false
		m.events.Emit(app.EventHoverChanged, false)
	}
	m.mode = ModeTransitioning
}

// EndTransition returns to Idle.
func (m *Magnifier) EndTransition() {
	if m.mode == ModeTransitioning {
		m.mode = ModeIdle
	}
}

// SceneChanged resets zoom for a new scene and clears every viewport until
// its asset arrives.
func (m *Magnifier) SceneChanged() {
	m.zoom.Reset()
	for i := range m.patchRects {
		m.patchRects[i] = geometry.Rect{}
	}
	m.loupeRect = geometry.Rect{}
	m.refresh()
	m.publishZoom()
}

// AssetReady redraws after a slot finishes loading. Slot -1 is the primary.
func (m *Magnifier) AssetReady(slot int) {
	if m.pointer.Hovering {
		m.redraw(m.pointer.Current)
		return
	}
	if slot >= 0 && slot < len(m.views) {
		m.drawFullSlot(slot)
	}
}

// refresh repaints from current state: patches while hovering, full views otherwise.
func (m *Magnifier) refresh() {
	if m.pointer.Hovering {
		m.redraw(m.pointer.Current)
		return
	}
	m.showFull()
}

func (m *Magnifier) showFull() {
	for i := range m.views {
		m.drawFullSlot(i)
		m.patchRects[i] = geometry.Rect{}
	}
	m.loupe.Paint(clearTransparent)
	m.loupeRect = geometry.Rect{}
}

func (m *Magnifier) drawFullSlot(slot int) {
	vp := m.views[slot]
	if !m.extractor.DrawFull(vp, m.assets.Comparison(slot)) {
		vp.Clear()
	}
}

// redraw runs the full pipeline for a display position: map to primary
// natural pixels, clamp, then map into each comparison image and draw.
func (m *Magnifier) redraw(pos geometry.Point2D) {
	primary := m.assets.Primary()
	if !primary.Ready() || m.display.IsEmpty() {
		m.publishZoom()
		return
	}

	natural := primary.Size()
	patch := m.zoom.PatchSize()
	c := ClampCenter(ToNatural(pos, m.display, natural), patch/2, natural)
	m.center = c

	for i, vp := range m.views {
		src := m.assets.Comparison(i)
		if !src.Ready() {
			vp.Clear()
			m.patchRects[i] = geometry.Rect{}
			continue
		}
		cb, pb := MapAcrossImages(c, patch, natural, src.Size())
		m.patchRects[i], _ = m.extractor.DrawPatch(vp, src, cb, pb)
	}
	m.loupeRect, _ = m.extractor.DrawLoupe(m.loupe, primary, c, patch, m.cfg.LoupeDiameter)

	shown := ToDisplay(c, m.display, natural)
	m.events.Emit(app.EventLensMoved, app.LensMove{
		Center:   shown,
		Loupe:    PlaceLoupe(shown, m.cfg.LoupeDiameter, m.display),
		Diameter: m.cfg.LoupeDiameter,
	})
	m.publishZoom()
}

func (m *Magnifier) publishZoom() {
	m.events.Emit(app.EventZoomChanged, app.ZoomChange{
		Text:      m.ZoomText(),
		PatchSize: m.zoom.PatchSize(),
		Ratio:     m.zoom.Ratio(m.cfg.LoupeDiameter),
	})
}
