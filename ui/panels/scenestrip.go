// Package panels provides side panels for the main window.
package panels

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"depthlens/internal/app"
	"depthlens/internal/asset"
	dlimage "depthlens/internal/image"
	"depthlens/internal/scene"
	"depthlens/internal/viewer"
	"depthlens/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ThumbSize is the edge of a gallery thumbnail in pixels.
const ThumbSize = 96

// SceneStrip is a horizontal gallery of scene thumbnails. Tapping one asks
// the viewer to switch to that scene.
type SceneStrip struct {
	viewer *viewer.Viewer
	loader asset.Loader

	box    *fyne.Container
	scroll *container.Scroll
	tiles  []*sceneTile

	mu     sync.Mutex
	cache  map[string]image.Image
	logger zerolog.Logger
}

// NewSceneStrip builds the gallery and keeps it in sync with the catalog.
func NewSceneStrip(v *viewer.Viewer, loader asset.Loader) *SceneStrip {
	s := &SceneStrip{
		viewer: v,
		loader: loader,
		box:    container.NewHBox(),
		cache:  make(map[string]image.Image),
		logger: log.With().Str("module", "scenestrip").Logger(),
	}
	s.scroll = container.NewHScroll(s.box)

	v.Events.On(app.EventCatalogReloaded, func(interface{}) {
		s.rebuild(v.Scenes.Catalog())
	})
	v.Events.On(app.EventNavChanged, func(data interface{}) {
		s.highlight(data.(app.NavState).Index)
	})

	s.rebuild(v.Config.Scenes)
	return s
}

// Container returns the strip for embedding in a layout.
func (s *SceneStrip) Container() fyne.CanvasObject {
	return s.scroll
}

func (s *SceneStrip) rebuild(catalog scene.Catalog) {
	s.box.RemoveAll()
	s.tiles = s.tiles[:0]
	for i, sc := range catalog {
		tile := newSceneTile(i, sc.Name, func(index int) {
			s.viewer.RequestScene(app.SceneRequest{Index: index})
		})
		s.tiles = append(s.tiles, tile)
		s.box.Add(tile)
		go s.loadThumb(tile, sc.ThumbnailURL())
	}
	s.box.Refresh()
}

func (s *SceneStrip) highlight(index int) {
	for _, t := range s.tiles {
		t.setSelected(t.index == index)
	}
}

func (s *SceneStrip) loadThumb(tile *sceneTile, url string) {
	s.mu.Lock()
	cached, ok := s.cache[url]
	s.mu.Unlock()
	if ok {
		tile.setImage(cached)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	src, err := s.loader.Load(ctx, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("thumbnail load failed")
		return
	}
	thumb := dlimage.Thumbnail(src.Image, ThumbSize, ThumbSize)

	s.mu.Lock()
	s.cache[url] = thumb
	s.mu.Unlock()
	tile.setImage(thumb)
}

// sceneTile is one tappable thumbnail with its caption.
type sceneTile struct {
	widget.BaseWidget

	index int
	onTap func(int)
	image *fynecanvas.Image
	frame *fynecanvas.Rectangle
	label *widget.Label
}

var _ fyne.Tappable = (*sceneTile)(nil)

func newSceneTile(index int, name string, onTap func(int)) *sceneTile {
	t := &sceneTile{index: index, onTap: onTap}
	t.image = fynecanvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	t.image.FillMode = fynecanvas.ImageFillContain
	t.image.SetMinSize(fyne.NewSize(ThumbSize, ThumbSize))
	t.frame = fynecanvas.NewRectangle(color.Transparent)
	t.frame.StrokeWidth = 2
	t.label = widget.NewLabel(name)
	t.label.Alignment = fyne.TextAlignCenter
	t.label.Truncation = fyne.TextTruncateEllipsis
	t.ExtendBaseWidget(t)
	return t
}

func (t *sceneTile) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap(t.index)
	}
}

func (t *sceneTile) setImage(img image.Image) {
	t.image.Image = img
	t.image.Refresh()
}

func (t *sceneTile) setSelected(selected bool) {
	if selected {
		t.frame.StrokeColor = colorutil.LensBlue
	} else {
		t.frame.StrokeColor = color.Transparent
	}
	t.frame.Refresh()
}

func (t *sceneTile) CreateRenderer() fyne.WidgetRenderer {
	thumb := container.NewStack(t.image, t.frame)
	return widget.NewSimpleRenderer(container.NewBorder(nil, t.label, nil, nil, thumb))
}
