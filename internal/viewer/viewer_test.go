package viewer

import (
	"image"
	"image/color"
	"testing"

	"depthlens/internal/app"
	"depthlens/internal/app/apptest"
	"depthlens/internal/config"
	dlimage "depthlens/internal/image"
	"depthlens/internal/lens"
	"depthlens/internal/scene"
	"depthlens/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type asset struct {
	w, h int
	c    color.RGBA
}

// heldFetcher answers from a table but only when the test releases a URL.
type heldFetcher struct {
	assets  map[string]asset
	pending map[string][]func(*dlimage.Source, error)
}

func newHeldFetcher(assets map[string]asset) *heldFetcher {
	return &heldFetcher{assets: assets, pending: make(map[string][]func(*dlimage.Source, error))}
}

func (f *heldFetcher) Fetch(url string, done func(*dlimage.Source, error)) {
	f.pending[url] = append(f.pending[url], done)
}

func (f *heldFetcher) release(t *testing.T, url string) {
	t.Helper()
	cbs, ok := f.pending[url]
	require.True(t, ok, "nothing pending for %s", url)
	delete(f.pending, url)
	a := f.assets[url]
	img := image.NewRGBA(image.Rect(0, 0, a.w, a.h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = a.c.R, a.c.G, a.c.B, a.c.A
	}
	for _, cb := range cbs {
		cb(dlimage.NewSource(url, img), nil)
	}
}

func (f *heldFetcher) releaseAll(t *testing.T) {
	for url := range f.pending {
		f.release(t, url)
	}
}

func testConfig(scenes scene.Catalog) config.Config {
	cfg := config.Default()
	cfg.ComparisonCount = 1
	cfg.Interpolation = "nearest"
	cfg.Scenes = scenes
	return cfg
}

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
	gray = color.RGBA{128, 128, 128, 255}
)

func twoScenes() (scene.Catalog, map[string]asset) {
	return scene.Catalog{
			{Name: "a", PrimaryURL: "a.png", ComparisonURLs: []string{"a_depth.png"}, Labels: []string{"Ours"}},
			{Name: "b", PrimaryURL: "b.png", ComparisonURLs: []string{"b_depth.png"}, Labels: []string{"Ours"}},
		}, map[string]asset{
			"a.png":       {1000, 800, gray},
			"a_depth.png": {500, 400, red},
			"b.png":       {1000, 800, gray},
			"b_depth.png": {500, 400, blue},
		}
}

func TestEndToEndPatchAndZoomRatio(t *testing.T) {
	scenes, assets := twoScenes()
	f := newHeldFetcher(assets)
	s := apptest.NewManualScheduler()
	v := New(testConfig(scenes), f, s)

	var zoom app.ZoomChange
	v.Events.On(app.EventZoomChanged, func(d interface{}) { zoom = d.(app.ZoomChange) })

	v.Resize(geometry.NewSize(500, 400))
	v.Start()
	s.Drain()
	f.releaseAll(t)
	s.Drain()

	v.PointerEnter(geometry.NewPoint2D(250, 200))
	s.Drain()

	assert.Equal(t, geometry.NewPoint2D(500, 400), v.Magnifier.Center())
	assert.Equal(t, geometry.NewRect(186, 136, 128, 128), v.Magnifier.PatchRects()[0])
	assert.Equal(t, geometry.NewSize(500, 400), v.Magnifier.Viewports()[0].Size())
	assert.InDelta(t, 200.0/256, zoom.Ratio, 1e-12)
	assert.Equal(t, "Patch: 256px | Zoom: 0.78x", zoom.Text)
}

func TestStaleLoadDoesNotTouchNewScene(t *testing.T) {
	scenes, assets := twoScenes()
	f := newHeldFetcher(assets)
	s := apptest.NewManualScheduler()
	v := New(testConfig(scenes), f, s)

	v.Resize(geometry.NewSize(100, 80))
	v.Start()
	s.Drain()
	f.release(t, "a.png")

	v.Next()
	s.Drain()
	require.True(t, v.Scenes.Transitioning())
	s.Advance(scene.DefaultTransition)
	require.Equal(t, 1, v.Scenes.Index())

	f.release(t, "b_depth.png")
	s.Drain()
	vp := v.Magnifier.Viewports()[0]
	assert.Equal(t, blue, vp.Snapshot().RGBAAt(5, 5))
	gen := vp.Generation()

	f.release(t, "a_depth.png")
	s.Drain()
	assert.Equal(t, gen, vp.Generation(), "stale load must not repaint")
	assert.Equal(t, blue, vp.Snapshot().RGBAAt(5, 5))
	assert.Equal(t, "b_depth.png", v.Scenes.Comparison(0).URL)

	s.Advance(scene.DefaultTransition)
	assert.False(t, v.Scenes.Transitioning())
	assert.Equal(t, lens.ModeIdle, v.Magnifier.Mode())
}

func TestInputIgnoredDuringTransition(t *testing.T) {
	scenes, assets := twoScenes()
	f := newHeldFetcher(assets)
	s := apptest.NewManualScheduler()
	v := New(testConfig(scenes), f, s)
	v.Resize(geometry.NewSize(500, 400))
	v.Start()
	s.Drain()
	f.releaseAll(t)

	v.PointerEnter(geometry.NewPoint2D(10, 10))
	s.Drain()
	require.True(t, v.Magnifier.Hovering())

	v.Next()
	s.Drain()
	assert.False(t, v.Magnifier.Hovering(), "transition ends hover")
	assert.Equal(t, lens.ModeTransitioning, v.Magnifier.Mode())

	v.PointerMove(geometry.NewPoint2D(20, 20))
	v.Key('+')
	v.Next()
	s.Drain()
	assert.False(t, v.Magnifier.Hovering())
	assert.Equal(t, 256.0, v.Magnifier.Zoom().PatchSize())

	s.Advance(2 * scene.DefaultTransition)
	assert.Equal(t, 1, v.Scenes.Index())
	v.PointerMove(geometry.NewPoint2D(20, 20))
	s.Drain()
	assert.True(t, v.Magnifier.Hovering())
}

func TestNavStatePublished(t *testing.T) {
	scenes, assets := twoScenes()
	s := apptest.NewManualScheduler()
	v := New(testConfig(scenes), newHeldFetcher(assets), s)

	var nav app.NavState
	v.Events.On(app.EventNavChanged, func(d interface{}) { nav = d.(app.NavState) })
	v.Start()
	s.Drain()
	assert.Equal(t, app.NavState{CanPrevious: false, CanNext: true, Index: 0, Count: 2}, nav)

	v.Next()
	s.Drain()
	assert.False(t, nav.CanNext, "buttons disabled while transitioning")
	s.Advance(2 * scene.DefaultTransition)
	assert.Equal(t, app.NavState{CanPrevious: true, CanNext: false, Index: 1, Count: 2}, nav)
}

func TestRequestSceneAndReload(t *testing.T) {
	scenes, assets := twoScenes()
	assets["alt.png"] = asset{250, 200, red}
	f := newHeldFetcher(assets)
	s := apptest.NewManualScheduler()
	v := New(testConfig(scenes), f, s)
	v.Start()
	s.Drain()
	f.releaseAll(t)

	v.Reload([]string{"alt.png"})
	s.Drain()
	f.release(t, "alt.png")
	s.Drain()
	assert.Equal(t, 250, v.Scenes.Comparison(0).Width())

	v.RequestScene(app.SceneRequest{PrimaryURL: "b.png"})
	s.Drain()
	s.Advance(2 * scene.DefaultTransition)
	assert.Equal(t, 1, v.Scenes.Index())
}

func TestKeyDirection(t *testing.T) {
	for _, r := range []rune{'+', '='} {
		d, ok := KeyDirection(r)
		assert.True(t, ok)
		assert.Equal(t, lens.ZoomIn, d)
	}
	d, ok := KeyDirection('-')
	assert.True(t, ok)
	assert.Equal(t, lens.ZoomOut, d)
	_, ok = KeyDirection('x')
	assert.False(t, ok)
}
