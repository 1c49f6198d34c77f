package scene

import (
	"errors"
	"image"
	"testing"

	"depthlens/internal/app"
	"depthlens/internal/app/apptest"
	dlimage "depthlens/internal/image"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pending struct {
	url  string
	done func(*dlimage.Source, error)
}

// manualFetcher holds requests until the test resolves them.
type manualFetcher struct {
	reqs []pending
}

func (f *manualFetcher) Fetch(url string, done func(*dlimage.Source, error)) {
	f.reqs = append(f.reqs, pending{url: url, done: done})
}

func (f *manualFetcher) resolve(t *testing.T, url string) {
	t.Helper()
	for i, p := range f.reqs {
		if p.url == url {
			f.reqs = append(f.reqs[:i], f.reqs[i+1:]...)
			p.done(dlimage.NewSource(url, image.NewRGBA(image.Rect(0, 0, 10, 10))), nil)
			return
		}
	}
	t.Fatalf("no pending fetch for %s", url)
}

func (f *manualFetcher) fail(t *testing.T, url string) {
	t.Helper()
	for i, p := range f.reqs {
		if p.url == url {
			f.reqs = append(f.reqs[:i], f.reqs[i+1:]...)
			p.done(nil, errors.New("boom"))
			return
		}
	}
	t.Fatalf("no pending fetch for %s", url)
}

func (f *manualFetcher) resolveAll() {
	reqs := f.reqs
	f.reqs = nil
	for _, p := range reqs {
		p.done(dlimage.NewSource(p.url, image.NewRGBA(image.Rect(0, 0, 10, 10))), nil)
	}
}

func testCatalog() Catalog {
	return Catalog{
		{Name: "a", PrimaryURL: "a/rgb.png", ComparisonURLs: []string{"a/d1.png", "a/d2.png"}, Labels: []string{"Ours", "Base"}},
		{Name: "b", PrimaryURL: "b/rgb.png", ComparisonURLs: []string{"b/d1.png", "b/d2.png"}, Labels: []string{"Ours", "Base"}},
		{Name: "c", PrimaryURL: "c/rgb.png", ComparisonURLs: []string{"c/d1.png"}, Labels: []string{"Ours"}},
	}
}

type recorder struct {
	scenes  []app.SceneChange
	started []app.Transition
	ended   []app.Transition
	ready   []app.AssetEvent
	failed  []app.AssetEvent
}

func newController(t *testing.T) (*Controller, *manualFetcher, *apptest.ManualScheduler, *recorder) {
	t.Helper()
	f := &manualFetcher{}
	s := apptest.NewManualScheduler()
	ev := app.NewEvents()
	r := &recorder{}
	ev.On(app.EventSceneChanged, func(d interface{}) { r.scenes = append(r.scenes, d.(app.SceneChange)) })
	ev.On(app.EventTransitionStarted, func(d interface{}) { r.started = append(r.started, d.(app.Transition)) })
	ev.On(app.EventTransitionEnded, func(d interface{}) { r.ended = append(r.ended, d.(app.Transition)) })
	ev.On(app.EventAssetReady, func(d interface{}) { r.ready = append(r.ready, d.(app.AssetEvent)) })
	ev.On(app.EventAssetFailed, func(d interface{}) { r.failed = append(r.failed, d.(app.AssetEvent)) })
	c := NewController(testCatalog(), f, s, ev, Options{Slots: 2})
	return c, f, s, r
}

func TestLoad(t *testing.T) {
	c, f, _, r := newController(t)
	require.True(t, c.Load(0))
	assert.Equal(t, 0, c.Index())
	require.Len(t, r.scenes, 1)
	assert.Equal(t, []string{"Ours", "Base"}, r.scenes[0].Labels)
	assert.Len(t, f.reqs, 3)

	assert.Nil(t, c.Primary())
	f.resolveAll()
	assert.NotNil(t, c.Primary())
	assert.NotNil(t, c.Comparison(0))
	assert.NotNil(t, c.Comparison(1))
	assert.Nil(t, c.Comparison(2))
	assert.Len(t, r.ready, 3)
}

func TestLoadOutOfRange(t *testing.T) {
	c, f, _, r := newController(t)
	assert.False(t, c.Load(-1))
	assert.False(t, c.Load(3))
	assert.Equal(t, -1, c.Index())
	assert.Empty(t, f.reqs)
	assert.Empty(t, r.scenes)
}

func TestStaleCompletionDropped(t *testing.T) {
	c, f, _, r := newController(t)
	require.True(t, c.Load(0))
	require.True(t, c.Load(1))
	f.resolve(t, "b/d1.png")
	b := c.Comparison(0)
	require.NotNil(t, b)

	// Scene a's load resolves late.
	f.resolve(t, "a/d1.png")
	f.resolve(t, "a/d2.png")
	f.resolve(t, "a/rgb.png")
	assert.Same(t, b, c.Comparison(0))
	assert.Nil(t, c.Comparison(1))
	assert.Nil(t, c.Primary())
	for _, ev := range r.ready {
		assert.Equal(t, 1, ev.Scene)
	}
}

func TestReloadDropsPreviousGeneration(t *testing.T) {
	c, f, _, _ := newController(t)
	require.True(t, c.Load(0))
	f.resolve(t, "a/rgb.png")
	primary := c.Primary()

	require.True(t, c.Reload([]string{"x/d1.png"}))
	assert.Same(t, primary, c.Primary(), "primary kept when url unchanged")
	assert.Equal(t, []string{"Ours"}, c.Labels())

	f.resolve(t, "a/d1.png")
	assert.Nil(t, c.Comparison(0))
	f.resolve(t, "x/d1.png")
	assert.Equal(t, "x/d1.png", c.Comparison(0).URL)
	assert.Equal(t, "a", c.Catalog()[0].Name)
	assert.Equal(t, "a/d1.png", c.Catalog()[0].ComparisonURLs[0])
}

func TestAssetFailure(t *testing.T) {
	c, f, _, r := newController(t)
	require.True(t, c.Load(0))
	f.fail(t, "a/d2.png")
	assert.Nil(t, c.Comparison(1))
	require.Len(t, r.failed, 1)
	assert.Equal(t, 1, r.failed[0].Slot)
	assert.Error(t, r.failed[0].Err)
}

func TestSwitchSceneTiming(t *testing.T) {
	c, f, s, r := newController(t)
	require.True(t, c.Load(0))
	f.resolveAll()

	require.True(t, c.Next())
	assert.True(t, c.Transitioning())
	require.Len(t, r.started, 1)
	assert.Equal(t, app.Transition{From: 0, To: 1, Direction: 1}, r.started[0])

	// Re-entrant requests are ignored.
	assert.False(t, c.Next())
	assert.False(t, c.Previous())
	assert.False(t, c.Load(2))

	s.Advance(DefaultTransition - 1)
	assert.Equal(t, 0, c.Index())
	s.Advance(1)
	assert.Equal(t, 1, c.Index())
	assert.True(t, c.Transitioning())
	assert.Empty(t, r.ended)

	s.Advance(DefaultTransition)
	assert.False(t, c.Transitioning())
	require.Len(t, r.ended, 1)
	assert.Equal(t, 0, s.PendingTimers())
}

func TestNavigationBounds(t *testing.T) {
	c, _, s, _ := newController(t)
	require.True(t, c.Load(0))
	assert.False(t, c.CanPrevious())
	assert.False(t, c.Previous())

	require.True(t, c.SwitchScene(2, 1))
	s.Advance(2 * DefaultTransition)
	assert.Equal(t, 2, c.Index())
	assert.False(t, c.CanNext())
	assert.False(t, c.Next())
	assert.True(t, c.Previous())
}

func TestSlotsTruncate(t *testing.T) {
	f := &manualFetcher{}
	c := NewController(testCatalog(), f, apptest.NewManualScheduler(), app.NewEvents(), Options{Slots: 1})
	require.True(t, c.Load(0))
	assert.Equal(t, []string{"a/d1.png"}, c.ComparisonURLs())
	assert.Len(t, f.reqs, 2)
}

func TestRequest(t *testing.T) {
	c, f, s, _ := newController(t)
	require.True(t, c.Request(app.SceneRequest{Index: 1}))
	assert.Equal(t, 1, c.Index(), "first request loads without a transition")

	require.True(t, c.Request(app.SceneRequest{PrimaryURL: "c/rgb.png"}))
	s.Advance(2 * DefaultTransition)
	assert.Equal(t, 2, c.Index())

	f.reqs = nil
	require.True(t, c.Request(app.SceneRequest{PrimaryURL: "z/rgb.png", ComparisonURLs: []string{"z/d.png"}}))
	assert.Len(t, f.reqs, 2)
	f.resolveAll()
	assert.Equal(t, "z/rgb.png", c.Primary().URL)
	assert.Equal(t, "z/d.png", c.Comparison(0).URL)
}

func TestSetCatalog(t *testing.T) {
	c, f, _, _ := newController(t)
	require.True(t, c.Load(2))
	f.resolveAll()

	c.SetCatalog(testCatalog()[:1])
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, "a", c.Name())
}
