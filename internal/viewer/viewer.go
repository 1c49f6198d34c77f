// Package viewer assembles the scene controller and magnifier into one
// explicitly owned object and routes input onto the event loop.
package viewer

import (
	"depthlens/internal/app"
	"depthlens/internal/config"
	"depthlens/internal/lens"
	"depthlens/internal/scene"
	"depthlens/pkg/geometry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Viewer owns every stateful component. Input methods may be called from
// any goroutine; they post onto the scheduler.
type Viewer struct {
	Config    config.Config
	Events    *app.Events
	Scenes    *scene.Controller
	Magnifier *lens.Magnifier

	sched  app.Scheduler
	logger zerolog.Logger
}

// New wires a viewer. Nothing loads until Start.
func New(cfg config.Config, fetcher scene.Fetcher, sched app.Scheduler) *Viewer {
	events := app.NewEvents()
	ctrl := scene.NewController(cfg.Scenes, fetcher, sched, events, scene.Options{
		Transition: cfg.TransitionDuration(),
		Slots:      cfg.ComparisonCount,
	})
	mag := lens.NewMagnifier(cfg.Lens(), ctrl, ctrl, sched, events)

	v := &Viewer{
		Config:    cfg,
		Events:    events,
		Scenes:    ctrl,
		Magnifier: mag,
		sched:     sched,
		logger:    log.With().Str("module", "viewer").Logger(),
	}

	events.On(app.EventSceneChanged, func(interface{}) {
		mag.SceneChanged()
		v.publishNav()
	})
	events.On(app.EventAssetReady, func(data interface{}) {
		mag.AssetReady(data.(app.AssetEvent).Slot)
	})
	events.On(app.EventTransitionStarted, func(interface{}) {
		mag.BeginTransition()
		v.publishNav()
	})
	events.On(app.EventTransitionEnded, func(interface{}) {
		mag.EndTransition()
		v.publishNav()
	})
	events.On(app.EventSceneChangeRequested, func(data interface{}) {
		ctrl.Request(data.(app.SceneRequest))
	})
	return v
}

// Start loads the first scene.
func (v *Viewer) Start() {
	v.sched.Post(func() {
		if !v.Scenes.Load(0) {
			v.logger.Warn().Msg("catalog has no scenes")
		}
		v.publishNav()
	})
}

// Post runs fn on the event loop.
func (v *Viewer) Post(fn func()) { v.sched.Post(fn) }

func (v *Viewer) publishNav() {
	v.Events.Emit(app.EventNavChanged, app.NavState{
		CanPrevious: v.Scenes.CanPrevious(),
		CanNext:     v.Scenes.CanNext(),
		Index:       v.Scenes.Index(),
		Count:       v.Scenes.Len(),
	})
}

// Resize reports the primary image's display size.
func (v *Viewer) Resize(display geometry.Size) {
	v.sched.Post(func() { v.Magnifier.Resize(display) })
}

// PointerEnter forwards pointer entry over the primary image.
func (v *Viewer) PointerEnter(pos geometry.Point2D) {
	v.sched.Post(func() { v.Magnifier.PointerEnter(pos) })
}

// PointerMove forwards pointer movement.
func (v *Viewer) PointerMove(pos geometry.Point2D) {
	v.sched.Post(func() { v.Magnifier.PointerMove(pos) })
}

// PointerLeave forwards pointer exit.
func (v *Viewer) PointerLeave() {
	v.sched.Post(v.Magnifier.PointerLeave)
}

// TouchStart forwards a touch beginning.
func (v *Viewer) TouchStart(pos geometry.Point2D) {
	v.sched.Post(func() { v.Magnifier.TouchStart(pos) })
}

// TouchMove forwards a touch drag.
func (v *Viewer) TouchMove(pos geometry.Point2D) {
	v.sched.Post(func() { v.Magnifier.TouchMove(pos) })
}

// TouchEnd forwards the end of a touch.
func (v *Viewer) TouchEnd() {
	v.sched.Post(v.Magnifier.TouchEnd)
}

// Wheel forwards a wheel delta; positive deltaY zooms out.
func (v *Viewer) Wheel(deltaY float64) {
	v.sched.Post(func() { v.Magnifier.Wheel(deltaY) })
}

// KeyDirection maps the zoom keys: '+' and '=' zoom in, '-' zooms out.
func KeyDirection(r rune) (lens.Direction, bool) {
	switch r {
	case '+', '=':
		return lens.ZoomIn, true
	case '-':
		return lens.ZoomOut, true
	}
	return 0, false
}

// Key handles a typed rune. Returns whether it was a zoom key.
func (v *Viewer) Key(r rune) bool {
	dir, ok := KeyDirection(r)
	if !ok {
		return false
	}
	v.sched.Post(func() { v.Magnifier.KeyZoom(dir) })
	return true
}

// Next requests the following scene.
func (v *Viewer) Next() {
	v.sched.Post(func() { v.Scenes.Next() })
}

// Previous requests the preceding scene.
func (v *Viewer) Previous() {
	v.sched.Post(func() { v.Scenes.Previous() })
}

// RequestScene publishes a gallery request for the scene controller.
func (v *Viewer) RequestScene(req app.SceneRequest) {
	v.sched.Post(func() { v.Events.Emit(app.EventSceneChangeRequested, req) })
}

// Reload replaces the current scene's comparison images.
func (v *Viewer) Reload(comparisonURLs []string) {
	v.sched.Post(func() { v.Scenes.Reload(comparisonURLs) })
}

// ReloadCatalog re-reads the config file and swaps in its scenes. Safe to
// call from a watcher goroutine; the file is parsed on the caller.
func (v *Viewer) ReloadCatalog(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		v.logger.Warn().Err(err).Str("path", path).Msg("catalog reload failed, keeping current scenes")
		return
	}
	v.sched.Post(func() {
		v.Scenes.SetCatalog(cfg.Scenes)
		v.Events.Emit(app.EventCatalogReloaded, len(cfg.Scenes))
		v.publishNav()
	})
}
