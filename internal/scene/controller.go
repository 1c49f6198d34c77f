package scene

import (
	"time"

	"depthlens/internal/app"
	dlimage "depthlens/internal/image"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTransition is the duration of each half of a scene switch.
const DefaultTransition = 500 * time.Millisecond

// Fetcher loads an asset asynchronously. done must run on the scheduler's thread.
type Fetcher interface {
	Fetch(url string, done func(*dlimage.Source, error))
}

// Options configures a Controller.
type Options struct {
	Transition time.Duration // each of slide-out and slide-in
	Slots      int           // comparison viewports available
}

// Controller owns the current scene index and the decoded assets for it.
// Every asset completion is tagged with the scene index and load generation
// it was issued for and is dropped if either has moved on.
//
// All methods must be called from the scheduler's thread.
type Controller struct {
	catalog Catalog
	fetcher Fetcher
	sched   app.Scheduler
	events  *app.Events
	logger  zerolog.Logger
	opts    Options

	index         int
	generation    uint64
	transitioning bool

	name           string
	primaryURL     string
	primary        *dlimage.Source
	comparisonURLs []string
	comparisons    []*dlimage.Source
	labels         []string
}

// NewController creates a controller with no scene loaded.
func NewController(catalog Catalog, fetcher Fetcher, sched app.Scheduler, events *app.Events, opts Options) *Controller {
	if opts.Transition <= 0 {
		opts.Transition = DefaultTransition
	}
	if opts.Slots <= 0 {
		opts.Slots = 1
	}
	return &Controller{
		catalog: catalog,
		fetcher: fetcher,
		sched:   sched,
		events:  events,
		logger:  log.With().Str("module", "scene").Logger(),
		opts:    opts,
		index:   -1,
	}
}

// Index returns the current scene index, -1 before the first load.
func (c *Controller) Index() int { return c.index }

// Len returns the number of scenes in the catalog.
func (c *Controller) Len() int { return len(c.catalog) }

// Catalog returns the scene list.
func (c *Controller) Catalog() Catalog { return c.catalog }

// Scene returns scene i.
func (c *Controller) Scene(i int) (Scene, bool) {
	if i < 0 || i >= len(c.catalog) {
		return Scene{}, false
	}
	return c.catalog[i], true
}

// Labels returns the labels of the comparison images on screen.
func (c *Controller) Labels() []string { return c.labels }

// Name returns the current scene name.
func (c *Controller) Name() string { return c.name }

// Primary returns the primary image, nil until loaded.
func (c *Controller) Primary() *dlimage.Source { return c.primary }

// Comparison returns the comparison image in slot, nil until loaded.
func (c *Controller) Comparison(slot int) *dlimage.Source {
	if slot < 0 || slot >= len(c.comparisons) {
		return nil
	}
	return c.comparisons[slot]
}

// ComparisonURLs returns the URLs currently assigned to the slots.
func (c *Controller) ComparisonURLs() []string { return c.comparisonURLs }

// Transitioning reports whether a scene switch is running.
func (c *Controller) Transitioning() bool { return c.transitioning }

// CanPrevious reports whether Previous would do anything.
func (c *Controller) CanPrevious() bool { return !c.transitioning && c.index > 0 }

// CanNext reports whether Next would do anything.
func (c *Controller) CanNext() bool { return !c.transitioning && c.index+1 < len(c.catalog) }

// Load shows scene i immediately. Out-of-range indices and calls during a
// transition are ignored.
func (c *Controller) Load(i int) bool {
	if c.transitioning {
		c.logger.Debug().Int("index", i).Msg("load ignored during transition")
		return false
	}
	if i < 0 || i >= len(c.catalog) {
		c.logger.Debug().Int("index", i).Int("scenes", len(c.catalog)).Msg("scene index out of range")
		return false
	}
	c.load(i)
	return true
}

// load is Load without the transition guard; the transition itself uses it.
func (c *Controller) load(i int) {
	s := c.catalog[i]
	c.index = i
	c.apply(s.Name, s.PrimaryURL, s.ComparisonURLs, s.Labels)
}

// Next switches to the following scene.
func (c *Controller) Next() bool {
	if !c.CanNext() {
		return false
	}
	return c.SwitchScene(c.index+1, 1)
}

// Previous switches to the preceding scene.
func (c *Controller) Previous() bool {
	if !c.CanPrevious() {
		return false
	}
	return c.SwitchScene(c.index-1, -1)
}

// SwitchScene slides out, loads scene i, then slides in. Each phase lasts
// the configured transition. Requests while a switch is running are dropped.
func (c *Controller) SwitchScene(i, direction int) bool {
	if c.transitioning || i < 0 || i >= len(c.catalog) || i == c.index {
		return false
	}

	c.transitioning = true
	t := app.Transition{From: c.index, To: i, Direction: direction}
	c.logger.Info().Int("from", t.From).Int("to", t.To).Msg("switching scene")
	c.events.Emit(app.EventTransitionStarted, t)

	c.sched.AfterFunc(c.opts.Transition, func() {
		c.load(i)
		c.sched.AfterFunc(c.opts.Transition, func() {
			c.transitioning = false
			c.events.Emit(app.EventTransitionEnded, t)
		})
	})
	return true
}

// Reload swaps the comparison images of the current scene without touching
// the catalog or the primary image.
func (c *Controller) Reload(comparisonURLs []string) bool {
	if c.transitioning || c.index < 0 {
		return false
	}
	labels := make([]string, len(comparisonURLs))
	copy(labels, c.labels)
	c.apply(c.name, c.primaryURL, comparisonURLs, labels)
	return true
}

// Request handles a gallery scene request: a catalog index, a catalog scene
// named by its primary URL, or an explicit asset set.
func (c *Controller) Request(req app.SceneRequest) bool {
	if c.transitioning {
		return false
	}
	if req.PrimaryURL == "" {
		return c.switchTo(req.Index)
	}

	i := c.catalog.IndexOf(req.PrimaryURL)
	if i >= 0 && len(req.ComparisonURLs) == 0 {
		return c.switchTo(i)
	}
	if i >= 0 {
		c.index = i
	}
	if len(req.ComparisonURLs) == 0 {
		return false
	}
	labels := make([]string, len(req.ComparisonURLs))
	copy(labels, c.labels)
	c.apply(c.name, req.PrimaryURL, req.ComparisonURLs, labels)
	return true
}

func (c *Controller) switchTo(i int) bool {
	if c.index < 0 {
		return c.Load(i)
	}
	dir := 1
	if i < c.index {
		dir = -1
	}
	return c.SwitchScene(i, dir)
}

// SetCatalog replaces the scene list and re-applies the current scene.
func (c *Controller) SetCatalog(catalog Catalog) {
	c.catalog = catalog
	if c.transitioning {
		return
	}
	switch {
	case len(catalog) == 0:
		return
	case c.index < 0 || c.index >= len(catalog):
		c.load(0)
	default:
		c.load(c.index)
	}
}

// apply replaces the asset set and issues loads. The primary is kept when
// its URL does not change.
func (c *Controller) apply(name, primaryURL string, comparisonURLs, labels []string) {
	c.generation++
	gen, idx := c.generation, c.index

	if len(comparisonURLs) > c.opts.Slots {
		c.logger.Warn().Int("images", len(comparisonURLs)).Int("slots", c.opts.Slots).Msg("extra comparison images ignored")
		comparisonURLs = comparisonURLs[:c.opts.Slots]
	}

	c.name = name
	c.labels = labels
	c.comparisonURLs = append([]string(nil), comparisonURLs...)
	c.comparisons = make([]*dlimage.Source, c.opts.Slots)

	if primaryURL != c.primaryURL || c.primary == nil {
		c.primaryURL = primaryURL
		c.primary = nil
		c.fetch(-1, primaryURL, gen, idx)
	}

	c.events.Emit(app.EventSceneChanged, app.SceneChange{Index: idx, Name: name, Labels: labels})

	for slot, u := range c.comparisonURLs {
		c.fetch(slot, u, gen, idx)
	}
}

func (c *Controller) fetch(slot int, url string, gen uint64, idx int) {
	if c.fetcher == nil || url == "" {
		return
	}
	c.fetcher.Fetch(url, func(src *dlimage.Source, err error) {
		c.complete(slot, url, gen, idx, src, err)
	})
}

func (c *Controller) complete(slot int, url string, gen uint64, idx int, src *dlimage.Source, err error) {
	stale := gen != c.generation || idx != c.index
	if slot < 0 {
		// A kept primary survives generation bumps; only its URL matters.
		stale = url != c.primaryURL || c.primary != nil
	} else if !stale && (slot >= len(c.comparisonURLs) || c.comparisonURLs[slot] != url) {
		stale = true
	}
	if stale {
		c.logger.Debug().Str("url", url).Int("scene", idx).Int("current", c.index).Msg("dropping stale asset")
		return
	}

	ev := app.AssetEvent{Scene: idx, Slot: slot, URL: url, Err: err}
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Int("slot", slot).Msg("asset failed to load")
		c.events.Emit(app.EventAssetFailed, ev)
		return
	}

	if slot < 0 {
		c.primary = src
	} else {
		c.comparisons[slot] = src
	}
	c.logger.Debug().Str("url", url).Int("slot", slot).Msg("asset ready")
	c.events.Emit(app.EventAssetReady, ev)
}
