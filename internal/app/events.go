// Package app provides application lifecycle plumbing: the event bus, the
// single-threaded event loop, catalog watching, and the theme.
package app

import (
	"sync"

	"depthlens/pkg/geometry"
)

// EventType identifies different application events.
type EventType int

const (
	EventZoomChanged EventType = iota
	EventLensMoved
	EventHoverChanged
	EventSceneChanged
	EventTransitionStarted
	EventTransitionEnded
	EventAssetReady
	EventAssetFailed
	EventSceneChangeRequested
	EventCatalogReloaded
	EventNavChanged
)

func (e EventType) String() string {
	switch e {
	case EventZoomChanged:
		return "zoom-changed"
	case EventLensMoved:
		return "lens-moved"
	case EventHoverChanged:
		return "hover-changed"
	case EventSceneChanged:
		return "scene-changed"
	case EventTransitionStarted:
		return "transition-started"
	case EventTransitionEnded:
		return "transition-ended"
	case EventAssetReady:
		return "asset-ready"
	case EventAssetFailed:
		return "asset-failed"
	case EventSceneChangeRequested:
		return "scene-change-requested"
	case EventCatalogReloaded:
		return "catalog-reloaded"
	case EventNavChanged:
		return "nav-changed"
	default:
		return "unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ZoomChange is the payload of EventZoomChanged.
type ZoomChange struct {
	Text      string
	PatchSize float64
	Ratio     float64
}

// LensMove is the payload of EventLensMoved. Positions are in primary
// display pixels.
type LensMove struct {
	Center   geometry.Point2D // Clamped pointer position
	Loupe    geometry.Point2D // Top-left of the loupe square
	Diameter float64
}

// SceneChange is the payload of EventSceneChanged.
type SceneChange struct {
	Index  int
	Name   string
	Labels []string
}

// Transition is the payload of EventTransitionStarted and EventTransitionEnded.
type Transition struct {
	From      int
	To        int
	Direction int // -1 previous, +1 next
}

// AssetEvent is the payload of EventAssetReady and EventAssetFailed.
// Slot is -1 for the primary image.
type AssetEvent struct {
	Scene int
	Slot  int
	URL   string
	Err   error
}

// SceneRequest asks the scene controller to show an explicit asset set, as
// sent by the thumbnail gallery. Index selects a catalog scene when
// PrimaryURL is empty.
type SceneRequest struct {
	Index          int
	PrimaryURL     string
	ComparisonURLs []string
}

// NavState is the payload of EventNavChanged: which navigation buttons
// should be enabled.
type NavState struct {
	CanPrevious bool
	CanNext     bool
	Index       int
	Count       int
}

// Events is a synchronous publish/subscribe bus.
type Events struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// NewEvents creates an empty event bus.
func NewEvents() *Events {
	return &Events{listeners: make(map[EventType][]EventListener)}
}

// On registers an event listener for the specified event type.
func (e *Events) On(event EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Events) Emit(event EventType, data interface{}) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
