package app

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cancel stops a scheduled callback. Calling it more than once is harmless.
type Cancel func()

// Scheduler runs callbacks on a single logical thread. Everything that
// touches magnifier or scene state goes through it.
type Scheduler interface {
	// Post queues fn to run on the loop.
	Post(fn func())
	// AfterFunc runs fn on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Cancel
	// RequestFrame runs fn once on the next animation frame.
	RequestFrame(fn func()) Cancel
}

// DefaultFrameInterval approximates a 60 Hz display refresh.
const DefaultFrameInterval = time.Second / 60

// Loop is the production Scheduler: one goroutine draining a queue of
// posted closures and firing frame callbacks on a ticker.
type Loop struct {
	frameInterval time.Duration

	mu      sync.Mutex
	queue   []func()
	frames  map[uint64]func()
	nextID  uint64
	running bool

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a stopped loop.
func NewLoop(frameInterval time.Duration) *Loop {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Loop{
		frameInterval: frameInterval,
		frames:        make(map[uint64]func()),
		wake:          make(chan struct{}, 1),
	}
}

// Start begins processing in a background goroutine.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stopCh, l.done)
}

// Stop halts the loop and waits for the goroutine to exit. Pending work is dropped.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	done := l.done
	l.mu.Unlock()
	<-done
}

// Post queues fn. Safe from any goroutine, including the loop itself.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc posts fn after d unless cancelled first.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Cancel {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// RequestFrame registers fn for the next tick.
func (l *Loop) RequestFrame(fn func()) Cancel {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.frames[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.frames, id)
		l.mu.Unlock()
	}
}

func (l *Loop) run(stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-l.wake:
			l.drain()
		case <-ticker.C:
			l.tick()
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

// tick runs the callbacks registered before this frame. Callbacks that
// request another frame land in the next tick.
func (l *Loop) tick() {
	l.mu.Lock()
	if len(l.frames) == 0 {
		l.mu.Unlock()
		return
	}
	pending := l.frames
	l.frames = make(map[uint64]func())
	l.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
