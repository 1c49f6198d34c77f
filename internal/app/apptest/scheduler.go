// Package apptest provides a deterministic Scheduler for tests.
package apptest

import (
	"sort"
	"time"

	"depthlens/internal/app"
)

type timer struct {
	id        uint64
	at        time.Duration
	fn        func()
	cancelled bool
}

// ManualScheduler runs nothing until told to. Time is virtual and only
// moves through Advance.
type ManualScheduler struct {
	now    time.Duration
	nextID uint64
	queue  []func()
	timers []*timer
	frames map[uint64]func()
}

var _ app.Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{frames: make(map[uint64]func())}
}

// Post queues fn until the next Drain.
func (s *ManualScheduler) Post(fn func()) {
	s.queue = append(s.queue, fn)
}

// AfterFunc schedules fn at now+d.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) app.Cancel {
	s.nextID++
	t := &timer{id: s.nextID, at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

// RequestFrame registers fn for the next Frame call.
func (s *ManualScheduler) RequestFrame(fn func()) app.Cancel {
	s.nextID++
	id := s.nextID
	s.frames[id] = fn
	return func() { delete(s.frames, id) }
}

// Drain runs posted closures, including ones posted while draining.
func (s *ManualScheduler) Drain() {
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
	}
}

// Advance moves the clock forward, firing due timers in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		s.Drain()
		t := s.nextDue(target)
		if t == nil {
			break
		}
		s.now = t.at
		t.fn()
	}
	s.now = target
	s.Drain()
}

func (s *ManualScheduler) nextDue(limit time.Duration) *timer {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at == s.timers[j].at {
			return s.timers[i].id < s.timers[j].id
		}
		return s.timers[i].at < s.timers[j].at
	})
	if len(s.timers) == 0 || s.timers[0].at > limit {
		return nil
	}
	t := s.timers[0]
	s.timers = s.timers[1:]
	return t
}

// Frame fires the callbacks registered so far, in registration order.
func (s *ManualScheduler) Frame() {
	ids := make([]uint64, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pending := s.frames
	s.frames = make(map[uint64]func())
	for _, id := range ids {
		pending[id]()
	}
	s.Drain()
}

// Frames calls Frame n times.
func (s *ManualScheduler) Frames(n int) {
	for i := 0; i < n; i++ {
		s.Frame()
	}
}

// PendingFrames reports how many frame callbacks are registered.
func (s *ManualScheduler) PendingFrames() int {
	return len(s.frames)
}

// PendingTimers reports how many timers have not fired or been cancelled.
func (s *ManualScheduler) PendingTimers() int {
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Duration {
	return s.now
}
