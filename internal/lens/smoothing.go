package lens

import (
	"gonum.org/v1/gonum/floats/scalar"
)

// settleTolerance is how close, in display pixels, the smoothed pointer has
// to get to the target before the frame loop stops.
const settleTolerance = 0.05

func (m *Magnifier) startSmoothing() {
	if m.cancelFrame != nil {
		return
	}
	m.cancelFrame = m.sched.RequestFrame(m.smoothFrame)
}

// stopSmoothing cancels a pending frame. Safe to call when none is pending.
func (m *Magnifier) stopSmoothing() {
	if m.cancelFrame != nil {
		m.cancelFrame()
		m.cancelFrame = nil
	}
}

// Smoothing reports whether a smoothing frame is pending.
func (m *Magnifier) Smoothing() bool { return m.cancelFrame != nil }

func (m *Magnifier) smoothFrame() {
	m.cancelFrame = nil
	if !m.pointer.Hovering || m.blocked() {
		return
	}

	p := &m.pointer
	p.Current = p.Current.Lerp(p.Target, m.cfg.SmoothingFactor)
	settled := scalar.EqualWithinAbs(p.Current.X, p.Target.X, settleTolerance) &&
		scalar.EqualWithinAbs(p.Current.Y, p.Target.Y, settleTolerance)
	if settled {
		p.Current = p.Target
	}
	m.redraw(p.Current)

	if !settled {
		m.cancelFrame = m.sched.RequestFrame(m.smoothFrame)
	}
}
