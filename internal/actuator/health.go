package actuator

import "sync"

// healthSample is a point-in-time fingerprint of the actuator's progress:
// comparing the cycle counter across two polls catches a wedged loop that
// stopped advancing without crashing.
type healthSample struct {
	cycleSeq uint64
}

func newHealthSample(a *Actuator) healthSample {
	a.mu.Lock()
	defer a.mu.Unlock()
	return healthSample{cycleSeq: a.cycle}
}

// isStuck reports whether no cycle completed between o and h. A cycleSeq
// of 0 means no cycle has run yet, which isn't stuck, just not started.
func (h healthSample) isStuck(o healthSample) bool {
	if h.cycleSeq == 0 {
		return false
	}
	return h.cycleSeq == o.cycleSeq
}

// HealthTracker accumulates one sample per Check call and reports whether
// the actuator has advanced since the previous one. The HTTP status
// surface owns a single tracker and calls Check on every /healthz poll, so
// the comparison interval is however often that endpoint gets hit.
type HealthTracker struct {
	mu   sync.Mutex
	last healthSample
	seen bool
}

// NewHealthTracker builds an empty tracker. The first Check call always
// reports healthy, since there is nothing yet to compare against.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{}
}

// Check samples the actuator's current cycle counter, compares it against
// the previous sample, and stores the new one for next time.
func (t *HealthTracker) Check(a *Actuator) bool {
	cur := newHealthSample(a)

	t.mu.Lock()
	defer t.mu.Unlock()

	healthy := true
	if t.seen {
		healthy = !cur.isStuck(t.last)
	}
	t.last = cur
	t.seen = true
	return healthy
}
