package colortemp

import (
	"sync"
	"time"

	"github.com/philtems/colorwarm/internal/gamma"
)

// Skip reasons reported by the write gate
const (
	SkipUnchanged = "unchanged"
	SkipBackoff   = "backoff"
)

// WriteGate decides per output whether a ramp write is worth doing. It
// suppresses writes within the hysteresis band of the last applied ramp and
// backs off outputs that keep failing.
type WriteGate struct {
	mu          sync.RWMutex
	hysteresis  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	last        map[string]gamma.Ramp
	failures    map[string]int
	retryAt     map[string]time.Time
	now         func() time.Time
}

// NewWriteGate creates a write gate. Backoff starts at base and doubles per
// consecutive failure up to max.
func NewWriteGate(hysteresis int, base, max time.Duration) *WriteGate {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &WriteGate{
		hysteresis:  hysteresis,
		baseBackoff: base,
		maxBackoff:  max,
		last:        make(map[string]gamma.Ramp),
		failures:    make(map[string]int),
		retryAt:     make(map[string]time.Time),
		now:         time.Now,
	}
}

// ShouldWrite returns "" if r should be written to the output, otherwise the
// reason it is skipped. Forced writes skip both checks.
func (g *WriteGate) ShouldWrite(id string, r gamma.Ramp, force bool) string {
	if force {
		return ""
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if at, ok := g.retryAt[id]; ok && g.now().Before(at) {
		return SkipBackoff
	}
	last, ok := g.last[id]
	if ok && last.MaxDelta(r) <= g.hysteresis {
		return SkipUnchanged
	}
	return ""
}

// RecordWrite stores r as the output's last applied ramp and clears its
// failure state
func (g *WriteGate) RecordWrite(id string, r gamma.Ramp) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.last[id] = r.Clone()
	delete(g.failures, id)
	delete(g.retryAt, id)
}

// RecordFailure registers a failed write and returns the backoff before the
// next attempt
func (g *WriteGate) RecordFailure(id string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures[id]++
	backoff := g.baseBackoff
	for i := 1; i < g.failures[id] && backoff < g.maxBackoff; i++ {
		backoff *= 2
	}
	if backoff > g.maxBackoff {
		backoff = g.maxBackoff
	}
	g.retryAt[id] = g.now().Add(backoff)

	// The display state is unknown after a failure
	delete(g.last, id)
	return backoff
}

// Failures returns the number of consecutive failures of an output
func (g *WriteGate) Failures(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.failures[id]
}

// Last returns the last ramp written to an output
func (g *WriteGate) Last(id string) (gamma.Ramp, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.last[id]
	return r, ok
}

// Clear forgets everything, used when the display connection is rebuilt
func (g *WriteGate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.last = make(map[string]gamma.Ramp)
	g.failures = make(map[string]int)
	g.retryAt = make(map[string]time.Time)
}
