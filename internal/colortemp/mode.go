package colortemp

import (
	"sync"
	"time"

	"github.com/philtems/colorwarm/internal/gamma"
)

// Mode selects where the applied target comes from
type Mode string

const (
	// ModeAuto follows the solar schedule
	ModeAuto Mode = "auto"
	// ModeManual holds a user-chosen target until re-enabled or expired
	ModeManual Mode = "manual"
)

// ModeState is a point-in-time view of the mode manager
type ModeState struct {
	Mode      Mode         `json:"mode"`
	Target    gamma.Target `json:"target"`
	ExpiresAt time.Time    `json:"expires_at,omitempty"`
}

// ModeManager tracks the manual override
type ModeManager struct {
	mu        sync.RWMutex
	mode      Mode
	target    gamma.Target
	expiresAt time.Time
	now       func() time.Time
}

// NewModeManager creates a mode manager in automatic mode
func NewModeManager() *ModeManager {
	return &ModeManager{
		mode: ModeAuto,
		now:  time.Now,
	}
}

// SetManual holds target. A zero duration holds it until Auto is called.
// Returns the expiry, zero when there is none.
func (mm *ModeManager) SetManual(target gamma.Target, duration time.Duration) time.Time {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.mode = ModeManual
	mm.target = target
	mm.expiresAt = time.Time{}
	if duration > 0 {
		mm.expiresAt = mm.now().Add(duration)
	}
	return mm.expiresAt
}

// Auto re-enables automatic mode. Returns true if an override was cleared.
func (mm *ModeManager) Auto() bool {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	wasManual := mm.mode == ModeManual
	mm.mode = ModeAuto
	mm.target = gamma.Target{}
	mm.expiresAt = time.Time{}
	return wasManual
}

// Override returns the held target if a manual override is active. An expired
// override is cleared and reported as inactive.
func (mm *ModeManager) Override() (gamma.Target, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.mode != ModeManual {
		return gamma.Target{}, false
	}
	if !mm.expiresAt.IsZero() && mm.now().After(mm.expiresAt) {
		// Clean up expired override
		mm.mode = ModeAuto
		mm.target = gamma.Target{}
		mm.expiresAt = time.Time{}
		return gamma.Target{}, false
	}
	return mm.target, true
}

// State returns the current mode without expiring anything
func (mm *ModeManager) State() ModeState {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	return ModeState{Mode: mm.mode, Target: mm.target, ExpiresAt: mm.expiresAt}
}
