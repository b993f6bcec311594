package schedule

import (
	"math"
	"time"

	"github.com/philtems/colorwarm/internal/gamma"
	"github.com/philtems/colorwarm/internal/solar"
)

// Reference temperatures
const (
	NightKelvin = gamma.NightKelvin
	DayKelvin   = gamma.NeutralKelvin
)

// MinWindow is the narrowest transition window. A zero window would make the
// temperature jump at sunrise and sunset.
const MinWindow = time.Minute

// Phase is the scheduler's current mode
type Phase string

const (
	Night     Phase = "night"
	Morning   Phase = "morning"
	Afternoon Phase = "afternoon"
)

// Target is a color temperature and brightness to apply
type Target = gamma.Target

// Config holds the scheduler parameters
type Config struct {
	MorningWindow time.Duration
	EveningWindow time.Duration
	NightKelvin   int
	DayKelvin     int
	Curve         Curve
}

// DefaultConfig returns a one hour window on each side of sunrise and sunset
func DefaultConfig() Config {
	return Config{
		MorningWindow: time.Hour,
		EveningWindow: time.Hour,
		NightKelvin:   NightKelvin,
		DayKelvin:     DayKelvin,
		Curve:         EaseInOut,
	}
}

// Scheduler maps a time of day to a target temperature. It holds no state
// beyond its configuration.
type Scheduler struct {
	cfg Config
}

// NewScheduler creates a scheduler. Zero temperatures fall back to the
// reference values and windows are at least MinWindow.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.NightKelvin == 0 {
		cfg.NightKelvin = NightKelvin
	}
	if cfg.DayKelvin == 0 {
		cfg.DayKelvin = DayKelvin
	}
	if cfg.MorningWindow < MinWindow {
		cfg.MorningWindow = MinWindow
	}
	if cfg.EveningWindow < MinWindow {
		cfg.EveningWindow = MinWindow
	}
	return &Scheduler{cfg: cfg}
}

// Config returns the scheduler configuration
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Windows returns the effective half-widths of the morning and evening
// transitions. Each is limited to half the daylight so the two never overlap.
func (s *Scheduler) Windows(ev solar.Events) (morning, evening time.Duration) {
	half := ev.Daylight() / 2
	if half < 0 {
		half = 0
	}
	morning, evening = s.cfg.MorningWindow, s.cfg.EveningWindow
	if morning > half {
		morning = half
	}
	if evening > half {
		evening = half
	}
	return morning, evening
}

// Evaluate returns the phase and target for now. Brightness is always 1.0.
func (s *Scheduler) Evaluate(now time.Time, ev solar.Events) (Phase, Target) {
	wm, we := s.Windows(ev)
	dawn := ev.Sunrise.Add(-wm)
	dusk := ev.Sunset.Add(we)
	noon := ev.Noon()

	switch {
	case now.Before(dawn) || now.After(dusk):
		return Night, s.target(0)
	case now.Before(noon):
		return Morning, s.target(s.progress(now, dawn, ev.Sunrise.Add(wm)))
	default:
		return Afternoon, s.target(1 - s.progress(now, ev.Sunset.Add(-we), dusk))
	}
}

// Next returns the next instant after now at which the phase changes
func (s *Scheduler) Next(now time.Time, ev solar.Events) (Phase, time.Time) {
	wm, we := s.Windows(ev)
	dawn := ev.Sunrise.Add(-wm)
	dusk := ev.Sunset.Add(we)
	noon := ev.Noon()

	switch {
	case now.Before(dawn):
		return Morning, dawn
	case now.Before(noon):
		return Afternoon, noon
	case !now.After(dusk):
		return Night, dusk
	default:
		return Morning, dawn.AddDate(0, 0, 1)
	}
}

// progress returns the curve-shaped fraction of [start, end] elapsed at now
func (s *Scheduler) progress(now, start, end time.Time) float64 {
	span := end.Sub(start)
	if span <= 0 {
		if now.Before(start) {
			return 0
		}
		return 1
	}
	return s.cfg.Curve.Apply(float64(now.Sub(start)) / float64(span))
}

func (s *Scheduler) target(p float64) Target {
	k := float64(s.cfg.NightKelvin) + p*float64(s.cfg.DayKelvin-s.cfg.NightKelvin)
	return Target{Kelvin: int(math.Round(k)), Brightness: 1.0}
}
