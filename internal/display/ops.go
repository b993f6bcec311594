package display

import (
	"context"
	"errors"
	"fmt"

	"github.com/philtems/colorwarm/internal/gamma"
)

// toggleThreshold: anything warmer than neutral minus this counts as warm
const toggleThreshold = 100

// Filter narrows the outputs a command acts on. Negative numbers and an empty
// name match everything.
type Filter struct {
	Screen int
	CRTC   int
	Name   string
}

// All matches every output
var All = Filter{Screen: -1, CRTC: -1}

// Match reports whether out passes the filter
func (f Filter) Match(out Output) bool {
	if f.Screen >= 0 && out.Screen != f.Screen {
		return false
	}
	if f.CRTC >= 0 && out.Index != f.CRTC {
		return false
	}
	return f.Name == "" || out.Name == f.Name
}

// Select returns the outputs matching f
func Select(outputs []Output, f Filter) []Output {
	var selected []Output
	for _, o := range outputs {
		if f.Match(o) {
			selected = append(selected, o)
		}
	}
	return selected
}

// Reading is the estimated state of one output
type Reading struct {
	Output Output       `json:"output"`
	Target gamma.Target `json:"target"`
	Error  string       `json:"error,omitempty"`
	Err    error        `json:"-"`
}

// Query reads and estimates every output. Failures are reported per reading.
func Query(ctx context.Context, c Controller, outputs []Output) []Reading {
	readings := make([]Reading, 0, len(outputs))
	for _, o := range outputs {
		r, err := c.ReadRamp(ctx, o)
		if err != nil {
			readings = append(readings, Reading{Output: o, Error: err.Error(), Err: err})
			continue
		}
		readings = append(readings, Reading{Output: o, Target: gamma.Estimate(r)})
	}
	return readings
}

// Current returns the target of the first readable output, or neutral
func Current(readings []Reading) gamma.Target {
	for _, r := range readings {
		if r.Err == nil && r.Error == "" {
			return r.Target
		}
	}
	return gamma.Neutral()
}

// ToggleTarget flips between neutral and night, keeping brightness
func ToggleTarget(current gamma.Target) gamma.Target {
	next := gamma.Target{Kelvin: gamma.NeutralKelvin, Brightness: current.Brightness}
	if current.Kelvin > gamma.NeutralKelvin-toggleThreshold {
		next.Kelvin = gamma.NightKelvin
	}
	if next.Brightness <= 0 {
		next.Brightness = 1.0
	}
	return next
}

// Apply builds and writes target on every output. One output failing does not
// stop the others; all failures are joined.
func Apply(ctx context.Context, c Controller, outputs []Output, target gamma.Target) error {
	var errs []error
	for _, o := range outputs {
		ramp, err := gamma.Build(target, o.RampSize)
		if err == nil {
			err = c.WriteRamp(ctx, o, ramp)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("output %s: %w", o.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ResetAll restores the identity ramp on every output
func ResetAll(ctx context.Context, c Controller, outputs []Output) error {
	var errs []error
	for _, o := range outputs {
		if err := c.Reset(ctx, o); err != nil {
			errs = append(errs, fmt.Errorf("output %s: %w", o.Name, err))
		}
	}
	return errors.Join(errs...)
}
