// Package metrics provides Prometheus metrics for colorwarm.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Target ─────────────────────────────────────────────────────────────────

// Kelvin is the color temperature currently applied.
var Kelvin = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "colorwarm",
	Name:      "kelvin",
	Help:      "Color temperature currently applied, in kelvin.",
})

// Brightness is the brightness currently applied.
var Brightness = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "colorwarm",
	Name:      "brightness",
	Help:      "Brightness currently applied (0-1).",
})

// Mode is 1 for the active mode label and 0 for the other.
var Mode = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "colorwarm",
	Name:      "mode",
	Help:      "Active control mode (auto or manual).",
}, []string{"mode"})

// Phase is 1 for the current scheduler phase.
var Phase = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "colorwarm",
	Name:      "phase",
	Help:      "Current scheduler phase.",
}, []string{"phase"})

// ─── Display ────────────────────────────────────────────────────────────────

// RampWrites counts gamma ramps written per output.
var RampWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "colorwarm",
	Name:      "ramp_writes_total",
	Help:      "Total gamma ramps written.",
}, []string{"output"})

// RampWritesSkipped counts writes suppressed by hysteresis or backoff.
var RampWritesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "colorwarm",
	Name:      "ramp_writes_skipped_total",
	Help:      "Total gamma ramp writes skipped.",
}, []string{"output", "reason"})

// DisplayErrors counts failed display operations per output.
var DisplayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "colorwarm",
	Name:      "display_errors_total",
	Help:      "Total failed display operations.",
}, []string{"output"})

// Outputs is the number of outputs under control.
var Outputs = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "colorwarm",
	Name:      "outputs",
	Help:      "Number of outputs under control.",
})

// ─── Sinks ──────────────────────────────────────────────────────────────────

// SinkErrors counts failed status publications per sink.
var SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "colorwarm",
	Name:      "sink_errors_total",
	Help:      "Total failed status publications.",
}, []string{"sink"})

// SetMode marks mode as the active one.
func SetMode(mode string) {
	for _, m := range []string{"auto", "manual"} {
		v := 0.0
		if m == mode {
			v = 1
		}
		Mode.WithLabelValues(m).Set(v)
	}
}

// SetPhase marks phase as the current one.
func SetPhase(phase string) {
	for _, p := range []string{"night", "morning", "afternoon"} {
		v := 0.0
		if p == phase {
			v = 1
		}
		Phase.WithLabelValues(p).Set(v)
	}
}
