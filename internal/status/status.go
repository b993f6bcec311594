package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/philtems/colorwarm/internal/metrics"
)

// OutputResult is what happened to one output during a tick or command
type OutputResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Written bool   `json:"written"`
	Skipped string `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is the agent state after one tick or command
type Snapshot struct {
	RunID           string         `json:"run_id"`
	Host            string         `json:"host"`
	Time            time.Time      `json:"time"`
	Trigger         string         `json:"trigger"`
	Phase           string         `json:"phase"`
	Mode            string         `json:"mode"`
	Kelvin          int            `json:"kelvin"`
	Brightness      float64        `json:"brightness"`
	Location        string         `json:"location"`
	Sunrise         time.Time      `json:"sunrise"`
	Sunset          time.Time      `json:"sunset"`
	OverrideExpires *time.Time     `json:"override_expires,omitempty"`
	Outputs         []OutputResult `json:"outputs"`
}

// Changed reports whether any output was written
func (s Snapshot) Changed() bool {
	for _, o := range s.Outputs {
		if o.Written {
			return true
		}
	}
	return false
}

// Failed returns the number of outputs that reported an error
func (s Snapshot) Failed() int {
	n := 0
	for _, o := range s.Outputs {
		if o.Error != "" {
			n++
		}
	}
	return n
}

// Sink receives snapshots
type Sink interface {
	Name() string
	Publish(ctx context.Context, s Snapshot) error
	Close() error
}

// Fanout publishes to several sinks. A failing sink is logged and never
// affects the others or the caller.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewFanout creates a fan-out over sinks; nil entries are ignored
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	f := &Fanout{logger: logger}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Add appends a sink
func (f *Fanout) Add(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Name implements Sink
func (f *Fanout) Name() string { return "fanout" }

// Publish implements Sink. It always returns nil.
func (f *Fanout) Publish(ctx context.Context, s Snapshot) error {
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
			f.logger.Warn("Failed to publish status", "sink", sink.Name(), "error", err)
		}
	}
	return nil
}

// Close implements Sink
func (f *Fanout) Close() error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
