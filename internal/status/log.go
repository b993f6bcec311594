package status

import (
	"context"
	"log/slog"
)

// LogSink writes snapshots as structured log lines
type LogSink struct {
	logger  *slog.Logger
	verbose bool
}

// NewLogSink creates a log sink. With verbose set every tick is logged at
// Info, otherwise only applied changes are.
func NewLogSink(logger *slog.Logger, verbose bool) *LogSink {
	return &LogSink{logger: logger, verbose: verbose}
}

// Name implements Sink
func (l *LogSink) Name() string { return "log" }

// Publish implements Sink
func (l *LogSink) Publish(ctx context.Context, s Snapshot) error {
	level := slog.LevelDebug
	if l.verbose || (s.Changed() && s.Trigger != "tick") {
		level = slog.LevelInfo
	}

	l.logger.Log(ctx, level, "Status",
		"trigger", s.Trigger,
		"phase", s.Phase,
		"mode", s.Mode,
		"kelvin", s.Kelvin,
		"brightness", s.Brightness,
		"sunrise", s.Sunrise.Format("15:04"),
		"sunset", s.Sunset.Format("15:04"),
		"changed", s.Changed())

	for _, o := range s.Outputs {
		if o.Error != "" {
			l.logger.Warn("Output failed", "output", o.Name, "error", o.Error)
		}
	}
	return nil
}

// Close implements Sink
func (l *LogSink) Close() error { return nil }
