package colortemp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/gamma"
	"github.com/philtems/colorwarm/internal/location"
	"github.com/philtems/colorwarm/internal/metrics"
	"github.com/philtems/colorwarm/internal/schedule"
	"github.com/philtems/colorwarm/internal/solar"
	"github.com/philtems/colorwarm/internal/status"
	"github.com/philtems/colorwarm/pkg/config"
)

// DefaultStartupBackoff is the pause after the first failed connection attempt
const DefaultStartupBackoff = time.Second

// Deps are the collaborators of an Agent
type Deps struct {
	Display    display.Controller
	Filter     display.Filter
	Calculator *solar.Calculator
	Scheduler  *schedule.Scheduler
	Location   location.Location
	Sink       status.Sink
	Logger     *slog.Logger

	// Optional
	Now            func() time.Time
	StartupBackoff time.Duration
}

// Agent drives the display color temperature. Only the loop goroutine started
// by Start touches the display; everything else goes through commands.
type Agent struct {
	cfg       *config.Config
	logger    *slog.Logger
	display   display.Controller
	filter    display.Filter
	calc      *solar.Calculator
	scheduler *schedule.Scheduler
	location  location.Location
	sink      status.Sink
	runID     string

	modes *ModeManager
	gate  *WriteGate

	commands chan Command
	done     chan struct{}
	now      func() time.Time
	backoff  time.Duration

	// Loop state
	outputs   []display.Output
	stale     bool
	events    solar.Events
	eventsDay string
	phase     schedule.Phase

	// Shared with readers outside the loop
	stateMu   sync.RWMutex
	last      status.Snapshot
	selected  []display.Output
	healthErr error
}

// NewAgent creates a new agent
func NewAgent(cfg *config.Config, deps Deps) *Agent {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := deps.Sink
	if sink == nil {
		sink = status.NewLogSink(logger, cfg.Verbose)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	backoff := deps.StartupBackoff
	if backoff <= 0 {
		backoff = DefaultStartupBackoff
	}

	gate := NewWriteGate(cfg.Hysteresis, cfg.Interval(), cfg.MaxBackoff())
	gate.now = now
	modes := NewModeManager()
	modes.now = now

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		display:   deps.Display,
		filter:    deps.Filter,
		calc:      deps.Calculator,
		scheduler: deps.Scheduler,
		location:  deps.Location,
		sink:      sink,
		runID:     uuid.NewString(),
		modes:     modes,
		gate:      gate,
		commands:  make(chan Command),
		done:      make(chan struct{}),
		now:       now,
		backoff:   backoff,
	}
}

// RunID identifies this agent run in published status
func (a *Agent) RunID() string {
	return a.runID
}

// Start connects to the display and runs the loop until ctx is cancelled. On
// return every output has been reset to identity. The only error is failing
// to reach the display at startup.
func (a *Agent) Start(ctx context.Context) error {
	defer close(a.done)

	a.logger.Info("Starting colorwarm agent",
		"run_id", a.runID,
		"location", a.location.String(),
		"zone", a.calc.Zone().String(),
		"solar_source", a.calc.Source(),
		"interval_sec", a.cfg.IntervalSec,
		"hysteresis", a.cfg.Hysteresis,
		"override_minutes", a.cfg.OverrideMinutes)

	if err := a.connect(ctx); err != nil {
		return err
	}

	if _, err := a.tick(ctx, "startup", false); err != nil {
		a.logger.Warn("Initial update incomplete", "error", err)
	}

	ticker := time.NewTicker(a.cfg.Interval())
	defer ticker.Stop()

	a.logger.Info("Agent started and ready", "outputs", len(a.outputs))

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return nil
		case <-ticker.C:
			if _, err := a.tick(ctx, "tick", false); err != nil {
				a.logger.Debug("Update incomplete", "error", err)
			}
		case cmd := <-a.commands:
			cmd.reply <- a.handle(ctx, cmd)
		}
	}
}

// Stop releases the display and the status sinks. Call after Start returns.
func (a *Agent) Stop() error {
	a.logger.Info("Stopping colorwarm agent")

	var errs []error
	if err := a.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close status sinks: %w", err))
	}
	if err := a.display.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close display: %w", err))
	}
	return errors.Join(errs...)
}

// Status returns the last published snapshot
func (a *Agent) Status() status.Snapshot {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.last
}

// Outputs returns the outputs under control
func (a *Agent) Outputs() []display.Output {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return append([]display.Output(nil), a.selected...)
}

// DisplayHealth returns the last display connection error, nil when healthy
func (a *Agent) DisplayHealth() error {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.healthErr
}

// connect lists outputs with bounded, exponentially spaced retries
func (a *Agent) connect(ctx context.Context) error {
	retries := a.cfg.StartupRetries
	if retries < 1 {
		retries = 1
	}
	wait := a.backoff

	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		if err = a.refresh(ctx); err == nil {
			return nil
		}

		a.logger.Warn("Display not ready",
			"attempt", attempt,
			"max_attempts", retries,
			"error", err)

		if attempt == retries {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return fmt.Errorf("failed to connect to display after %d attempts: %w", retries, err)
}

// refresh re-enumerates outputs; the write gate starts over since ramps on a
// new connection are unknown
func (a *Agent) refresh(ctx context.Context) error {
	all, err := a.display.ListOutputs(ctx)
	if err != nil {
		a.setHealth(err)
		return err
	}

	selected := display.Select(all, a.filter)
	if len(selected) == 0 {
		err := fmt.Errorf("%w: none of %d outputs match the selection", display.ErrDisplayUnavailable, len(all))
		a.setHealth(err)
		return err
	}

	for _, o := range selected {
		a.logger.Debug("Using output", "output", o.Name, "screen", o.Screen, "crtc", o.Index, "ramp_size", o.RampSize)
	}

	a.outputs = selected
	a.stale = false
	a.gate.Clear()
	metrics.Outputs.Set(float64(len(selected)))

	a.stateMu.Lock()
	a.selected = append([]display.Output(nil), selected...)
	a.healthErr = nil
	a.stateMu.Unlock()
	return nil
}

// tick evaluates the schedule (or the active override) and applies it
func (a *Agent) tick(ctx context.Context, trigger string, force bool) (status.Snapshot, error) {
	now := a.now()

	if a.stale {
		if err := a.refresh(ctx); err != nil {
			a.logger.Debug("Display still unavailable", "error", err)
		} else {
			a.logger.Info("Display connection restored", "outputs", len(a.outputs))
		}
	}

	ev := a.eventsFor(now)
	phase, target := a.scheduler.Evaluate(now, ev)
	if phase != a.phase {
		a.logger.Info("Phase changed",
			"from", string(a.phase),
			"to", string(phase),
			"kelvin", target.Kelvin)
		a.phase = phase
		metrics.SetPhase(string(phase))
	}

	if override, ok := a.modes.Override(); ok {
		target = override
	}

	results, err := a.apply(ctx, target, force)
	return a.publish(ctx, trigger, now, target, results), err
}

// eventsFor returns sunrise and sunset for now's local day, computed once per day
func (a *Agent) eventsFor(now time.Time) solar.Events {
	day := now.In(a.calc.Zone()).Format("2006-01-02")
	if day == a.eventsDay {
		return a.events
	}

	a.events = a.calc.Compute(a.location, now)
	a.eventsDay = day

	wm, we := a.scheduler.Windows(a.events)
	a.logger.Info("Computed solar events",
		"date", day,
		"sunrise", a.events.Sunrise.Format("15:04"),
		"sunset", a.events.Sunset.Format("15:04"),
		"morning_window", wm,
		"evening_window", we)
	return a.events
}

// apply writes target to every output through the write gate. Outputs fail
// independently.
func (a *Agent) apply(ctx context.Context, target gamma.Target, force bool) ([]status.OutputResult, error) {
	results := make([]status.OutputResult, 0, len(a.outputs))
	var errs []error

	for _, out := range a.outputs {
		res := status.OutputResult{ID: out.ID, Name: out.Name}

		ramp, err := gamma.Build(target, out.RampSize)
		if err != nil {
			a.logger.Warn("Skipping output", "output", out.Name, "error", err)
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("output %s: %w", out.Name, err))
			results = append(results, res)
			continue
		}

		if reason := a.gate.ShouldWrite(out.ID, ramp, force); reason != "" {
			metrics.RampWritesSkipped.WithLabelValues(out.Name, reason).Inc()
			res.Skipped = reason
			results = append(results, res)
			continue
		}

		if err := a.display.WriteRamp(ctx, out, ramp); err != nil {
			retryIn := a.gate.RecordFailure(out.ID)
			metrics.DisplayErrors.WithLabelValues(out.Name).Inc()
			a.logger.Warn("Failed to write gamma ramp",
				"output", out.Name,
				"error", err,
				"retry_in", retryIn)
			if errors.Is(err, display.ErrDisplayUnavailable) {
				a.stale = true
				a.setHealth(err)
			}
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("output %s: %w", out.Name, err))
			results = append(results, res)
			continue
		}

		a.gate.RecordWrite(out.ID, ramp)
		metrics.RampWrites.WithLabelValues(out.Name).Inc()
		res.Written = true
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

// publish records and fans out the state after an update
func (a *Agent) publish(ctx context.Context, trigger string, now time.Time, target gamma.Target, results []status.OutputResult) status.Snapshot {
	mode := a.modes.State()

	snap := status.Snapshot{
		RunID:      a.runID,
		Host:       a.cfg.Hostname,
		Time:       now,
		Trigger:    trigger,
		Phase:      string(a.phase),
		Mode:       string(mode.Mode),
		Kelvin:     target.Kelvin,
		Brightness: target.Brightness,
		Location:   a.location.String(),
		Sunrise:    a.events.Sunrise,
		Sunset:     a.events.Sunset,
		Outputs:    results,
	}
	if !mode.ExpiresAt.IsZero() {
		expires := mode.ExpiresAt
		snap.OverrideExpires = &expires
	}

	metrics.Kelvin.Set(float64(target.Kelvin))
	metrics.Brightness.Set(target.Brightness)
	metrics.SetMode(string(mode.Mode))

	a.stateMu.Lock()
	a.last = snap
	a.stateMu.Unlock()

	if err := a.sink.Publish(ctx, snap); err != nil {
		a.logger.Warn("Failed to publish status", "error", err)
	}
	return snap
}

// shutdown restores identity ramps, bounded by the display timeout
func (a *Agent) shutdown() {
	a.logger.Info("Agent stopping, restoring identity gamma")

	timeout := a.cfg.DisplayTimeout() * time.Duration(len(a.outputs)+1)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := display.ResetAll(ctx, a.display, a.outputs); err != nil {
		a.logger.Error("Failed to restore identity gamma", "error", err)
		return
	}
	a.logger.Info("Identity gamma restored", "outputs", len(a.outputs))
}

func (a *Agent) setHealth(err error) {
	a.stateMu.Lock()
	a.healthErr = err
	a.stateMu.Unlock()
}
