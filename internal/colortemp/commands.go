package colortemp

import (
	"context"
	"errors"
	"fmt"

	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/gamma"
	"github.com/philtems/colorwarm/internal/status"
)

// ErrOverrideOutOfRange is returned for manual targets outside the accepted
// range. Nothing is applied.
var ErrOverrideOutOfRange = errors.New("override out of range")

// ErrAgentStopped is returned when a command is submitted after the agent loop
// has exited
var ErrAgentStopped = errors.New("agent stopped")

// Accepted range of manual temperatures
const (
	MinOverrideKelvin = 1000
	MaxOverrideKelvin = 10000
)

// CommandKind names a command
type CommandKind string

const (
	CmdSet    CommandKind = "set"
	CmdToggle CommandKind = "toggle"
	CmdReset  CommandKind = "reset"
	CmdAuto   CommandKind = "auto"
	CmdQuery  CommandKind = "query"
)

// Command asks the agent loop to do something with the display. Commands are
// executed one at a time on the loop goroutine.
type Command struct {
	Kind       CommandKind
	Kelvin     int
	Brightness float64
	Relative   bool

	reply chan Result
}

// Result is the agent's answer to a command
type Result struct {
	Mode     ModeState             `json:"mode"`
	Target   gamma.Target          `json:"target"`
	Readings []display.Reading     `json:"readings,omitempty"`
	Outputs  []status.OutputResult `json:"outputs,omitempty"`
	Err      error                 `json:"-"`
}

// ValidateOverride checks a manual target against the accepted range
func ValidateOverride(t gamma.Target) error {
	if t.Kelvin < MinOverrideKelvin || t.Kelvin > MaxOverrideKelvin {
		return fmt.Errorf("%w: temperature %dK not in [%d, %d]", ErrOverrideOutOfRange, t.Kelvin, MinOverrideKelvin, MaxOverrideKelvin)
	}
	if !(t.Brightness > 0 && t.Brightness <= 1) {
		return fmt.Errorf("%w: brightness %.2f not in (0, 1]", ErrOverrideOutOfRange, t.Brightness)
	}
	return nil
}

// ResolveSet turns set arguments into a target. Relative values shift current;
// an absolute temperature of 0 means neutral.
func ResolveSet(current gamma.Target, kelvin int, brightness float64, relative bool) (gamma.Target, error) {
	var t gamma.Target
	if relative {
		t = gamma.Target{Kelvin: current.Kelvin + kelvin, Brightness: current.Brightness + brightness}
	} else {
		t = gamma.Target{Kelvin: kelvin, Brightness: brightness}
		if t.Kelvin == 0 {
			t.Kelvin = gamma.NeutralKelvin
		}
	}
	if err := ValidateOverride(t); err != nil {
		return gamma.Target{}, err
	}
	return t, nil
}

// Submitter accepts commands for the agent loop. *Agent implements it.
type Submitter interface {
	Submit(ctx context.Context, cmd Command) (Result, error)
}

// Submit hands cmd to the agent loop and waits for its result. The returned
// error is the result's error, if any.
func (a *Agent) Submit(ctx context.Context, cmd Command) (Result, error) {
	cmd.reply = make(chan Result, 1)

	select {
	case a.commands <- cmd:
	case <-a.done:
		return Result{}, ErrAgentStopped
	case <-ctx.Done():
		return Result{}, fmt.Errorf("agent not responding: %w", ctx.Err())
	}

	select {
	case res := <-cmd.reply:
		return res, res.Err
	case <-ctx.Done():
		return Result{}, fmt.Errorf("agent not responding: %w", ctx.Err())
	}
}

// Set applies a manual target. Absolute targets are validated before they
// reach the loop.
func (a *Agent) Set(ctx context.Context, kelvin int, brightness float64, relative bool) (Result, error) {
	if !relative {
		if _, err := ResolveSet(gamma.Target{}, kelvin, brightness, false); err != nil {
			return Result{}, err
		}
	}
	return a.Submit(ctx, Command{Kind: CmdSet, Kelvin: kelvin, Brightness: brightness, Relative: relative})
}

// Toggle switches between neutral and night temperature
func (a *Agent) Toggle(ctx context.Context) (Result, error) {
	return a.Submit(ctx, Command{Kind: CmdToggle})
}

// Reset applies the identity ramp and holds it as a manual override
func (a *Agent) Reset(ctx context.Context) (Result, error) {
	return a.Submit(ctx, Command{Kind: CmdReset})
}

// Auto re-enables the solar schedule
func (a *Agent) Auto(ctx context.Context) (Result, error) {
	return a.Submit(ctx, Command{Kind: CmdAuto})
}

// Query reads back every output
func (a *Agent) Query(ctx context.Context) (Result, error) {
	return a.Submit(ctx, Command{Kind: CmdQuery})
}

// handle runs cmd on the loop goroutine
func (a *Agent) handle(ctx context.Context, cmd Command) Result {
	var res Result

	switch cmd.Kind {
	case CmdQuery:
		res.Readings = display.Query(ctx, a.display, a.outputs)
		res.Target = display.Current(res.Readings)

	case CmdSet, CmdToggle, CmdReset:
		target, err := a.commandTarget(ctx, cmd)
		if err != nil {
			res.Err = err
			break
		}
		a.modes.SetManual(target, a.cfg.OverrideDuration())
		res.Target = target
		res.Outputs, res.Err = a.apply(ctx, target, true)
		a.publish(ctx, string(cmd.Kind), a.now(), target, res.Outputs)

	case CmdAuto:
		if a.modes.Auto() {
			a.logger.Info("Automatic mode re-enabled")
		}
		var snap status.Snapshot
		snap, res.Err = a.tick(ctx, string(CmdAuto), true)
		res.Target = gamma.Target{Kelvin: snap.Kelvin, Brightness: snap.Brightness}
		res.Outputs = snap.Outputs

	default:
		res.Err = fmt.Errorf("unknown command %q", cmd.Kind)
	}

	res.Mode = a.modes.State()
	return res
}

func (a *Agent) commandTarget(ctx context.Context, cmd Command) (gamma.Target, error) {
	switch cmd.Kind {
	case CmdToggle:
		return display.ToggleTarget(display.Current(display.Query(ctx, a.display, a.outputs))), nil
	case CmdReset:
		return gamma.Neutral(), nil
	default:
		current := gamma.Neutral()
		if cmd.Relative {
			current = display.Current(display.Query(ctx, a.display, a.outputs))
		}
		return ResolveSet(current, cmd.Kelvin, cmd.Brightness, cmd.Relative)
	}
}
