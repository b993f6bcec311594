package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"

	"github.com/philtems/colorwarm/internal/gamma"
)

// DefaultTimeout bounds every display round trip
const DefaultTimeout = 2 * time.Second

// RandR drives CRTC gamma through the X11 RandR extension (1.2 or newer)
type RandR struct {
	display string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	conn    *xgb.Conn
	dialing bool // an abandoned connection attempt has not returned yet
}

// NewRandR creates a RandR controller for display. Nothing is opened until the
// first call.
func NewRandR(display string, timeout time.Duration, logger *slog.Logger) *RandR {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RandR{
		display: display,
		timeout: timeout,
		logger:  logger,
	}
}

// ListOutputs enumerates connected outputs on every screen. Outputs sharing a
// CRTC are reported once with their names joined.
func (d *RandR) ListOutputs(ctx context.Context) ([]Output, error) {
	outputs, err := roundTrip(ctx, d, "list outputs", func(c *xgb.Conn) ([]Output, error) {
		var outputs []Output
		for screen, root := range xproto.Setup(c).Roots {
			res, err := randr.GetScreenResourcesCurrent(c, root.Root).Reply()
			if err != nil {
				return nil, fmt.Errorf("failed to get screen %d resources: %w", screen, err)
			}

			index := make(map[randr.Crtc]int, len(res.Crtcs))
			for i, crtc := range res.Crtcs {
				index[crtc] = i
			}

			names := make(map[randr.Crtc][]string)
			for _, out := range res.Outputs {
				info, err := randr.GetOutputInfo(c, out, res.ConfigTimestamp).Reply()
				if err != nil {
					return nil, fmt.Errorf("failed to get output info: %w", err)
				}
				if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
					continue
				}
				names[info.Crtc] = append(names[info.Crtc], string(info.Name))
			}

			for crtc, n := range names {
				size, err := randr.GetCrtcGammaSize(c, crtc).Reply()
				if err != nil {
					return nil, fmt.Errorf("failed to get gamma size of crtc %d: %w", crtc, err)
				}
				outputs = append(outputs, Output{
					ID:       fmt.Sprintf("%d:%d", screen, index[crtc]),
					Name:     strings.Join(n, "+"),
					Screen:   screen,
					Index:    index[crtc],
					CRTC:     uint32(crtc),
					RampSize: int(size.Size),
				})
			}
		}
		return outputs, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(outputs, func(i, j int) bool {
		if outputs[i].Screen != outputs[j].Screen {
			return outputs[i].Screen < outputs[j].Screen
		}
		return outputs[i].Index < outputs[j].Index
	})
	return outputs, nil
}

// ReadRamp returns the CRTC's current gamma ramp
func (d *RandR) ReadRamp(ctx context.Context, out Output) (gamma.Ramp, error) {
	return roundTrip(ctx, d, "read ramp", func(c *xgb.Conn) (gamma.Ramp, error) {
		reply, err := randr.GetCrtcGamma(c, randr.Crtc(out.CRTC)).Reply()
		if err != nil {
			return gamma.Ramp{}, fmt.Errorf("failed to get gamma of %s: %w", out.Name, err)
		}
		return gamma.Ramp{Red: reply.Red, Green: reply.Green, Blue: reply.Blue}, nil
	})
}

// WriteRamp replaces all three channels of the CRTC's ramp in one request
func (d *RandR) WriteRamp(ctx context.Context, out Output, r gamma.Ramp) error {
	if r.Size() != out.RampSize || !r.Valid() {
		return fmt.Errorf("%w: ramp of %d entries for %s (expects %d)", gamma.ErrUnsupportedRampSize, r.Size(), out.Name, out.RampSize)
	}
	_, err := roundTrip(ctx, d, "write ramp", func(c *xgb.Conn) (struct{}, error) {
		err := randr.SetCrtcGammaChecked(c, randr.Crtc(out.CRTC), uint16(r.Size()), r.Red, r.Green, r.Blue).Check()
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to set gamma of %s: %w", out.Name, err)
		}
		return struct{}{}, nil
	})
	return err
}

// Reset writes the identity ramp
func (d *RandR) Reset(ctx context.Context, out Output) error {
	id, err := gamma.Identity(out.RampSize)
	if err != nil {
		return err
	}
	return d.WriteRamp(ctx, out, id)
}

// Close drops the connection, if any
func (d *RandR) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropLocked()
	return nil
}

type dialResult struct {
	conn *xgb.Conn
	err  error
}

type roundTripResult[T any] struct {
	value T
	err   error
}

// roundTrip runs fn against a live connection. Connecting, extension
// negotiation and fn share one deadline of d.timeout; fn runs on its own
// goroutine so a server that stops answering cannot hold the lock. A timeout
// or a connection failure drops the connection and the next call reconnects.
func roundTrip[T any](ctx context.Context, d *RandR, op string, fn func(c *xgb.Conn) (T, error)) (T, error) {
	var zero T

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	c, err := d.connectLocked(ctx, op)
	if err != nil {
		return zero, err
	}

	done := make(chan roundTripResult[T], 1)
	go func() {
		v, err := fn(c)
		done <- roundTripResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		var xerr xgb.Error
		if res.err != nil && !errors.As(res.err, &xerr) {
			// Anything but an X error reply means the connection is gone
			d.dropLocked()
			return zero, fmt.Errorf("%w: %v", ErrDisplayUnavailable, res.err)
		}
		return res.value, res.err
	case <-ctx.Done():
		d.logger.Warn("Display round trip timed out", "op", op, "timeout", d.timeout)
		d.dropLocked()
		return zero, fmt.Errorf("%w: %s: %v", ErrDisplayUnavailable, op, ctx.Err())
	}
}

// connectLocked returns the current connection or dials a new one within
// ctx. An attempt that outlives ctx is abandoned: it closes its connection
// when it finally returns, and until then no new attempt is started.
func (d *RandR) connectLocked(ctx context.Context, op string) (*xgb.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}
	if d.dialing {
		return nil, fmt.Errorf("%w: %s: previous connection attempt to %q still pending", ErrDisplayUnavailable, op, d.display)
	}

	dialed := make(chan dialResult)
	abandoned := make(chan struct{})
	go func() {
		c, err := d.dial()
		select {
		case dialed <- dialResult{conn: c, err: err}:
		case <-abandoned:
			if c != nil {
				c.Close()
			}
			d.mu.Lock()
			d.dialing = false
			d.mu.Unlock()
		}
	}()

	select {
	case res := <-dialed:
		if res.err != nil {
			return nil, res.err
		}
		d.conn = res.conn
		return res.conn, nil
	case <-ctx.Done():
		d.dialing = true
		close(abandoned)
		d.logger.Warn("Display connection timed out", "display", d.display, "op", op, "timeout", d.timeout)
		return nil, fmt.Errorf("%w: %s: connecting to %q: %v", ErrDisplayUnavailable, op, d.display, ctx.Err())
	}
}

// dial opens the connection and checks for RandR 1.2. It only reads fields
// that never change after NewRandR.
func (d *RandR) dial() (*xgb.Conn, error) {
	c, err := xgb.NewConnDisplay(d.display)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to X display %q: %v", ErrDisplayUnavailable, d.display, err)
	}

	if err := randr.Init(c); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: RandR extension missing: %v", ErrDisplayUnavailable, err)
	}

	version, err := randr.QueryVersion(c, 1, 2).Reply()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: failed to query RandR version: %v", ErrDisplayUnavailable, err)
	}
	if version.MajorVersion < 1 || (version.MajorVersion == 1 && version.MinorVersion < 2) {
		c.Close()
		return nil, fmt.Errorf("%w: RandR %d.%d is older than 1.2", ErrDisplayUnavailable, version.MajorVersion, version.MinorVersion)
	}

	d.logger.Debug("Connected to display",
		"display", d.display,
		"randr", fmt.Sprintf("%d.%d", version.MajorVersion, version.MinorVersion),
		"screens", len(xproto.Setup(c).Roots))

	return c, nil
}

func (d *RandR) dropLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}
