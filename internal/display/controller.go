package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/philtems/colorwarm/internal/gamma"
)

// ErrDisplayUnavailable is returned when the display server cannot be reached
// or does not answer in time
var ErrDisplayUnavailable = errors.New("display unavailable")

// Output is one gamma-capable CRTC and the connected outputs it drives
type Output struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Screen   int    `json:"screen"`
	Index    int    `json:"crtc_index"`
	CRTC     uint32 `json:"crtc"`
	RampSize int    `json:"ramp_size"`
}

func (o Output) String() string {
	return fmt.Sprintf("%s (screen %d, crtc %d)", o.Name, o.Screen, o.Index)
}

// Controller reads and writes gamma ramps on a display
type Controller interface {
	ListOutputs(ctx context.Context) ([]Output, error)
	ReadRamp(ctx context.Context, out Output) (gamma.Ramp, error)
	WriteRamp(ctx context.Context, out Output, r gamma.Ramp) error
	Reset(ctx context.Context, out Output) error
	Close() error
}

// Options selects and configures a controller driver
type Options struct {
	Driver  string // "randr" or "memory"
	Display string // X display name; empty uses $DISPLAY
	Timeout time.Duration
	Logger  *slog.Logger
}

// Open creates the controller for opts.Driver. The RandR driver connects
// lazily on first use.
func Open(opts Options) (Controller, error) {
	switch opts.Driver {
	case "", "randr":
		return NewRandR(opts.Display, opts.Timeout, opts.Logger), nil
	case "memory":
		return NewMemory(DefaultMemoryOutputs()...), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", opts.Driver)
	}
}
