package colortemp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// ErrNotTerminal is returned when key controls are requested without a terminal
var ErrNotTerminal = errors.New("stdin is not a terminal")

// KeyStep is the temperature change of the +/- keys
const KeyStep = 250

const (
	keyEscape  = 0x1b
	keyTimeout = 5 * time.Second
)

// keyCommand maps a key to a command. quit is set for ESC and q.
func keyCommand(b byte) (cmd Command, quit, ok bool) {
	switch b {
	case keyEscape, 'q', 'Q':
		return Command{}, true, false
	case 't', 'T':
		return Command{Kind: CmdToggle}, false, true
	case 'r', 'R':
		return Command{Kind: CmdReset}, false, true
	case 'a', 'A':
		return Command{Kind: CmdAuto}, false, true
	case '+', '=':
		return Command{Kind: CmdSet, Kelvin: KeyStep, Relative: true}, false, true
	case '-', '_':
		return Command{Kind: CmdSet, Kelvin: -KeyStep, Relative: true}, false, true
	}
	return Command{}, false, false
}

// readKeys turns key presses from r into commands until EOF, a quit key or
// cancellation
func readKeys(ctx context.Context, r io.Reader, agent Submitter, quit func(), logger *slog.Logger) error {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}

		cmd, q, ok := keyCommand(buf[0])
		if q {
			logger.Info("Quit requested from keyboard")
			quit()
			return nil
		}
		if !ok {
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, keyTimeout)
		res, err := agent.Submit(cctx, cmd)
		cancel()
		if err != nil {
			logger.Warn("Key command failed", "key", string(buf[0]), "error", err)
			continue
		}
		logger.Info("Key command applied",
			"key", string(buf[0]),
			"kelvin", res.Target.Kelvin,
			"brightness", res.Target.Brightness,
			"mode", string(res.Mode.Mode))
	}
}
