//go:build linux

package colortemp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// StartKeyboard puts the terminal in cbreak mode (no line buffering, no echo,
// output processing untouched) and reads key controls in the background. The
// returned stop function restores the terminal and is safe to call twice.
func StartKeyboard(ctx context.Context, in *os.File, a *Agent, quit func(), logger *slog.Logger) (func(), error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, ErrNotTerminal
	}

	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return func() {}, fmt.Errorf("failed to read terminal state: %w", err)
	}

	cbreak := *saved
	cbreak.Lflag &^= unix.ICANON | unix.ECHO
	cbreak.Cc[unix.VMIN] = 1
	cbreak.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &cbreak); err != nil {
		return func() {}, fmt.Errorf("failed to set terminal mode: %w", err)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if err := unix.IoctlSetTermios(fd, unix.TCSETS, saved); err != nil {
				logger.Warn("Failed to restore terminal", "error", err)
			}
		})
	}

	logger.Info("Key controls: t toggle, r reset, a auto, +/- adjust, q or ESC quit")

	go func() {
		if err := readKeys(ctx, in, a, quit, logger); err != nil {
			logger.Warn("Keyboard input stopped", "error", err)
		}
	}()

	return stop, nil
}
