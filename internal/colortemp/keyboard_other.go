//go:build !linux

package colortemp

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// StartKeyboard is only implemented on Linux
func StartKeyboard(ctx context.Context, in *os.File, a *Agent, quit func(), logger *slog.Logger) (func(), error) {
	return func() {}, errors.New("key controls are not supported on this platform")
}
