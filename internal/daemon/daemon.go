// Package daemon detaches colorwarm from its terminal. The process re-executes
// itself in a new session with output redirected to a log file; the child
// records its PID.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// childEnv marks the re-executed process
const childEnv = "COLORWARM_DAEMONIZED"

// ErrAlreadyRunning is returned when the PID file names a live process
var ErrAlreadyRunning = errors.New("colorwarm is already running")

// IsChild reports whether this process is the detached copy
func IsChild() bool {
	return os.Getenv(childEnv) == "1"
}

// Detach starts this executable again with args in its own session and
// returns the child's PID. Stdout and stderr of the child go to logFile.
func Detach(args []string, pidFile, logFile string) (int, error) {
	if pid, ok := Running(pidFile); ok {
		return 0, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate executable: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}
	logOut, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}
	defer logOut.Close()

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), childEnv+"=1")
	cmd.Stdout = logOut
	cmd.Stderr = logOut
	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start background process: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release background process: %w", err)
	}
	return pid, nil
}

// WritePID records the current process in path. The returned function
// removes the file if it still names this process.
func WritePID(path string) (func(), error) {
	if pid, ok := Running(path); ok && pid != os.Getpid() {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}
	self := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(self)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return func() {
		if pid, err := ReadPID(path); err == nil && pid == self {
			os.Remove(path)
		}
	}, nil
}

// ReadPID returns the PID stored in path
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s", path)
	}
	return pid, nil
}

// Running returns the PID in path and whether that process is alive
func Running(path string) (int, bool) {
	pid, err := ReadPID(path)
	if err != nil {
		return 0, false
	}
	return pid, alive(pid)
}
