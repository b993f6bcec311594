package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcess hides the console window of the child
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow: true,
	}
}

func alive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
