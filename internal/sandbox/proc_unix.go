//go:build unix

package sandbox

import (
	"os/exec"
	"syscall"
)

// isolate puts the child in its own process group so a timeout kills
// compilers and anything the program forked.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
