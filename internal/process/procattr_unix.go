//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// setProcAttr puts the child in a new process group led by itself
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
