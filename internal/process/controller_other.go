//go:build !unix && !windows

package process

import (
	"os"
	"os/exec"
)

type killOnlyController struct{}

// NewOSController returns a controller that can only kill; pause degrades to kill and restart
func NewOSController() OSController {
	return killOnlyController{}
}

func (killOnlyController) Suspend(int) error { return ErrSuspendUnsupported }

func (killOnlyController) Resume(int) error { return ErrSuspendUnsupported }

func (killOnlyController) Kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func setProcAttr(*exec.Cmd) {}
