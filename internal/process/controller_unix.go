//go:build unix

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// signalController signals the process group first so children such as
// ffmpeg stop and continue together with yt-dlp
type signalController struct{}

// NewOSController returns the controller for this platform
func NewOSController() OSController {
	return signalController{}
}

func (signalController) Suspend(pid int) error {
	return signalGroup(pid, unix.SIGSTOP)
}

func (signalController) Resume(pid int) error {
	return signalGroup(pid, unix.SIGCONT)
}

func (signalController) Kill(pid int) error {
	return signalGroup(pid, unix.SIGKILL)
}

func signalGroup(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return unix.EINVAL
	}
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) || errors.Is(err, unix.EPERM) {
		// not a group leader
		return unix.Kill(pid, sig)
	}
	return err
}
