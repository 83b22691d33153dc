//go:build windows

package process

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// processSuspendResume is the PROCESS_SUSPEND_RESUME access right
const processSuspendResume = 0x0800

var (
	ntdll              = windows.NewLazySystemDLL("ntdll.dll")
	procSuspendProcess = ntdll.NewProc("NtSuspendProcess")
	procResumeProcess  = ntdll.NewProc("NtResumeProcess")
)

// ntController suspends every thread of a process through the native API
type ntController struct{}

// NewOSController returns the controller for this platform
func NewOSController() OSController {
	return ntController{}
}

func (ntController) Suspend(pid int) error {
	return callWithProcess(pid, procSuspendProcess)
}

func (ntController) Resume(pid int) error {
	return callWithProcess(pid, procResumeProcess)
}

// Kill terminates the process only; spawned children are covered by the job in attachTree
func (ntController) Kill(pid int) error {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open process: %w", err)
	}
	defer windows.CloseHandle(h)
	return windows.TerminateProcess(h, 1)
}

func callWithProcess(pid int, proc *windows.LazyProc) error {
	if err := proc.Find(); err != nil {
		return ErrSuspendUnsupported
	}
	h, err := windows.OpenProcess(processSuspendResume, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open process: %w", err)
	}
	defer windows.CloseHandle(h)

	status, _, _ := proc.Call(uintptr(h))
	if status != 0 {
		return fmt.Errorf("%s returned NTSTATUS 0x%08x", proc.Name, status)
	}
	return nil
}
