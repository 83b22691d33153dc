package process

import (
	"context"
	"errors"
)

var (
	// ErrSuspendUnsupported is returned when the platform cannot pause a process in place
	ErrSuspendUnsupported = errors.New("process suspend/resume is not supported on this platform")
	// ErrNotRegistered is returned when no live process is registered for a task
	ErrNotRegistered = errors.New("no process registered for task")
)

// Handlers receive the events of a spawned process. Line callbacks for one
// stream are called sequentially in output order. OnExit or OnError is called
// exactly once, after both streams are drained.
type Handlers struct {
	OnStdout func(line string)
	OnStderr func(line string)
	OnExit   func(code int)
	OnError  func(err error)
}

// Process is a handle to a started child process
type Process interface {
	Pid() int
	Kill() error
}

// Spawner starts long-running processes with streamed output
type Spawner interface {
	// Spawn returns an error only when the process could not be started
	Spawn(name string, args []string, h Handlers) (Process, error)
}

// Result is the captured output of a process run to completion
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs a command to completion
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// OSController pauses, resumes and kills processes by OS process id
type OSController interface {
	Suspend(pid int) error
	Resume(pid int) error
	Kill(pid int) error
}
