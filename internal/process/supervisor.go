package process

import (
	"fmt"
	"log"
	"sync"
)

type entry struct {
	proc Process
	pid  int
}

// Supervisor owns the mapping from task id to live process. It is the only
// place process identity is stored.
type Supervisor struct {
	mu      sync.Mutex
	entries map[string]entry
	ctl     OSController
}

// NewSupervisor creates a supervisor that suspends and resumes through ctl
func NewSupervisor(ctl OSController) *Supervisor {
	if ctl == nil {
		ctl = NewOSController()
	}
	return &Supervisor{
		entries: make(map[string]entry),
		ctl:     ctl,
	}
}

// Register records the live process of a task, replacing any previous handle
func (s *Supervisor) Register(taskID string, p Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[taskID]; ok && old.proc != p {
		log.Printf("[PROCESS] task %s: replacing stale handle pid=%d", taskID, old.pid)
	}
	s.entries[taskID] = entry{proc: p, pid: p.Pid()}
}

// Lookup returns the process and OS pid registered for a task
func (s *Supervisor) Lookup(taskID string) (Process, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[taskID]
	return e.proc, e.pid, ok
}

// Has reports whether a live process is registered for the task
func (s *Supervisor) Has(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[taskID]
	return ok
}

// Kill terminates the task's process and always removes the entry, even when the kill fails
func (s *Supervisor) Kill(taskID string) error {
	s.mu.Lock()
	e, ok := s.entries[taskID]
	delete(s.entries, taskID)
	s.mu.Unlock()

	if !ok {
		return ErrNotRegistered
	}
	if err := e.proc.Kill(); err != nil {
		return fmt.Errorf("kill pid %d: %w", e.pid, err)
	}
	return nil
}

// Suspend pauses the task's process in place
func (s *Supervisor) Suspend(taskID string) error {
	_, pid, ok := s.Lookup(taskID)
	if !ok {
		return ErrNotRegistered
	}
	if pid <= 0 {
		return ErrSuspendUnsupported
	}
	if err := s.ctl.Suspend(pid); err != nil {
		return fmt.Errorf("suspend pid %d: %w", pid, err)
	}
	return nil
}

// Resume continues a suspended process
func (s *Supervisor) Resume(taskID string) error {
	_, pid, ok := s.Lookup(taskID)
	if !ok {
		return ErrNotRegistered
	}
	if pid <= 0 {
		return ErrSuspendUnsupported
	}
	if err := s.ctl.Resume(pid); err != nil {
		return fmt.Errorf("resume pid %d: %w", pid, err)
	}
	return nil
}

// Deregister forgets the task's process without touching it
func (s *Supervisor) Deregister(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, taskID)
}

// DeregisterIf removes the entry only if it still holds p. Exit events of a
// replaced process must not drop the handle of its successor.
func (s *Supervisor) DeregisterIf(taskID string, p Process) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[taskID]
	if !ok || e.proc != p {
		return false
	}
	delete(s.entries, taskID)
	return true
}

// Len returns the number of registered processes
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
