package process

import (
	"errors"
	"sync"
	"testing"
)

type fakeProcess struct {
	pid     int
	killErr error
	mu      sync.Mutex
	kills   int
}

func (f *fakeProcess) Pid() int { return f.pid }

func (f *fakeProcess) Kill() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills++
	return f.killErr
}

type fakeController struct {
	suspendErr error
	resumeErr  error
	suspended  []int
	resumed    []int
	killed     []int
}

func (c *fakeController) Suspend(pid int) error {
	if c.suspendErr != nil {
		return c.suspendErr
	}
	c.suspended = append(c.suspended, pid)
	return nil
}

func (c *fakeController) Resume(pid int) error {
	if c.resumeErr != nil {
		return c.resumeErr
	}
	c.resumed = append(c.resumed, pid)
	return nil
}

func (c *fakeController) Kill(pid int) error {
	c.killed = append(c.killed, pid)
	return nil
}

func TestSupervisor_RegisterLookup(t *testing.T) {
	s := NewSupervisor(&fakeController{})
	p := &fakeProcess{pid: 42}
	s.Register("task-1", p)

	got, pid, ok := s.Lookup("task-1")
	if !ok || got != p || pid != 42 {
		t.Errorf("Lookup() = %v, %d, %v, expected the registered process", got, pid, ok)
	}
	if !s.Has("task-1") {
		t.Error("Has() = false, expected true")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", s.Len())
	}
	if _, _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) reported a process")
	}
}

func TestSupervisor_KillAlwaysDeregisters(t *testing.T) {
	s := NewSupervisor(&fakeController{})
	p := &fakeProcess{pid: 7, killErr: errors.New("access denied")}
	s.Register("task-1", p)

	if err := s.Kill("task-1"); err == nil {
		t.Error("Kill() error = nil, expected the kill failure")
	}
	if s.Has("task-1") {
		t.Error("entry survived a failed kill")
	}
	if p.kills != 1 {
		t.Errorf("kills = %d, expected 1", p.kills)
	}
	if err := s.Kill("task-1"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Kill() error = %v, expected ErrNotRegistered", err)
	}
}

func TestSupervisor_SuspendResume(t *testing.T) {
	ctl := &fakeController{}
	s := NewSupervisor(ctl)
	s.Register("task-1", &fakeProcess{pid: 100})

	if err := s.Suspend("task-1"); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if err := s.Resume("task-1"); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if len(ctl.suspended) != 1 || ctl.suspended[0] != 100 {
		t.Errorf("suspended = %v, expected [100]", ctl.suspended)
	}
	if len(ctl.resumed) != 1 || ctl.resumed[0] != 100 {
		t.Errorf("resumed = %v, expected [100]", ctl.resumed)
	}

	if err := s.Suspend("missing"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Suspend(missing) error = %v, expected ErrNotRegistered", err)
	}
}

func TestSupervisor_SuspendUnsupported(t *testing.T) {
	ctl := &fakeController{suspendErr: ErrSuspendUnsupported}
	s := NewSupervisor(ctl)
	s.Register("task-1", &fakeProcess{pid: 100})

	if err := s.Suspend("task-1"); !errors.Is(err, ErrSuspendUnsupported) {
		t.Errorf("Suspend() error = %v, expected ErrSuspendUnsupported", err)
	}

	s.Register("task-2", &fakeProcess{pid: 0})
	if err := s.Resume("task-2"); !errors.Is(err, ErrSuspendUnsupported) {
		t.Errorf("Resume() without pid error = %v, expected ErrSuspendUnsupported", err)
	}
}

func TestSupervisor_DeregisterIf(t *testing.T) {
	s := NewSupervisor(&fakeController{})
	old := &fakeProcess{pid: 1}
	current := &fakeProcess{pid: 2}

	s.Register("task-1", old)
	s.Register("task-1", current)

	if s.DeregisterIf("task-1", old) {
		t.Error("DeregisterIf() removed the entry for a stale handle")
	}
	if !s.Has("task-1") {
		t.Fatal("current handle was dropped")
	}
	if !s.DeregisterIf("task-1", current) {
		t.Error("DeregisterIf() = false for the current handle")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, expected 0", s.Len())
	}
}
