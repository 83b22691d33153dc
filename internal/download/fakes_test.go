package download

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/media"
	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/notify"
	"github.com/ytget/mediadl/internal/process"
)

const testMetadata = `{"id":"abc123","title":"My Video","ext":"mp4","uploader":"Someone","duration":90}`

type fakeProcess struct {
	mu    sync.Mutex
	pid   int
	kills int
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kills++
	return nil
}

func (p *fakeProcess) killCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

// fakeSpawner records every spawn; tests drive the recorded handlers
type fakeSpawner struct {
	mu       sync.Mutex
	pid      int
	err      error
	procs    []*fakeProcess
	args     [][]string
	handlers []process.Handlers
	spawned  chan int
}

func newFakeSpawner(pid int) *fakeSpawner {
	return &fakeSpawner{pid: pid, spawned: make(chan int, 16)}
}

func (f *fakeSpawner) Spawn(name string, args []string, h process.Handlers) (process.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	proc := &fakeProcess{pid: f.pid}
	f.procs = append(f.procs, proc)
	f.args = append(f.args, args)
	f.handlers = append(f.handlers, h)
	f.spawned <- len(f.handlers) - 1
	return proc, nil
}

// wait blocks until the next spawn and returns its handlers and process
func (f *fakeSpawner) wait(t *testing.T) (process.Handlers, *fakeProcess) {
	t.Helper()
	select {
	case i := <-f.spawned:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.handlers[i], f.procs[i]
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for spawn")
		return process.Handlers{}, nil
	}
}

func (f *fakeSpawner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// fakeRunner answers metadata dumps
type fakeRunner struct {
	mu     sync.Mutex
	stdout string
	stderr string
	err    error
	block  bool
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (process.Result, error) {
	f.mu.Lock()
	f.calls++
	stdout, stderr, err, block := f.stdout, f.stderr, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return process.Result{}, ctx.Err()
	}
	return process.Result{Stdout: []byte(stdout), Stderr: []byte(stderr)}, err
}

type fakeController struct {
	mu         sync.Mutex
	suspendErr error
	resumeErr  error
	suspended  int
	resumed    int
}

func (c *fakeController) Suspend(pid int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspendErr != nil {
		return c.suspendErr
	}
	c.suspended++
	return nil
}

func (c *fakeController) Resume(pid int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resumeErr != nil {
		return c.resumeErr
	}
	c.resumed++
	return nil
}

func (c *fakeController) Kill(pid int) error { return nil }

func (c *fakeController) fail(suspendErr, resumeErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspendErr = suspendErr
	c.resumeErr = resumeErr
}

type fakePreflight struct {
	err error
}

func (p fakePreflight) CheckFFmpeg(ctx context.Context) error { return p.err }

type fakeStore struct {
	mu    sync.Mutex
	tasks map[string]*model.DownloadTask
	order []string
}

func newFakeStore(tasks ...*model.DownloadTask) *fakeStore {
	st := &fakeStore{tasks: make(map[string]*model.DownloadTask)}
	for _, t := range tasks {
		_ = st.Save(t)
	}
	return st
}

func (f *fakeStore) Save(task *model.DownloadTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		f.order = append(f.order, task.ID)
	}
	f.tasks[task.ID] = task.Clone()
	return nil
}

func (f *fakeStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) LoadAll() ([]*model.DownloadTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := make([]*model.DownloadTask, 0, len(f.order))
	for _, id := range f.order {
		tasks = append(tasks, f.tasks[id].Clone())
	}
	return tasks, nil
}

func (f *fakeStore) get(id string) (*model.DownloadTask, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

type fakePlaylists struct {
	playlist *model.Playlist
	err      error
}

func (f fakePlaylists) ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error) {
	return f.playlist, f.err
}

type fakeSplitter struct {
	mu       sync.Mutex
	err      error
	chapters []model.Chapter
}

func (f *fakeSplitter) Split(ctx context.Context, inputPath string, chapters []model.Chapter, onProgress func(float64)) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chapters = chapters
	if f.err != nil {
		return nil, f.err
	}
	return make([]string, len(chapters)), nil
}

// harness bundles a service with its fakes
type harness struct {
	svc        *Service
	spawner    *fakeSpawner
	runner     *fakeRunner
	controller *fakeController
	supervisor *process.Supervisor
	sink       *notify.Recorder
	store      *fakeStore
	splitter   *fakeSplitter
}

type harnessOption func(*Dependencies, *config.AppSettings)

func withParallel(n int) harnessOption {
	return func(_ *Dependencies, s *config.AppSettings) { s.ConcurrentDownloads = n }
}

func withPreflightError(err error) harnessOption {
	return func(d *Dependencies, _ *config.AppSettings) { d.Preflight = fakePreflight{err: err} }
}

func withStore(st *fakeStore) harnessOption {
	return func(d *Dependencies, _ *config.AppSettings) { d.Store = st }
}

func withPlaylist(p *model.Playlist) harnessOption {
	return func(d *Dependencies, _ *config.AppSettings) { d.Playlists = fakePlaylists{playlist: p} }
}

func newHarness(t *testing.T, pid int, opts ...harnessOption) *harness {
	t.Helper()

	settings := config.DefaultAppSettings()
	settings.DownloadPath = t.TempDir()
	settings.ConcurrentDownloads = 2

	h := &harness{
		spawner:    newFakeSpawner(pid),
		runner:     &fakeRunner{stdout: testMetadata},
		controller: &fakeController{},
		sink:       &notify.Recorder{},
		store:      newFakeStore(),
		splitter:   &fakeSplitter{},
	}
	h.supervisor = process.NewSupervisor(h.controller)

	deps := Dependencies{
		Spawner:    h.spawner,
		Runner:     h.runner,
		Supervisor: h.supervisor,
		Preflight:  fakePreflight{},
		Sink:       h.sink,
		Store:      h.store,
		Splitter:   h.splitter,
		Hardware:   model.HardwareCPU,
		Probe: func(string) (media.Info, error) {
			return media.Info{Size: 1234, Duration: 90 * time.Second, Inspected: true}, nil
		},
	}
	for _, opt := range opts {
		opt(&deps, &settings)
	}
	deps.Settings = config.Static{Values: settings}
	if st, ok := deps.Store.(*fakeStore); ok {
		h.store = st
	}

	h.svc = NewService(deps)
	t.Cleanup(h.svc.Close)
	return h
}

// waitStatus blocks until the task reaches status or the test times out
func waitStatus(t *testing.T, s *Service, id string, status model.TaskStatus) *model.DownloadTask {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := s.GetTask(id); ok && task.Status == status {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	task, _ := s.GetTask(id)
	t.Fatalf("task %s status = %s, expected %s", id, task.Status, status)
	return nil
}

func hasNotification(events []notify.Event, level notify.Level, title string) bool {
	for _, e := range events {
		if e.Level == level && e.Title == title {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")
