package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ytget/mediadl/internal/compress"
	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/media"
	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/notify"
	"github.com/ytget/mediadl/internal/platform"
	"github.com/ytget/mediadl/internal/process"
	"github.com/ytget/mediadl/internal/ytdlp"
)

// Status details shown next to the task status
const (
	DetailQueued        = "Queued"
	DetailFetchingInfo  = "Fetching metadata..."
	DetailDownloading   = "Downloading..."
	DetailPaused        = "Paused"
	DetailPausedRestart = "Paused (restart required)"
	DetailStopped       = "Stopped"
	DetailSplitting     = "Splitting chapters..."
	DetailDone          = "Done"
	DetailInterrupted   = "Interrupted by restart"
)

// Engine settings
const (
	TaskIDPrefix     = "dl-"
	ProgressInterval = 250 * time.Millisecond
	MetadataTimeout  = 2 * time.Minute
	OutputTailLines  = 20
)

// run is one attempt of a task, from admission until its process exits or is killed.
// Process events carry the run they belong to, so events of a replaced attempt are ignored.
type run struct {
	ctx      context.Context
	cancel   context.CancelFunc
	settings config.AppSettings

	proc     process.Process
	exited   bool
	chapters []model.Chapter
	stage    ytdlp.PostProcessStage
	lastErr  string
	tail     []string
}

func (r *run) remember(line string) {
	r.tail = append(r.tail, line)
	if len(r.tail) > OutputTailLines {
		r.tail = r.tail[1:]
	}
}

// Dependencies are the collaborators of the service. Nil fields get working defaults.
type Dependencies struct {
	Settings   SettingsSource
	Spawner    process.Spawner
	Runner     process.Runner
	Supervisor *process.Supervisor
	Preflight  Preflight
	Sink       notify.Sink
	Store      TaskStore
	Splitter   ChapterSplitter
	Playlists  PlaylistParser
	Probe      func(path string) (media.Info, error)

	// Hardware skips encoder detection when set
	Hardware model.HardwareClass
}

// Service handles download operations
type Service struct {
	mu       sync.Mutex
	tasks    map[string]*model.DownloadTask
	order    []string
	runs     map[string]*run
	limiters map[string]*rate.Limiter
	onUpdate func(*model.DownloadTask) // callback for UI updates
	onRemove func(id string)

	settings   SettingsSource
	spawner    process.Spawner
	runner     process.Runner
	supervisor *process.Supervisor
	preflight  Preflight
	sink       notify.Sink
	store      TaskStore
	splitter   ChapterSplitter
	playlists  PlaylistParser
	probe      func(path string) (media.Info, error)

	hwOnce   sync.Once
	hardware model.HardwareClass

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a new download service
func NewService(deps Dependencies) *Service {
	if deps.Settings == nil {
		deps.Settings = config.Static{Values: config.DefaultAppSettings()}
	}
	if deps.Spawner == nil {
		deps.Spawner = process.NewExecSpawner()
	}
	if deps.Runner == nil {
		deps.Runner = process.NewExecRunner()
	}
	if deps.Supervisor == nil {
		deps.Supervisor = process.NewSupervisor(nil)
	}
	if deps.Sink == nil {
		deps.Sink = notify.LogSink{}
	}
	if deps.Probe == nil {
		deps.Probe = media.Probe
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		tasks:      make(map[string]*model.DownloadTask),
		runs:       make(map[string]*run),
		limiters:   make(map[string]*rate.Limiter),
		settings:   deps.Settings,
		spawner:    deps.Spawner,
		runner:     deps.Runner,
		supervisor: deps.Supervisor,
		preflight:  deps.Preflight,
		sink:       deps.Sink,
		store:      deps.Store,
		splitter:   deps.Splitter,
		playlists:  deps.Playlists,
		probe:      deps.Probe,
		hardware:   deps.Hardware,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetUpdateCallback sets the callback function for task updates. It receives copies.
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = callback
}

// SetRemoveCallback sets the callback called after a task leaves the registry
func (s *Service) SetRemoveCallback(callback func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemove = callback
}

// AddTask queues a download. A URL that already has a pending or running task is rejected.
func (s *Service) AddTask(url string, opts model.DownloadOptions) (*model.DownloadTask, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}
	settings := s.settings.Snapshot()

	s.mu.Lock()
	for _, id := range s.order {
		if t := s.tasks[id]; t.URL == url && t.Status.BlocksDuplicate() {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, url)
		}
	}

	task := &model.DownloadTask{
		ID:           generateTaskID(),
		URL:          url,
		Title:        url,
		Status:       model.TaskStatusPending,
		Speed:        model.UnknownValue,
		ETA:          model.UnknownValue,
		TotalSize:    model.UnknownValue,
		StatusDetail: DetailQueued,
		Range:        opts.RangeLabel(),
		Format:       ytdlp.FormatLabel(opts, settings),
		OutputDir:    outputDir(opts, settings),
		Options:      opts,
		CreatedAt:    time.Now(),
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	snapshot := task.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	s.sink.Log(task.ID, "Queued "+url)
	s.processQueue()
	return snapshot, nil
}

// GetTask returns a copy of a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, exists := s.tasks[id]
	if !exists {
		return nil, false
	}
	return task.Clone(), true
}

// GetAllTasks returns copies of all tasks in creation order
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*model.DownloadTask, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id].Clone())
	}
	return tasks
}

// StopTask stops a task. Stopping twice or stopping a finished task is not an error,
// and no process handle survives the call even when the kill fails.
func (s *Service) StopTask(id string) error {
	s.mu.Lock()
	task, exists := s.tasks[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	s.killLocked(id)
	if task.Status.IsFinished() {
		s.mu.Unlock()
		return nil
	}

	task.Status = model.TaskStatusStopped
	task.StatusDetail = DetailStopped
	task.Speed = model.UnknownValue
	task.ETA = model.UnknownValue
	task.PID = 0
	task.FinishedAt = time.Now()
	snapshot := task.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	s.sink.Log(id, "Stopped")
	s.processQueue()
	return nil
}

// StopAll stops every task that has not finished
func (s *Service) StopAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if !s.tasks[id].Status.IsFinished() {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.StopTask(id); err != nil {
			log.Printf("[DOWNLOAD] task %s: %v", id, err)
		}
	}
}

// PauseTask suspends the task's process in place, or kills it so a later resume restarts it
func (s *Service) PauseTask(id string) error {
	s.mu.Lock()
	task, exists := s.tasks[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	r := s.runs[id]
	if !task.Status.IsActive() || (r != nil && r.exited) {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot pause %s task", ErrInvalidTransition, task.Status)
	}

	used := s.applyStrategies(pauseStrategies, task, r)
	snapshot := task.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	if used == strategySuspend {
		s.sink.Log(id, "Paused")
	} else {
		s.sink.Notify(notify.LevelWarning, "Paused without suspend",
			snapshot.GetDisplayTitle()+" was stopped and will restart when resumed")
	}
	s.processQueue()
	return nil
}

// ResumeTask continues a paused task in place, or re-queues it when the process is gone
func (s *Service) ResumeTask(id string) error {
	s.mu.Lock()
	task, exists := s.tasks[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if task.Status != model.TaskStatusPaused {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot resume %s task", ErrInvalidTransition, task.Status)
	}

	used := s.applyStrategies(resumeStrategies, task, s.runs[id])
	snapshot := task.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	if used == strategyResume {
		s.sink.Log(id, "Resumed")
	} else {
		s.sink.Notify(notify.LevelWarning, "Download restarted",
			snapshot.GetDisplayTitle()+" could not be resumed in place and was queued again")
	}
	s.processQueue()
	return nil
}

// RetryTask kills any live process, resets progress and queues the task again
func (s *Service) RetryTask(id string) error {
	s.mu.Lock()
	task, exists := s.tasks[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	s.killLocked(id)
	requeueLocked(task)
	task.RetryCount++
	delete(s.limiters, id)
	snapshot := task.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	s.sink.Log(id, fmt.Sprintf("Retry #%d", snapshot.RetryCount))
	s.processQueue()
	return nil
}

// ClearTask stops the task if needed and removes it from the registry
func (s *Service) ClearTask(id string) error {
	s.mu.Lock()
	if _, exists := s.tasks[id]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	s.killLocked(id)
	s.removeLocked(id)
	s.mu.Unlock()

	s.afterRemoval([]string{id})
	s.processQueue()
	return nil
}

// Close cancels outstanding runs and stops all tasks. No task is admitted afterwards.
func (s *Service) Close() {
	s.cancel()
	s.StopAll()
}

// processQueue promotes the oldest pending tasks while admission slots are free
func (s *Service) processQueue() {
	s.mu.Lock()
	started := s.admitLocked()
	s.mu.Unlock()

	s.publish(started...)
}

// admitLocked counts slot holders and starts pending tasks in creation order
func (s *Service) admitLocked() []*model.DownloadTask {
	if s.ctx.Err() != nil {
		return nil
	}
	settings := s.settings.Snapshot()
	limit := settings.ConcurrentDownloads

	active := 0
	for _, t := range s.tasks {
		if t.Status.IsActive() {
			active++
		}
	}

	var started []*model.DownloadTask
	for _, id := range s.order {
		if active >= limit {
			break
		}
		task := s.tasks[id]
		if task.Status != model.TaskStatusPending {
			continue
		}

		ctx, cancel := context.WithCancel(s.ctx)
		r := &run{ctx: ctx, cancel: cancel, settings: settings}
		s.runs[id] = r

		task.Status = model.TaskStatusFetchingInfo
		task.StatusDetail = DetailFetchingInfo
		task.StartedAt = time.Now()
		task.FinishedAt = time.Time{}
		active++
		started = append(started, task.Clone())

		go s.startTask(id, r)
	}
	return started
}

// killLocked cancels the current run and kills its process. Caller holds mu.
func (s *Service) killLocked(id string) {
	if r := s.runs[id]; r != nil {
		r.cancel()
		delete(s.runs, id)
	}
	if err := s.supervisor.Kill(id); err != nil && !errors.Is(err, process.ErrNotRegistered) {
		log.Printf("[DOWNLOAD] task %s: %v", id, err)
	}
}

// removeLocked drops a task from the registry. Caller holds mu.
func (s *Service) removeLocked(id string) {
	delete(s.tasks, id)
	delete(s.limiters, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// afterRemoval deletes removed tasks from the store and reports them
func (s *Service) afterRemoval(ids []string) {
	s.mu.Lock()
	callback := s.onRemove
	s.mu.Unlock()

	for _, id := range ids {
		if s.store != nil {
			if err := s.store.Delete(id); err != nil {
				log.Printf("[DOWNLOAD] task %s: %v", id, err)
			}
		}
		if callback != nil {
			callback(id)
		}
	}
}

// requeueLocked resets a task to pending for a fresh attempt. Caller holds mu.
func requeueLocked(task *model.DownloadTask) {
	task.ResetProgress()
	task.Status = model.TaskStatusPending
	task.StatusDetail = DetailQueued
	task.LastError = ""
	task.ErrorDetail = ""
	task.StartedAt = time.Time{}
	task.FinishedAt = time.Time{}
}

// limiterLocked returns the progress throttle of a task. Caller holds mu.
func (s *Service) limiterLocked(id string) *rate.Limiter {
	l, ok := s.limiters[id]
	if !ok {
		l = rate.NewLimiter(rate.Every(ProgressInterval), 1)
		s.limiters[id] = l
	}
	return l
}

// publish persists task snapshots and reports them
func (s *Service) publish(tasks ...*model.DownloadTask) {
	for _, t := range tasks {
		if s.store != nil {
			if err := s.store.Save(t); err != nil {
				log.Printf("[DOWNLOAD] task %s: %v", t.ID, err)
			}
		}
		s.notifyUpdate(t)
	}
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	s.mu.Lock()
	callback := s.onUpdate
	s.mu.Unlock()
	if callback != nil {
		callback(task)
	}
}

// toolchain resolves binaries from the settings of a run
func (s *Service) toolchain(settings config.AppSettings) *platform.Toolchain {
	return platform.NewToolchain(s.runner, settings.BinaryPathYtDlp, settings.BinaryPathFFmpeg)
}

func (s *Service) preflightFor(tools *platform.Toolchain) Preflight {
	if s.preflight != nil {
		return s.preflight
	}
	return tools
}

func (s *Service) splitterFor(tools *platform.Toolchain) ChapterSplitter {
	if s.splitter != nil {
		return s.splitter
	}
	return compress.NewChapterSplitter(s.runner, tools.FFmpeg())
}

// hardwareClass detects the encoder family once. Disabled hardware decoding always yields cpu.
func (s *Service) hardwareClass(settings config.AppSettings, tools *platform.Toolchain) model.HardwareClass {
	if !settings.HardwareDecoding {
		return model.HardwareCPU
	}
	s.hwOnce.Do(func() {
		if s.hardware == "" {
			s.hardware = platform.DetectHardwareClass(context.Background(), s.runner, tools.FFmpeg())
			log.Printf("[DOWNLOAD] detected hardware class: %s", s.hardware)
		}
	})
	return s.hardware
}

// outputDir resolves the download folder of a task
func outputDir(opts model.DownloadOptions, settings config.AppSettings) string {
	base := settings.DownloadPath
	if base == "" {
		if dir, err := platform.GetHomeDownloadsDir(); err == nil {
			base = dir
		} else {
			base = config.FallbackDownloadDir
		}
	}
	switch {
	case opts.Path == "":
		return base
	case filepath.IsAbs(opts.Path):
		return filepath.Clean(opts.Path)
	default:
		return filepath.Join(base, opts.Path)
	}
}

// generateTaskID generates a unique task ID using UUID v7 for better uniqueness and time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
