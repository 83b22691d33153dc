package compress

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/mediadl/internal/media"
	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/platform"
	"github.com/ytget/mediadl/internal/process"
)

// ErrorTailLines is how many non-progress stderr lines are kept for error messages
const ErrorTailLines = 8

// job is the per-run state that is not part of the public task
type job struct {
	proc     process.Process
	duration float64
	tail     []string
}

// Service handles media compression operations
type Service struct {
	tasks      map[string]*model.CompressionTask
	jobs       map[string]*job
	order      []string
	tasksMutex sync.RWMutex
	onUpdate   func(*model.CompressionTask) // callback for UI updates

	spawner    process.Spawner
	supervisor *process.Supervisor
	ffmpegPath string
	hardware   model.HardwareClass
	probe      func(path string) (media.Info, error)
}

// NewService creates a new compression service. Processes are registered
// with supervisor so they share the download engine's kill path.
func NewService(spawner process.Spawner, supervisor *process.Supervisor, ffmpegPath string, hw model.HardwareClass) *Service {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	if supervisor == nil {
		supervisor = process.NewSupervisor(nil)
	}
	return &Service{
		tasks:      make(map[string]*model.CompressionTask),
		jobs:       make(map[string]*job),
		spawner:    spawner,
		supervisor: supervisor,
		ffmpegPath: ffmpegPath,
		hardware:   hw,
		probe:      media.Probe,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.CompressionTask)) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.onUpdate = callback
}

// StartCompression starts compressing a media file
func (s *Service) StartCompression(inputPath string, opts model.CompressionOptions) (*model.CompressionTask, error) {
	if _, err := os.Stat(inputPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return nil, fmt.Errorf("failed to stat input file: %w", err)
	}

	outputPath, err := platform.UniqueFilePath(OutputPath(inputPath))
	if err != nil {
		return nil, err
	}
	args, err := BuildCompressionArgs(inputPath, outputPath, opts, s.hardware)
	if err != nil {
		return nil, fmt.Errorf("invalid compression options: %w", err)
	}

	s.tasksMutex.Lock()
	for _, task := range s.tasks {
		if task.InputPath == inputPath && !task.Status.IsFinished() {
			s.tasksMutex.Unlock()
			return nil, fmt.Errorf("compression already in progress for file: %s", inputPath)
		}
	}

	task := &model.CompressionTask{
		ID:         generateTaskID(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		Options:    opts,
		Status:     model.TaskStatusPending,
		StartedAt:  time.Now(),
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	snapshot := *task
	s.tasksMutex.Unlock()

	go s.run(task.ID, args)

	return &snapshot, nil
}

// run probes the input and spawns ffmpeg
func (s *Service) run(taskID string, args []string) {
	s.tasksMutex.RLock()
	inputPath := s.tasks[taskID].InputPath
	s.tasksMutex.RUnlock()

	// mp4 headers give the duration up front; other inputs rely on ffmpeg's summary line
	var duration float64
	if info, err := s.probe(inputPath); err == nil && info.Duration > 0 {
		duration = info.Duration.Seconds()
	}

	s.tasksMutex.Lock()
	task := s.tasks[taskID]
	if task == nil || task.Status != model.TaskStatusPending {
		s.tasksMutex.Unlock()
		return
	}

	j := &job{duration: duration}
	s.jobs[taskID] = j
	log.Printf("[COMPRESS] task %s: %s %s", taskID, s.ffmpegPath, strings.Join(args, " "))

	proc, err := s.spawner.Spawn(s.ffmpegPath, args, process.Handlers{
		OnStderr: func(line string) { s.handleOutput(taskID, line) },
		OnExit:   func(code int) { s.finish(taskID, j, code, nil) },
		OnError:  func(err error) { s.finish(taskID, j, -1, err) },
	})
	if err != nil {
		delete(s.jobs, taskID)
		s.failLocked(task, fmt.Errorf("failed to start ffmpeg: %w", err))
		snapshot := *task
		s.tasksMutex.Unlock()
		s.notifyUpdate(&snapshot)
		return
	}
	j.proc = proc
	s.supervisor.Register(taskID, proc)
	task.Status = model.TaskStatusDownloading
	snapshot := *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
}

// handleOutput applies one stderr line to the task
func (s *Service) handleOutput(taskID, line string) {
	s.tasksMutex.Lock()
	task, j := s.tasks[taskID], s.jobs[taskID]
	if task == nil || j == nil || task.Status != model.TaskStatusDownloading {
		s.tasksMutex.Unlock()
		return
	}

	if j.duration == 0 {
		if d, ok := ParseDurationLine(line); ok {
			j.duration = d
		}
	}

	elapsed, ok := ParseOutTime(line)
	if !ok {
		if !isProgressPair(line) && strings.TrimSpace(line) != "" {
			j.tail = append(j.tail, strings.TrimSpace(line))
			if len(j.tail) > ErrorTailLines {
				j.tail = j.tail[1:]
			}
		}
		s.tasksMutex.Unlock()
		return
	}

	percent := Percent(elapsed, j.duration)
	if percent <= task.Progress {
		s.tasksMutex.Unlock()
		return
	}
	task.Progress = percent
	snapshot := *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
}

// finish records the exit of ffmpeg
func (s *Service) finish(taskID string, j *job, code int, runErr error) {
	s.tasksMutex.Lock()
	if j.proc != nil {
		s.supervisor.DeregisterIf(taskID, j.proc)
	}
	task := s.tasks[taskID]
	delete(s.jobs, taskID)
	if task == nil || task.Status != model.TaskStatusDownloading {
		// stopped by the user, output already removed
		s.tasksMutex.Unlock()
		return
	}

	switch {
	case runErr != nil:
		s.failLocked(task, runErr)
	case code != 0:
		s.failLocked(task, exitError(code, j))
	default:
		task.Status = model.TaskStatusCompleted
		task.Progress = 100
		task.FinishedAt = time.Now()
		log.Printf("[COMPRESS] task %s: completed %s", taskID, task.OutputPath)
	}
	snapshot := *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
}

// StopCompression stops a running compression task. Stopping a finished task is a no-op.
func (s *Service) StopCompression(taskID string) error {
	s.tasksMutex.Lock()
	task, exists := s.tasks[taskID]
	if !exists {
		s.tasksMutex.Unlock()
		return fmt.Errorf("compression task not found: %s", taskID)
	}
	if task.Status.IsFinished() {
		s.tasksMutex.Unlock()
		return nil
	}

	task.Status = model.TaskStatusStopped
	task.FinishedAt = time.Now()
	delete(s.jobs, taskID)
	if err := s.supervisor.Kill(taskID); err != nil && !errors.Is(err, process.ErrNotRegistered) {
		log.Printf("[COMPRESS] task %s: %v", taskID, err)
	}
	removePartial(task.OutputPath)
	snapshot := *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
	return nil
}

// GetTask returns a copy of a compression task by ID
func (s *Service) GetTask(taskID string) (*model.CompressionTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[taskID]
	if !exists {
		return nil, false
	}
	snapshot := *task
	return &snapshot, true
}

// GetAllTasks returns copies of all tasks in start order
func (s *Service) GetAllTasks() []*model.CompressionTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	tasks := make([]*model.CompressionTask, 0, len(s.order))
	for _, id := range s.order {
		snapshot := *s.tasks[id]
		tasks = append(tasks, &snapshot)
	}
	return tasks
}

// failLocked sets an error state for a task. Caller holds tasksMutex.
func (s *Service) failLocked(task *model.CompressionTask, err error) {
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	removePartial(task.OutputPath)
	log.Printf("[COMPRESS] task %s: %v", task.ID, err)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.CompressionTask) {
	s.tasksMutex.RLock()
	callback := s.onUpdate
	s.tasksMutex.RUnlock()
	if callback != nil {
		callback(task)
	}
}

func exitError(code int, j *job) error {
	if j != nil && len(j.tail) > 0 {
		return fmt.Errorf("ffmpeg exited with code %d: %s", code, j.tail[len(j.tail)-1])
	}
	return fmt.Errorf("ffmpeg exited with code %d", code)
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[COMPRESS] failed to remove partial output %s: %v", path, err)
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
