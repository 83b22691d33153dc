package download

import (
	"log"

	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/process"
)

// Pause and resume strategy names
const (
	strategySuspend = "suspend"
	strategyKill    = "kill"
	strategyResume  = "resume"
	strategyRestart = "restart"
)

// lifecycleStrategy is one way of pausing or resuming a task. apply changes the
// task only when it succeeds. The last strategy of a list never fails.
type lifecycleStrategy struct {
	name  string
	apply func(s *Service, task *model.DownloadTask, r *run) error
}

var pauseStrategies = []lifecycleStrategy{
	{strategySuspend, suspendInPlace},
	{strategyKill, killForRestart},
}

var resumeStrategies = []lifecycleStrategy{
	{strategyResume, resumeInPlace},
	{strategyRestart, restartFromQueue},
}

// applyStrategies runs strategies in order until one succeeds. Caller holds mu.
func (s *Service) applyStrategies(strategies []lifecycleStrategy, task *model.DownloadTask, r *run) string {
	for _, st := range strategies {
		if err := st.apply(s, task, r); err != nil {
			log.Printf("[DOWNLOAD] task %s: %s failed: %v", task.ID, st.name, err)
			continue
		}
		log.Printf("[DOWNLOAD] task %s: %s", task.ID, st.name)
		return st.name
	}
	return ""
}

func suspendInPlace(s *Service, task *model.DownloadTask, r *run) error {
	if r == nil || r.proc == nil {
		return process.ErrNotRegistered
	}
	if err := s.supervisor.Suspend(task.ID); err != nil {
		return err
	}
	task.Status = model.TaskStatusPaused
	task.StatusDetail = DetailPaused
	task.Speed = model.UnknownValue
	task.ETA = model.UnknownValue
	return nil
}

func killForRestart(s *Service, task *model.DownloadTask, _ *run) error {
	s.killLocked(task.ID)
	task.Status = model.TaskStatusPaused
	task.StatusDetail = DetailPausedRestart
	task.Speed = model.UnknownValue
	task.ETA = model.UnknownValue
	task.PID = 0
	return nil
}

func resumeInPlace(s *Service, task *model.DownloadTask, r *run) error {
	if r == nil || r.proc == nil || r.exited {
		return process.ErrNotRegistered
	}
	if err := s.supervisor.Resume(task.ID); err != nil {
		return err
	}
	task.Status = model.TaskStatusDownloading
	task.StatusDetail = DetailDownloading
	return nil
}

func restartFromQueue(s *Service, task *model.DownloadTask, _ *run) error {
	s.killLocked(task.ID)
	requeueLocked(task)
	delete(s.limiters, task.ID)
	return nil
}
