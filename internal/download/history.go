package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/notify"
)

// DeleteHistory removes completed and stopped tasks and returns how many were removed
func (s *Service) DeleteHistory() int {
	s.mu.Lock()
	var removed []string
	for _, id := range append([]string(nil), s.order...) {
		switch s.tasks[id].Status {
		case model.TaskStatusCompleted, model.TaskStatusStopped:
			s.removeLocked(id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	s.afterRemoval(removed)
	return len(removed)
}

// PruneHistory drops finished tasks older than retentionDays, then the oldest
// finished tasks until at most maxItems tasks remain. Zero disables a limit.
func (s *Service) PruneHistory(retentionDays, maxItems int) int {
	s.mu.Lock()
	var removed []string

	if retentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		for _, id := range append([]string(nil), s.order...) {
			t := s.tasks[id]
			if t.Status.IsFinished() && t.CreatedAt.Before(cutoff) {
				s.removeLocked(id)
				removed = append(removed, id)
			}
		}
	}

	if maxItems > 0 {
		for len(s.order) > maxItems {
			oldest := ""
			for _, id := range s.order {
				if s.tasks[id].Status.IsFinished() {
					oldest = id
					break
				}
			}
			if oldest == "" {
				break
			}
			s.removeLocked(oldest)
			removed = append(removed, oldest)
		}
	}
	s.mu.Unlock()

	s.afterRemoval(removed)
	if len(removed) > 0 {
		log.Printf("[DOWNLOAD] pruned %d task(s) from history", len(removed))
	}
	return len(removed)
}

// RetryAllFailed queues every task in error again and returns how many were queued
func (s *Service) RetryAllFailed() int {
	s.mu.Lock()
	var failed []string
	for _, id := range s.order {
		if s.tasks[id].Status == model.TaskStatusError {
			failed = append(failed, id)
		}
	}
	s.mu.Unlock()

	retried := 0
	for _, id := range failed {
		if err := s.RetryTask(id); err != nil {
			log.Printf("[DOWNLOAD] task %s: %v", id, err)
			continue
		}
		retried++
	}
	return retried
}

// Restore loads persisted tasks. Tasks interrupted by a restart are queued again.
func (s *Service) Restore() (int, error) {
	if s.store == nil {
		return 0, nil
	}
	tasks, err := s.store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load task history: %w", err)
	}

	s.mu.Lock()
	restored := 0
	var requeued []*model.DownloadTask
	for _, t := range tasks {
		if _, exists := s.tasks[t.ID]; exists {
			continue
		}
		t.PID = 0
		if !t.Status.IsFinished() {
			requeueLocked(t)
			t.StatusDetail = DetailInterrupted
			requeued = append(requeued, t.Clone())
		}
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
		restored++
	}
	s.mu.Unlock()

	s.publish(requeued...)
	if len(requeued) > 0 {
		log.Printf("[DOWNLOAD] re-queued %d interrupted task(s)", len(requeued))
	}
	s.processQueue()
	return restored, nil
}

// AddPlaylist expands a playlist and queues each entry. Entries already queued are skipped.
func (s *Service) AddPlaylist(ctx context.Context, url string, opts model.DownloadOptions) ([]*model.DownloadTask, error) {
	if s.playlists == nil {
		return nil, ErrNoPlaylistSupport
	}
	playlist, err := s.playlists.ParsePlaylist(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}

	var added []*model.DownloadTask
	for _, videoURL := range playlist.VideoURLs() {
		task, err := s.AddTask(videoURL, opts)
		if errors.Is(err, ErrDuplicateTask) {
			continue
		}
		if err != nil {
			return added, err
		}
		added = append(added, task)
	}

	s.sink.Notify(notify.LevelInfo, "Playlist added", fmt.Sprintf("%s: %d video(s) queued", playlist.Title, len(added)))
	return added, nil
}
