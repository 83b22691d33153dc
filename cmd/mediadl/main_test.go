package main

import (
	"context"
	"errors"
	"testing"

	"github.com/ytget/mediadl/internal/model"
)

type fakeQueue struct {
	tasks   []*model.DownloadTask
	stopped int
}

func (q *fakeQueue) GetAllTasks() []*model.DownloadTask { return q.tasks }

func (q *fakeQueue) StopAll() { q.stopped++ }

func TestWaitDownloads_Interrupted(t *testing.T) {
	q := &fakeQueue{tasks: []*model.DownloadTask{{ID: "a", Status: model.TaskStatusDownloading}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitDownloads(ctx, q)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("waitDownloads() error = %v, expected context.Canceled", err)
	}
	if q.stopped != 1 {
		t.Errorf("StopAll() calls = %d, expected 1", q.stopped)
	}
}

func TestWaitDownloads_Idle(t *testing.T) {
	q := &fakeQueue{tasks: []*model.DownloadTask{{ID: "a", Status: model.TaskStatusCompleted}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := waitDownloads(ctx, q); err != nil {
		t.Errorf("waitDownloads() error = %v, expected nil once nothing is running", err)
	}
	if q.stopped != 0 {
		t.Errorf("StopAll() calls = %d, expected 0", q.stopped)
	}
}
