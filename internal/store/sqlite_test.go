package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ytget/mediadl/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTask(id, url string, created time.Time) *model.DownloadTask {
	return &model.DownloadTask{
		ID:        id,
		URL:       url,
		Title:     url,
		Status:    model.TaskStatusPending,
		CreatedAt: created,
		Options:   model.DownloadOptions{Format: model.FormatAudio, AudioBitrate: "192"},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	s := openTestStore(t)
	base := time.Now()

	second := newTask("dl-2", "https://example.com/b", base.Add(time.Second))
	first := newTask("dl-1", "https://example.com/a", base)
	first.PID = 4242
	first.Logs = []string{"line"}

	for _, task := range []*model.DownloadTask{second, first} {
		if err := s.Save(task); err != nil {
			t.Fatalf("Save(%s) error = %v", task.ID, err)
		}
	}

	tasks, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("LoadAll() returned %d tasks, expected 2", len(tasks))
	}
	if tasks[0].ID != "dl-1" || tasks[1].ID != "dl-2" {
		t.Errorf("order = %s, %s; expected creation order", tasks[0].ID, tasks[1].ID)
	}
	if tasks[0].PID != 0 {
		t.Errorf("PID = %d, expected 0 after reload", tasks[0].PID)
	}
	if tasks[0].Options.AudioBitrate != "192" || tasks[0].Options.Format != model.FormatAudio {
		t.Errorf("Options = %+v, not round-tripped", tasks[0].Options)
	}
	if first.PID != 4242 {
		t.Error("Save() mutated the caller's task")
	}
}

func TestStore_SaveUpdates(t *testing.T) {
	s := openTestStore(t)
	task := newTask("dl-1", "https://example.com/a", time.Now())
	if err := s.Save(task); err != nil {
		t.Fatal(err)
	}

	task.Status = model.TaskStatusCompleted
	task.Progress = 100
	if err := s.Save(task); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, expected 1", n)
	}
	tasks, _ := s.LoadAll()
	if tasks[0].Status != model.TaskStatusCompleted || tasks[0].Progress != 100 {
		t.Errorf("reloaded task = %s %.0f, expected completed 100", tasks[0].Status, tasks[0].Progress)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	_ = s.Save(newTask("dl-1", "u1", time.Now()))

	if err := s.Delete("dl-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) error = %v, expected nil", err)
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("Count() = %d after delete", n)
	}
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Save(newTask("dl-1", "u1", time.Now()))
	s.Close()

	s, err = OpenFile(filepath.Join(dir, DBFileName))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	tasks, err := s.LoadAll()
	if err != nil || len(tasks) != 1 {
		t.Errorf("LoadAll() after reopen = %d tasks, %v", len(tasks), err)
	}
}

func TestStore_Closed(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if err := s.Save(newTask("x", "u", time.Now())); err != ErrClosed {
		t.Errorf("Save() after Close error = %v, expected ErrClosed", err)
	}
}
