package notify

import (
	"log"
	"sync"
)

// Level categorizes a user-facing notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Sink receives task log lines and categorized notifications. Implementations
// must be safe for concurrent use.
type Sink interface {
	Log(taskID, msg string)
	Notify(level Level, title, body string)
}

// LogSink writes everything to the standard logger
type LogSink struct{}

// Log writes a task log line
func (LogSink) Log(taskID, msg string) {
	log.Printf("[TASK %s] %s", taskID, msg)
}

// Notify writes a notification line
func (LogSink) Notify(level Level, title, body string) {
	log.Printf("[NOTIFY %s] %s: %s", level, title, body)
}

// Discard drops everything
type Discard struct{}

func (Discard) Log(string, string) {}

func (Discard) Notify(Level, string, string) {}

// Multi fans out to several sinks in order
type Multi []Sink

func (m Multi) Log(taskID, msg string) {
	for _, s := range m {
		s.Log(taskID, msg)
	}
}

func (m Multi) Notify(level Level, title, body string) {
	for _, s := range m {
		s.Notify(level, title, body)
	}
}

// Event is a recorded Log or Notify call
type Event struct {
	TaskID string
	Level  Level
	Title  string
	Body   string
}

// Recorder keeps every call in memory. Useful for tests and for replaying a task's log.
type Recorder struct {
	mu            sync.Mutex
	logs          []Event
	notifications []Event
}

func (r *Recorder) Log(taskID, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, Event{TaskID: taskID, Body: msg})
}

func (r *Recorder) Notify(level Level, title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Event{Level: level, Title: title, Body: body})
}

// Logs returns a copy of the recorded log lines
func (r *Recorder) Logs() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.logs...)
}

// Notifications returns a copy of the recorded notifications
func (r *Recorder) Notifications() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.notifications...)
}
