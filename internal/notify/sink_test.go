package notify

import (
	"bytes"
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, Discard{}, b}

	m.Log("task-1", "hello")
	m.Notify(LevelError, "Failed", "boom")

	for i, r := range []*Recorder{a, b} {
		if logs := r.Logs(); len(logs) != 1 || logs[0].TaskID != "task-1" || logs[0].Body != "hello" {
			t.Errorf("recorder %d logs = %+v", i, logs)
		}
		if n := r.Notifications(); len(n) != 1 || n[0].Level != LevelError || n[0].Title != "Failed" {
			t.Errorf("recorder %d notifications = %+v", i, n)
		}
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Log("dl-0190aaaa-bbbb-7ccc-8ddd-eeeeffff0001", "quiet")
	if buf.Len() != 0 {
		t.Errorf("non-verbose console printed a log line: %q", buf.String())
	}

	c.Notify(LevelSuccess, "Download complete", "video.mp4")
	out := buf.String()
	if !strings.Contains(out, "Download complete") || !strings.Contains(out, "video.mp4") {
		t.Errorf("console output = %q", out)
	}

	buf.Reset()
	NewConsole(&buf, true).Log("dl-0190aaaa-bbbb-7ccc-8ddd-eeeeffff0001", "verbose line")
	if !strings.Contains(buf.String(), "ffff0001") || !strings.Contains(buf.String(), "verbose line") {
		t.Errorf("verbose console output = %q", buf.String())
	}
}

func TestDesktop(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	d := NewDesktop(app)
	d.Log("task", "ignored")
	d.Notify(LevelInfo, "Started", "")
	d.Notify(LevelError, "Failed", "boom")

	NewDesktop(nil).Notify(LevelError, "no app", "")
}
