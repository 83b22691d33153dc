package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorMuted   = lipgloss.Color("#565f89")
	colorText    = lipgloss.Color("#a9b1d6")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
)

var (
	taskIDStyle = lipgloss.NewStyle().Foreground(colorMuted)
	logStyle    = lipgloss.NewStyle().Foreground(colorText)
	titleStyle  = lipgloss.NewStyle().Bold(true)

	levelStyles = map[Level]lipgloss.Style{
		LevelInfo:    lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		LevelSuccess: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		LevelWarning: lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		LevelError:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}

	levelIcons = map[Level]string{
		LevelInfo:    "•",
		LevelSuccess: "✓",
		LevelWarning: "!",
		LevelError:   "✗",
	}
)

// Console renders notifications for a terminal. Task log lines are only
// printed in verbose mode.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsole creates a console sink writing to out, stdout when nil
func NewConsole(out io.Writer, verbose bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, verbose: verbose}
}

func (c *Console) Log(taskID, msg string) {
	if !c.verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, taskIDStyle.Render(shortID(taskID))+" "+logStyle.Render(msg))
}

func (c *Console) Notify(level Level, title, body string) {
	style, ok := levelStyles[level]
	if !ok {
		style = levelStyles[LevelInfo]
	}
	line := style.Render(levelIcons[level]) + " " + titleStyle.Render(title)
	if body != "" {
		line += " " + logStyle.Render(body)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// shortID keeps the random tail of a prefixed UUIDv7 id
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
