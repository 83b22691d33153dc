package notify

import (
	"fyne.io/fyne/v2"
)

// Desktop shows success and error notifications through the OS notification center
type Desktop struct {
	app fyne.App
}

// NewDesktop creates a desktop sink for app
func NewDesktop(app fyne.App) *Desktop {
	return &Desktop{app: app}
}

// Log is a no-op; the desktop only shows notifications
func (d *Desktop) Log(string, string) {}

// Notify sends success, warning and error notifications; info is too chatty for the desktop
func (d *Desktop) Notify(level Level, title, body string) {
	if d.app == nil || level == LevelInfo {
		return
	}
	d.app.SendNotification(fyne.NewNotification(title, body))
}
