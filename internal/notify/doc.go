package notify

// Package notify delivers task log lines and user notifications to the log,
// a styled terminal or the desktop notification center.
