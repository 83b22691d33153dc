package download

import "errors"

var (
	// ErrTaskNotFound is returned for unknown task ids
	ErrTaskNotFound = errors.New("task not found")
	// ErrDuplicateTask is returned when the URL already has a queued or running task
	ErrDuplicateTask = errors.New("task already exists for URL")
	// ErrInvalidTransition is returned when an operation does not apply to the task's status
	ErrInvalidTransition = errors.New("operation not allowed in current status")
	// ErrFFmpegMissing is recorded on tasks that could not start because ffmpeg is unavailable
	ErrFFmpegMissing = errors.New("ffmpeg is not installed")
	// ErrEmptyURL is returned by AddTask for blank URLs
	ErrEmptyURL = errors.New("URL is empty")
	// ErrNoPlaylistSupport is returned by AddPlaylist when no playlist parser is configured
	ErrNoPlaylistSupport = errors.New("playlist import is not configured")
)

// ToolError is a failed external tool run together with its raw diagnostic output
type ToolError struct {
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
