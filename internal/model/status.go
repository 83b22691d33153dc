package model

// TaskStatus represents the lifecycle state of a download or compression task
type TaskStatus string

const (
	// TaskStatusPending means the task is queued and waits for an admission slot
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusFetchingInfo means the metadata dump is running
	TaskStatusFetchingInfo TaskStatus = "fetching_info"

	// TaskStatusDownloading means the download process is running
	TaskStatusDownloading TaskStatus = "downloading"

	// TaskStatusPaused means the download process is suspended or was killed for a later restart
	TaskStatusPaused TaskStatus = "paused"

	// TaskStatusCompleted means the task finished successfully
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusError means the task failed with an error
	TaskStatusError TaskStatus = "error"

	// TaskStatusStopped means the task was stopped by user
	TaskStatusStopped TaskStatus = "stopped"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsValid reports whether ts is one of the known states
func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusPending, TaskStatusFetchingInfo, TaskStatusDownloading, TaskStatusPaused,
		TaskStatusCompleted, TaskStatusError, TaskStatusStopped:
		return true
	}
	return false
}

// IsActive returns true if the task holds an admission slot
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusFetchingInfo || ts == TaskStatusDownloading
}

// IsFinished returns true if the task is in a finished state (completed, stopped, or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusStopped || ts == TaskStatusError
}

// BlocksDuplicate returns true if a new task for the same URL must be rejected
func (ts TaskStatus) BlocksDuplicate() bool {
	return ts == TaskStatusPending || ts == TaskStatusFetchingInfo || ts == TaskStatusDownloading
}
