package download

import (
	"context"

	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/model"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	AddTask(url string, opts model.DownloadOptions) (*model.DownloadTask, error)
	AddPlaylist(ctx context.Context, url string, opts model.DownloadOptions) ([]*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask
	StopTask(id string) error
	PauseTask(id string) error
	ResumeTask(id string) error
	RetryTask(id string) error
	ClearTask(id string) error
	DeleteHistory() int
	RetryAllFailed() int
	PruneHistory(retentionDays, maxItems int) int
	StopAll()
}

// SettingsSource provides the current global settings
type SettingsSource interface {
	Snapshot() config.AppSettings
}

// Preflight checks that the transcoding binary is usable before a task starts
type Preflight interface {
	CheckFFmpeg(ctx context.Context) error
}

// TaskStore persists tasks across restarts
type TaskStore interface {
	Save(task *model.DownloadTask) error
	Delete(id string) error
	LoadAll() ([]*model.DownloadTask, error)
}

// ChapterSplitter cuts a finished file into per-chapter files
type ChapterSplitter interface {
	Split(ctx context.Context, inputPath string, chapters []model.Chapter, onProgress func(percent float64)) ([]string, error)
}

// PlaylistParser resolves a playlist URL into its videos
type PlaylistParser interface {
	ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error)
}

var _ Downloader = (*Service)(nil)
