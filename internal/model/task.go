package model

import (
	"path/filepath"
	"strings"
	"time"
)

// UnknownValue is shown for speed, ETA and size until a progress line reports them
const UnknownValue = "-"

// MaxTaskLogLines bounds the per-task log kept for the detail view
const MaxTaskLogLines = 200

// DownloadTask represents a single download task
type DownloadTask struct {
	ID            string
	URL           string
	Title         string // URL until metadata resolves
	Status        TaskStatus
	Progress      float64 // 0 to 100
	Speed         string  // human readable speed (e.g., "1.20MiB/s")
	ETA           string
	TotalSize     string
	StatusDetail  string
	Range         string // clip descriptor, empty when not clipping
	Format        string
	LastError     string // short user facing error message
	ErrorDetail   string // raw tool output kept for developer mode
	OutputDir     string
	FilePath      string // resolved output file once metadata is known
	Options       DownloadOptions
	Command       string // exact command line used
	PID           int
	RetryCount    int
	FileSize      int64         // file size in bytes
	MediaDuration time.Duration // probed duration of the finished file
	Logs          []string
	CreatedAt     time.Time
	StartedAt     time.Time // when download started
	FinishedAt    time.Time // when download finished
}

// Clone returns a copy that does not share mutable state with dt
func (dt *DownloadTask) Clone() *DownloadTask {
	c := *dt
	c.Logs = append([]string(nil), dt.Logs...)
	return &c
}

// AppendLog adds a line to the task log, dropping the oldest lines past MaxTaskLogLines
func (dt *DownloadTask) AppendLog(line string) {
	dt.Logs = append(dt.Logs, line)
	if over := len(dt.Logs) - MaxTaskLogLines; over > 0 {
		dt.Logs = append([]string(nil), dt.Logs[over:]...)
	}
}

// ResetProgress clears transfer telemetry before a restart
func (dt *DownloadTask) ResetProgress() {
	dt.Progress = 0
	dt.Speed = UnknownValue
	dt.ETA = UnknownValue
	dt.TotalSize = UnknownValue
	dt.PID = 0
	dt.Logs = nil
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	// First priority: video title (non-URL)
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	// Second priority: filename from FilePath
	if dt.FilePath != "" {
		// Support both / and \ separators regardless of the host OS
		parts := strings.FieldsFunc(dt.FilePath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return dt.URL
}

// CompressionTask represents a single compression task
type CompressionTask struct {
	ID         string
	InputPath  string
	OutputPath string
	Options    CompressionOptions
	Status     TaskStatus
	Progress   float64 // 0 to 100
	LastError  string  // last error message if any
	StartedAt  time.Time
	FinishedAt time.Time
}

// CompressionPreset is a named set of compression defaults
type CompressionPreset string

const (
	PresetBalanced CompressionPreset = "balanced"
	PresetSocial   CompressionPreset = "social"
	PresetArchive  CompressionPreset = "archive"
	PresetWhatsApp CompressionPreset = "whatsapp"
	PresetCustom   CompressionPreset = "custom"
)

// CompressionEncoder selects the video encoder family for compression
type CompressionEncoder string

const (
	EncoderAuto  CompressionEncoder = "auto"
	EncoderCPU   CompressionEncoder = "cpu"
	EncoderNVENC CompressionEncoder = "nvenc"
	EncoderAMF   CompressionEncoder = "amf"
	EncoderQSV   CompressionEncoder = "qsv"
)

// CompressionOptions controls a compression job
type CompressionOptions struct {
	Preset       CompressionPreset
	CRF          int
	Height       int // 0 keeps the source resolution
	Encoder      CompressionEncoder
	SpeedPreset  string // x264 preset, "fast" switches NVENC to p4
	AudioBitrate string
}

// Chapter is a chapter marker reported by the metadata dump
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ChapterDir returns the sibling folder that holds split chapters for outputPath
func ChapterDir(outputPath string) string {
	base := filepath.Base(outputPath)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(filepath.Dir(outputPath), "[Chapters] "+base)
}
