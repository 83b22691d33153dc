package compress

import (
	"github.com/ytget/mediadl/internal/model"
)

// Compressor defines the interface for the compression service.
type Compressor interface {
	SetUpdateCallback(func(*model.CompressionTask))
	StartCompression(inputPath string, opts model.CompressionOptions) (*model.CompressionTask, error)
	StopCompression(taskID string) error
	GetTask(taskID string) (*model.CompressionTask, bool)
	GetAllTasks() []*model.CompressionTask
}

var _ Compressor = (*Service)(nil)
