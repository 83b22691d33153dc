package compress

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/platform"
	"github.com/ytget/mediadl/internal/process"
)

// chapterTitleReplacer strips characters that are illegal in file names
var chapterTitleReplacer = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// ChapterSplitter cuts a finished file into one stream-copied file per chapter
type ChapterSplitter struct {
	runner     process.Runner
	ffmpegPath string
}

// NewChapterSplitter creates a splitter that runs ffmpeg through runner
func NewChapterSplitter(runner process.Runner, ffmpegPath string) *ChapterSplitter {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	return &ChapterSplitter{runner: runner, ffmpegPath: ffmpegPath}
}

// ChapterOutputPath returns "<base> - NN - <title>.<ext>" inside the chapter folder of inputPath
func ChapterOutputPath(inputPath string, index int, ch model.Chapter) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), ext)
	title := strings.TrimSpace(chapterTitleReplacer.Replace(ch.Title))
	if title == "" {
		title = fmt.Sprintf("Chapter %d", index+1)
	}
	name := fmt.Sprintf("%s - %02d - %s%s", stem, index+1, title, ext)
	return filepath.Join(model.ChapterDir(inputPath), name)
}

// BuildChapterArgs builds the stream-copy cut for one chapter
func BuildChapterArgs(inputPath, outputPath string, ch model.Chapter) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-ss", formatSeconds(ch.StartTime),
		"-to", formatSeconds(ch.EndTime),
		"-i", inputPath,
		"-c", "copy",
		"-map_metadata", "0",
		outputPath,
	}
}

// Split writes every chapter of inputPath and returns the created files.
// The first failing chapter aborts the whole operation.
func (c *ChapterSplitter) Split(ctx context.Context, inputPath string, chapters []model.Chapter, onProgress func(percent float64)) ([]string, error) {
	valid := make([]model.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if ch.EndTime > ch.StartTime {
			valid = append(valid, ch)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no chapters to split")
	}

	if err := platform.CreateDirectoryIfNotExists(model.ChapterDir(inputPath)); err != nil {
		return nil, err
	}

	total := valid[len(valid)-1].EndTime - valid[0].StartTime
	var done float64
	outputs := make([]string, 0, len(valid))
	for i, ch := range valid {
		out := ChapterOutputPath(inputPath, i, ch)
		res, err := c.runner.Run(ctx, c.ffmpegPath, BuildChapterArgs(inputPath, out, ch)...)
		if err != nil {
			log.Printf("[COMPRESS] chapter %d of %s failed: %s", i+1, inputPath, strings.TrimSpace(string(res.Stderr)))
			return outputs, fmt.Errorf("failed to split chapter %d: %w", i+1, err)
		}
		outputs = append(outputs, out)

		done += ch.EndTime - ch.StartTime
		if onProgress != nil {
			onProgress(Percent(done, total))
		}
	}
	return outputs, nil
}

func formatSeconds(v float64) string {
	if v < 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
