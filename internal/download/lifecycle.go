package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/notify"
	"github.com/ytget/mediadl/internal/platform"
	"github.com/ytget/mediadl/internal/process"
	"github.com/ytget/mediadl/internal/ytdlp"
)

// ffmpegMissingMessage is the user facing text of a failed ffmpeg preflight
const ffmpegMissingMessage = "FFmpeg is required but was not found. Install it or set its path in settings."

// startTask runs preflight and the metadata fetch, then spawns the download.
// Every failure ends the task in error; a cancelled run returns quietly.
func (s *Service) startTask(taskID string, r *run) {
	task, ok := s.GetTask(taskID)
	if !ok {
		return
	}
	s.sink.Log(taskID, "Fetching metadata for "+task.URL)

	tools := s.toolchain(r.settings)
	if err := s.preflightFor(tools).CheckFFmpeg(r.ctx); err != nil {
		if r.ctx.Err() != nil {
			return
		}
		s.fail(taskID, r, "FFmpeg not found", ffmpegMissingMessage, fmt.Errorf("%w: %v", ErrFFmpegMissing, err).Error())
		return
	}

	hw := s.hardwareClass(r.settings, tools)

	meta, err := s.fetchMetadata(r.ctx, tools.YtDlp(), task, r.settings)
	if err != nil {
		if r.ctx.Err() != nil {
			return
		}
		message, detail := describeFailure(err)
		s.fail(taskID, r, "Failed to fetch video info", message, detail)
		return
	}

	outputPath, err := resolveOutputPath(task, meta, r.settings)
	if err != nil {
		s.fail(taskID, r, "Download failed", "Cannot prepare the output folder", err.Error())
		return
	}

	args, err := ytdlp.BuildDownloadArgs(task.URL, task.Options, r.settings, outputPath, hw)
	if err != nil {
		message, detail := describeFailure(err)
		s.fail(taskID, r, "Invalid download options", message, detail)
		return
	}

	s.spawn(taskID, r, tools.YtDlp(), args, meta, outputPath)
}

// fetchMetadata runs yt-dlp in dump mode and parses the result
func (s *Service) fetchMetadata(ctx context.Context, binary string, task *model.DownloadTask, settings config.AppSettings) (*ytdlp.VideoMeta, error) {
	args, err := ytdlp.BuildMetadataArgs(task.URL, task.Options, settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()

	res, err := s.runner.Run(ctx, binary, args...)
	if err != nil {
		return nil, &ToolError{Output: string(res.Stderr), Err: err}
	}

	stdout := string(res.Stdout)
	meta, err := ytdlp.ParseTopLevelJSON(stdout)
	if err != nil {
		return nil, &ToolError{Output: string(res.Stderr), Err: err}
	}

	s.sink.Log(task.ID, describeStreams(ytdlp.ParseMetadataDump(strings.Split(stdout, "\n"))))
	return meta, nil
}

// describeStreams summarizes the formats yt-dlp selected for the task log
func describeStreams(dump ytdlp.DumpResult) string {
	switch {
	case dump.NeedsMerging:
		return fmt.Sprintf("Selected %d streams, merging after download", len(dump.StreamURLs))
	case len(dump.StreamURLs) == 1:
		return "Selected a single stream"
	default:
		return "No direct stream URL in metadata"
	}
}

// describeFailure turns an error into a short message and the raw detail kept for developer mode
func describeFailure(err error) (message, detail string) {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		raw := strings.TrimSpace(toolErr.Output)
		if raw == "" {
			raw = toolErr.Err.Error()
		}
		return ytdlp.HumanizeError(raw), raw
	}
	var cfgErr *ytdlp.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error(), err.Error()
	}
	return ytdlp.HumanizeError(err.Error()), err.Error()
}

// resolveOutputPath creates the output folder and picks a free file name from the template
func resolveOutputPath(task *model.DownloadTask, meta *ytdlp.VideoMeta, settings config.AppSettings) (string, error) {
	dir := outputDir(task.Options, settings)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return "", err
	}

	template := task.Options.CustomFilename
	if template == "" {
		template = settings.FilenameTemplate
	}
	named := *meta
	named.Ext = ytdlp.OutputExtension(task.Options, settings)

	return platform.UniqueFilePath(filepath.Join(dir, ytdlp.SanitizeFilename(template, &named)))
}

// spawn starts the download process if the run is still the current attempt
func (s *Service) spawn(taskID string, r *run, binary string, args []string, meta *ytdlp.VideoMeta, outputPath string) {
	s.mu.Lock()
	task := s.tasks[taskID]
	if task == nil || s.runs[taskID] != r || task.Status != model.TaskStatusFetchingInfo {
		s.mu.Unlock()
		return
	}

	if task.Options.SplitChapters && task.Options.AudioNormalization {
		// yt-dlp cannot split and normalize in one pass
		r.chapters = meta.Chapters
	}
	if meta.Title != "" && meta.Title != ytdlp.FallbackTitle {
		task.Title = meta.Title
	}
	task.FilePath = outputPath
	task.OutputDir = filepath.Dir(outputPath)
	task.Command = binary + " " + strings.Join(args, " ")

	proc, err := s.spawner.Spawn(binary, args, process.Handlers{
		OnStdout: func(line string) { s.handleLine(taskID, r, line) },
		OnStderr: func(line string) { s.handleLine(taskID, r, line) },
		OnExit:   func(code int) { s.handleExit(taskID, r, code, nil) },
		OnError:  func(err error) { s.handleExit(taskID, r, -1, err) },
	})
	if err != nil {
		snapshot := s.failLocked(task, r, "Failed to start yt-dlp", err.Error())
		s.mu.Unlock()
		s.reportFailure(snapshot, "Download failed")
		return
	}

	r.proc = proc
	s.supervisor.Register(taskID, proc)
	task.PID = proc.Pid()
	task.Status = model.TaskStatusDownloading
	task.StatusDetail = DetailDownloading
	snapshot := task.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	s.sink.Log(taskID, fmt.Sprintf("Started %s (pid %d)", binary, snapshot.PID))
}

// handleLine applies one output line of the download process
func (s *Service) handleLine(taskID string, r *run, line string) {
	kind := ytdlp.ClassifyLine(line)

	s.mu.Lock()
	task := s.tasks[taskID]
	if task == nil || s.runs[taskID] != r {
		s.mu.Unlock()
		return
	}

	var snapshot *model.DownloadTask
	switch kind {
	case ytdlp.LineProgress, ytdlp.LinePostProcess:
		update, ok := ytdlp.ParseProgress(line)
		if !ok || task.Status != model.TaskStatusDownloading {
			break
		}
		stageChanged := update.Stage != r.stage
		r.stage = update.Stage

		// progress never moves backwards within one attempt
		if update.Percent > task.Progress {
			task.Progress = update.Percent
		}
		task.Speed = update.Speed
		task.ETA = update.ETA
		if update.TotalSize != "" && update.TotalSize != model.UnknownValue {
			task.TotalSize = update.TotalSize
		}
		if update.IsPostProcess() {
			task.StatusDetail = update.Stage.StatusText()
			task.AppendLog(line)
		} else {
			task.StatusDetail = DetailDownloading
		}
		if stageChanged || s.limiterLocked(taskID).Allow() {
			snapshot = task.Clone()
		}
	case ytdlp.LineError:
		// advisory until the process exits
		text := strings.TrimSpace(line)
		r.lastErr = text
		r.remember(text)
		task.LastError = ytdlp.HumanizeError(text)
		task.ErrorDetail = text
		task.AppendLog(text)
		snapshot = task.Clone()
	case ytdlp.LineJSON:
	default:
		r.remember(line)
		task.AppendLog(line)
	}
	s.mu.Unlock()

	if snapshot != nil {
		s.notifyUpdate(snapshot)
	}
	if kind == ytdlp.LineError {
		s.sink.Log(taskID, line)
	}
}

// handleExit settles a task after its download process ended
func (s *Service) handleExit(taskID string, r *run, code int, runErr error) {
	s.mu.Lock()
	r.exited = true
	if r.proc != nil {
		s.supervisor.DeregisterIf(taskID, r.proc)
	}
	task := s.tasks[taskID]
	if task == nil || s.runs[taskID] != r {
		s.mu.Unlock()
		return
	}

	switch {
	case task.Status == model.TaskStatusPaused:
		// died while suspended; the next resume restarts it
		delete(s.runs, taskID)
		r.cancel()
		task.PID = 0
		task.StatusDetail = DetailPausedRestart
		snapshot := task.Clone()
		s.mu.Unlock()
		s.publish(snapshot)
		s.processQueue()
	case runErr == nil && code == 0:
		task.PID = 0
		s.mu.Unlock()
		s.finalize(taskID, r)
	default:
		raw := r.lastErr
		if raw == "" {
			raw = strings.Join(r.tail, "\n")
		}
		message := ytdlp.HumanizeError(raw)
		detail := fmt.Sprintf("exit code %d\n%s", code, strings.Join(r.tail, "\n"))
		if runErr != nil {
			message = "Download process failed"
			detail = runErr.Error()
		}
		snapshot := s.failLocked(task, r, message, strings.TrimSpace(detail))
		s.mu.Unlock()
		s.reportFailure(snapshot, "Download failed")
	}
}

// finalize locates and probes the output, splits chapters when a second pass is
// needed, then marks the task completed
func (s *Service) finalize(taskID string, r *run) {
	task, ok := s.GetTask(taskID)
	if !ok {
		return
	}

	path, err := platform.LocateOutputFile(task.FilePath)
	if err != nil {
		log.Printf("[DOWNLOAD] task %s: %v", taskID, err)
		path = task.FilePath
	}
	info, err := s.probe(path)
	if err != nil {
		log.Printf("[DOWNLOAD] task %s: probe failed: %v", taskID, err)
	}

	if len(r.chapters) > 0 {
		s.setDetail(taskID, r, DetailSplitting)
		outputs, err := s.splitterFor(s.toolchain(r.settings)).Split(r.ctx, path, r.chapters, nil)
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			s.fail(taskID, r, "Chapter split failed", "Splitting chapters failed", err.Error())
			return
		}
		s.sink.Log(taskID, fmt.Sprintf("Split into %d chapters", len(outputs)))
	}

	s.mu.Lock()
	current := s.tasks[taskID]
	if current == nil || s.runs[taskID] != r {
		s.mu.Unlock()
		return
	}
	delete(s.runs, taskID)
	r.cancel()

	current.Status = model.TaskStatusCompleted
	current.StatusDetail = DetailDone
	current.Progress = 100
	current.Speed = model.UnknownValue
	current.ETA = model.UnknownValue
	current.LastError = ""
	current.FilePath = path
	current.FileSize = info.Size
	current.MediaDuration = info.Duration
	current.PID = 0
	current.FinishedAt = time.Now()
	snapshot := current.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	s.sink.Notify(notify.LevelSuccess, "Download complete", snapshot.GetDisplayTitle())
	s.processQueue()
}

// setDetail updates the status detail of the current run
func (s *Service) setDetail(taskID string, r *run, detail string) {
	s.mu.Lock()
	task := s.tasks[taskID]
	if task == nil || s.runs[taskID] != r {
		s.mu.Unlock()
		return
	}
	task.StatusDetail = detail
	snapshot := task.Clone()
	s.mu.Unlock()
	s.notifyUpdate(snapshot)
}

// fail ends the current run of a task in error
func (s *Service) fail(taskID string, r *run, title, message, detail string) {
	s.mu.Lock()
	task := s.tasks[taskID]
	if task == nil || s.runs[taskID] != r {
		s.mu.Unlock()
		return
	}
	snapshot := s.failLocked(task, r, message, detail)
	s.mu.Unlock()
	s.reportFailure(snapshot, title)
}

// failLocked moves a task to error and drops its run. Caller holds mu and has checked r is current.
func (s *Service) failLocked(task *model.DownloadTask, r *run, message, detail string) *model.DownloadTask {
	delete(s.runs, task.ID)
	r.cancel()
	if r.proc != nil {
		s.supervisor.DeregisterIf(task.ID, r.proc)
	}

	task.Status = model.TaskStatusError
	task.StatusDetail = message
	task.LastError = message
	task.ErrorDetail = detail
	task.Speed = model.UnknownValue
	task.ETA = model.UnknownValue
	task.PID = 0
	task.FinishedAt = time.Now()
	task.AppendLog("ERROR: " + message)
	return task.Clone()
}

// reportFailure publishes a failed task, notifies the user and frees its slot
func (s *Service) reportFailure(snapshot *model.DownloadTask, title string) {
	s.publish(snapshot)
	s.sink.Log(snapshot.ID, "Failed: "+snapshot.LastError)
	s.sink.Notify(notify.LevelError, title, snapshot.GetDisplayTitle()+": "+snapshot.LastError)
	s.processQueue()
}
