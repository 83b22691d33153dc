package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"

	"github.com/ytget/mediadl/internal/compress"
	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/download"
	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/notify"
	"github.com/ytget/mediadl/internal/platform"
	"github.com/ytget/mediadl/internal/process"
	"github.com/ytget/mediadl/internal/store"
	"github.com/ytget/mediadl/internal/ytdlp"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.mediadl"
	AppName = "mediadl"

	// PollInterval is how often the CLI checks whether all tasks finished
	PollInterval = 500 * time.Millisecond
)

// overlaySource applies environment and flag overrides on every snapshot
type overlaySource struct {
	base  download.SettingsSource
	apply func(config.AppSettings) config.AppSettings
}

func (o overlaySource) Snapshot() config.AppSettings {
	return o.apply(config.ApplyEnv(o.base.Snapshot())).Normalize()
}

func main() {
	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if flags.showVersion {
		fmt.Printf("%s v%s\n", AppName, version)
		return
	}
	if len(flags.args) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no URL or file given, see -h\n", AppName)
		os.Exit(2)
	}

	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags *cliFlags) error {
	var base download.SettingsSource = config.Static{Values: config.DefaultAppSettings()}
	var sink notify.Sink = notify.NewConsole(os.Stdout, flags.verbose)
	if flags.desktop {
		fyneApp := app.NewWithID(AppID)
		base = config.NewSettings(fyneApp)
		sink = notify.Multi{sink, notify.NewDesktop(fyneApp)}
	}
	settings := overlaySource{base: base, apply: flags.overrides}
	snapshot := settings.Snapshot()

	if snapshot.DeveloperMode {
		ytdlp.SetDebugOutput(os.Stderr)
	}
	log.Printf("[MAIN] %s v%s starting", AppName, version)

	runner := process.NewExecRunner()
	spawner := process.NewExecSpawner()
	supervisor := process.NewSupervisor(nil)

	if flags.compress {
		return compressFiles(ctx, flags, snapshot, runner, spawner, supervisor, sink)
	}

	opts, err := flags.downloadOptions()
	if err != nil {
		return err
	}

	deps := download.Dependencies{
		Settings:   settings,
		Spawner:    spawner,
		Runner:     runner,
		Supervisor: supervisor,
		Sink:       sink,
		Playlists: platform.NewPlaylistParserService(
			platform.LibraryLister{},
			platform.FlatPlaylistLister{Runner: runner, BinaryPath: snapshot.BinaryPathYtDlp},
		),
	}
	if !flags.noHistory {
		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}
		db, err := store.Open(dataDir)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.Store = db
	}

	svc := download.NewService(deps)
	defer svc.Close()

	if _, err := svc.Restore(); err != nil {
		log.Printf("[MAIN] %v", err)
	}
	svc.PruneHistory(snapshot.HistoryRetentionDays, snapshot.MaxHistoryItems)

	var ids []string
	for _, url := range flags.args {
		if flags.playlist || platform.IsPlaylistURL(url) {
			tasks, err := svc.AddPlaylist(ctx, url, opts)
			if err != nil {
				sink.Notify(notify.LevelError, "Playlist failed", fmt.Sprintf("%s: %v", url, err))
				continue
			}
			for _, t := range tasks {
				ids = append(ids, t.ID)
			}
			continue
		}

		task, err := svc.AddTask(url, opts)
		if err != nil {
			sink.Notify(notify.LevelWarning, "Not queued", fmt.Sprintf("%s: %v", url, err))
			continue
		}
		ids = append(ids, task.ID)
	}

	if err := waitDownloads(ctx, svc); err != nil {
		return err
	}
	return summarize(svc, ids)
}

// taskQueue is the part of the download service waitDownloads polls
type taskQueue interface {
	GetAllTasks() []*model.DownloadTask
	StopAll()
}

// waitDownloads blocks until no task is queued or running. Cancelling ctx stops
// every task and returns the context error.
func waitDownloads(ctx context.Context, q taskQueue) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		busy := false
		for _, t := range q.GetAllTasks() {
			if t.Status == model.TaskStatusPending || t.Status.IsActive() {
				busy = true
				break
			}
		}
		if !busy {
			return nil
		}

		select {
		case <-ctx.Done():
			log.Printf("[MAIN] interrupted, stopping all tasks")
			q.StopAll()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// summarize reports the tasks of this run and fails when any of them failed
func summarize(svc *download.Service, ids []string) error {
	failed := 0
	for _, id := range ids {
		task, ok := svc.GetTask(id)
		if !ok {
			continue
		}
		switch task.Status {
		case model.TaskStatusCompleted:
			fmt.Printf("%s -> %s\n", task.GetDisplayTitle(), task.FilePath)
		case model.TaskStatusError:
			failed++
			fmt.Printf("%s failed: %s\n", task.GetDisplayTitle(), task.LastError)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}

// compressFiles runs one compression job per file and waits for all of them
func compressFiles(ctx context.Context, flags *cliFlags, settings config.AppSettings, runner process.Runner, spawner process.Spawner, supervisor *process.Supervisor, sink notify.Sink) error {
	tools := platform.NewToolchain(runner, settings.BinaryPathYtDlp, settings.BinaryPathFFmpeg)
	if err := tools.CheckFFmpeg(ctx); err != nil {
		return fmt.Errorf("%w: %v", download.ErrFFmpegMissing, err)
	}

	hw := model.HardwareCPU
	if settings.HardwareDecoding {
		hw = platform.DetectHardwareClass(ctx, runner, tools.FFmpeg())
	}

	svc := compress.NewService(spawner, supervisor, tools.FFmpeg(), hw)
	opts := model.CompressionOptions{Preset: model.CompressionPreset(flags.preset)}

	var ids []string
	for _, path := range flags.args {
		task, err := svc.StartCompression(path, opts)
		if err != nil {
			sink.Notify(notify.LevelError, "Compression failed", fmt.Sprintf("%s: %v", path, err))
			continue
		}
		sink.Log(task.ID, "Compressing "+path+" -> "+task.OutputPath)
		ids = append(ids, task.ID)
	}

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for pending := len(ids); pending > 0; {
		select {
		case <-ctx.Done():
			for _, id := range ids {
				_ = svc.StopCompression(id)
			}
			return ctx.Err()
		case <-ticker.C:
		}
		pending = 0
		for _, id := range ids {
			if task, ok := svc.GetTask(id); ok && !task.Status.IsFinished() {
				pending++
			}
		}
	}

	failed := 0
	for _, id := range ids {
		task, _ := svc.GetTask(id)
		if task.Status == model.TaskStatusCompleted {
			sink.Notify(notify.LevelSuccess, "Compression complete", task.OutputPath)
			continue
		}
		failed++
		sink.Notify(notify.LevelError, "Compression failed", task.InputPath+": "+task.LastError)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d compressions failed", failed, len(ids))
	}
	return nil
}
