package main

import (
	"io"
	"testing"

	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/model"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"-format", "audio", "-audio-format", "MP3", "-start", " 10 ", "-j", "3", "-split-chapters", "https://a", "https://b"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if len(f.args) != 2 {
		t.Errorf("args = %v, expected 2 URLs", f.args)
	}

	opts, err := f.downloadOptions()
	if err != nil {
		t.Fatalf("downloadOptions() error = %v", err)
	}
	if opts.Format != model.FormatAudio || opts.AudioFormat != model.AudioFormatMP3 {
		t.Errorf("format = %s/%s", opts.Format, opts.AudioFormat)
	}
	if opts.RangeStart != "10" || !opts.IsClip() {
		t.Errorf("RangeStart = %q", opts.RangeStart)
	}
	if !opts.SplitChapters {
		t.Error("SplitChapters not set")
	}

	settings := f.overrides(config.DefaultAppSettings())
	if settings.ConcurrentDownloads != 3 {
		t.Errorf("ConcurrentDownloads = %d, expected 3", settings.ConcurrentDownloads)
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	f, err := parseFlags([]string{"-format", "hologram", "https://a"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if _, err := f.downloadOptions(); err == nil {
		t.Error("downloadOptions() accepted an unknown format")
	}

	if _, err := parseFlags([]string{"-no-such-flag"}, io.Discard); err == nil {
		t.Error("parseFlags() accepted an unknown flag")
	}
}

func TestOverlaySource(t *testing.T) {
	t.Setenv(config.EnvFFmpegPath, "/opt/ffmpeg")
	src := overlaySource{
		base: config.Static{Values: config.DefaultAppSettings()},
		apply: func(a config.AppSettings) config.AppSettings {
			a.ConcurrentDownloads = 99
			return a
		},
	}

	snap := src.Snapshot()
	if snap.BinaryPathFFmpeg != "/opt/ffmpeg" {
		t.Errorf("BinaryPathFFmpeg = %q, expected env override", snap.BinaryPathFFmpeg)
	}
	if snap.ConcurrentDownloads != config.MaxParallel {
		t.Errorf("ConcurrentDownloads = %d, expected clamp to %d", snap.ConcurrentDownloads, config.MaxParallel)
	}
}
