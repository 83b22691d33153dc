package config

import (
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       AppSettings
		check    func(AppSettings) bool
		describe string
	}{
		{
			name:     "empty settings get defaults",
			in:       AppSettings{},
			check:    func(a AppSettings) bool { return a.FilenameTemplate == DefaultFilenameTemplate && a.Container == DefaultContainer && a.Resolution == DefaultResolution },
			describe: "template/container/resolution defaults",
		},
		{
			name:     "parallel clamped low",
			in:       AppSettings{ConcurrentDownloads: -4},
			check:    func(a AppSettings) bool { return a.ConcurrentDownloads == MinParallel },
			describe: "ConcurrentDownloads == 1",
		},
		{
			name:     "parallel clamped high",
			in:       AppSettings{ConcurrentDownloads: 99},
			check:    func(a AppSettings) bool { return a.ConcurrentDownloads == MaxParallel },
			describe: "ConcurrentDownloads == 10",
		},
		{
			name:     "zero fragments default",
			in:       AppSettings{},
			check:    func(a AppSettings) bool { return a.ConcurrentFragments == DefaultConcurrentFragments },
			describe: "ConcurrentFragments == 4",
		},
		{
			name:     "negative fragments clamp to one",
			in:       AppSettings{ConcurrentFragments: -2},
			check:    func(a AppSettings) bool { return a.ConcurrentFragments == MinFragments },
			describe: "ConcurrentFragments == 1",
		},
		{
			name:     "blank sponsor segments dropped",
			in:       AppSettings{SponsorSegments: []string{"", "  ", "sponsor"}},
			check:    func(a AppSettings) bool { return len(a.SponsorSegments) == 1 && a.SponsorSegments[0] == "sponsor" },
			describe: "SponsorSegments == [sponsor]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if !tt.check(got) {
				t.Errorf("Normalize() = %+v, expected %s", got, tt.describe)
			}
		})
	}
}

func TestStaticSnapshot(t *testing.T) {
	src := Static{Values: AppSettings{ConcurrentDownloads: 3, Proxy: "http://p"}}
	snap := src.Snapshot()
	if snap.ConcurrentDownloads != 3 || snap.Proxy != "http://p" {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvYtDlpPath, "/env/yt-dlp")
	t.Setenv(EnvFFmpegPath, "/env/ffmpeg")
	t.Setenv(EnvDeveloperMode, "true")
	t.Setenv(EnvProxy, " http://proxy:8080 ")

	got := ApplyEnv(DefaultAppSettings())

	if got.BinaryPathYtDlp != "/env/yt-dlp" || got.BinaryPathFFmpeg != "/env/ffmpeg" {
		t.Errorf("binary paths = %q/%q", got.BinaryPathYtDlp, got.BinaryPathFFmpeg)
	}
	if !got.DeveloperMode {
		t.Error("DeveloperMode should be enabled from env")
	}
	if got.Proxy != "http://proxy:8080" {
		t.Errorf("Proxy = %q", got.Proxy)
	}
}

func TestApplyEnvIgnoresInvalidBool(t *testing.T) {
	t.Setenv(EnvDeveloperMode, "maybe")
	base := DefaultAppSettings()
	base.DeveloperMode = true

	if got := ApplyEnv(base); !got.DeveloperMode {
		t.Error("invalid bool should leave DeveloperMode unchanged")
	}
}

func TestDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("DataDir() = %q, expected %q", got, dir)
	}

	t.Setenv(EnvDataDir, "")
	got, err = DataDir()
	if err == nil && filepath.Base(got) != DataDirName {
		t.Errorf("DataDir() = %q, expected suffix %q", got, DataDirName)
	}
}
