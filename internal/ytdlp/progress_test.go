package ytdlp

import (
	"testing"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		ok      bool
		percent float64
		speed   string
		eta     string
		size    string
		stage   PostProcessStage
	}{
		{
			name:    "full line",
			line:    "[download]  45.3% of ~120.50MiB at  2.31MiB/s ETA 00:28",
			ok:      true,
			percent: 45.3,
			speed:   "2.31MiB/s",
			eta:     "00:28",
			size:    "~120.50MiB",
		},
		{
			name:    "percent only",
			line:    "[download] 100%",
			ok:      true,
			percent: 100,
			speed:   "-",
			eta:     "-",
		},
		{
			name: "destination line",
			line: "[download] Destination: video.mp4",
		},
		{
			name:    "merger",
			line:    `[Merger] Merging formats into "video.mp4"`,
			ok:      true,
			percent: 99,
			speed:   "-",
			eta:     "-",
			stage:   StageMerger,
		},
		{
			name:    "fixup",
			line:    "[FixupM3u8] Fixing MPEG-TS in MP4 container",
			ok:      true,
			percent: 99,
			speed:   "-",
			eta:     "-",
			stage:   StageFixup,
		},
		{
			name: "unrelated",
			line: "[youtube] abc: Downloading webpage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgress(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseProgress() ok = %v, expected %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Percent != tt.percent {
				t.Errorf("Percent = %v, expected %v", got.Percent, tt.percent)
			}
			if got.Speed != tt.speed {
				t.Errorf("Speed = %q, expected %q", got.Speed, tt.speed)
			}
			if got.ETA != tt.eta {
				t.Errorf("ETA = %q, expected %q", got.ETA, tt.eta)
			}
			if got.TotalSize != tt.size {
				t.Errorf("TotalSize = %q, expected %q", got.TotalSize, tt.size)
			}
			if got.Stage != tt.stage {
				t.Errorf("Stage = %q, expected %q", got.Stage, tt.stage)
			}
		})
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line     string
		expected LineKind
	}{
		{"[download]  12.0% of 10MiB at 1MiB/s ETA 00:09", LineProgress},
		{"[download] Destination: a.mp4", LineUnrecognized},
		{"[ExtractAudio] Destination: a.mp3", LinePostProcess},
		{`{"id":"x"}`, LineJSON},
		{"ERROR: [youtube] x: Video unavailable", LineError},
		{"Traceback (most recent call last):", LineError},
		{"[download] ERROR: unable to download", LineError},
		{"  ERROR: indented", LineError},
		{"[download] Destination: ERROR: title.mp4", LineUnrecognized},
		{`[Merger] Merging formats into "Traceback ERROR: x.mp4"`, LinePostProcess},
		{"", LineUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			if got := ClassifyLine(tt.line); got != tt.expected {
				t.Errorf("ClassifyLine(%q) = %v, expected %v", tt.line, got, tt.expected)
			}
		})
	}
}
