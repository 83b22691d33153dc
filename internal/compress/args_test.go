package compress

import (
	"strings"
	"testing"

	"github.com/ytget/mediadl/internal/model"
)

func valueAfter(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/to/video.mp4", "/path/to/video_compress.mp4"},
		{"/path/to/video.mkv", "/path/to/video_compress.mkv"},
		{"/path/to/video.webm", "/path/to/video_compress.mp4"},
		{"song.mp3", "song_compress.mp3"},
		{"photo.PNG", "photo_compress.PNG"},
		{"/no/ext/file", "/no/ext/file_compress.mp4"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.input); got != tt.expected {
			t.Errorf("OutputPath(%s) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}

func TestBuildCompressionArgs_Video(t *testing.T) {
	tests := []struct {
		name     string
		opts     model.CompressionOptions
		hw       model.HardwareClass
		encoder  string
		expected map[string]string
	}{
		{
			name:     "cpu defaults",
			opts:     model.CompressionOptions{},
			hw:       model.HardwareCPU,
			encoder:  EncoderX264,
			expected: map[string]string{"-crf": "23", "-preset": "medium", "-c:a": "aac", "-b:a": "128k"},
		},
		{
			name:     "nvenc quality",
			opts:     model.CompressionOptions{Encoder: model.EncoderNVENC, CRF: 30, SpeedPreset: "slow"},
			hw:       model.HardwareCPU,
			encoder:  EncoderNVENC,
			expected: map[string]string{"-cq": "30", "-preset": NVENCPresetQuality},
		},
		{
			name:     "nvenc fast",
			opts:     model.CompressionOptions{Encoder: model.EncoderNVENC, SpeedPreset: SpeedPresetFast},
			hw:       model.HardwareCPU,
			encoder:  EncoderNVENC,
			expected: map[string]string{"-preset": NVENCPresetFast},
		},
		{
			name:     "auto picks amf",
			opts:     model.CompressionOptions{Encoder: model.EncoderAuto, CRF: 22},
			hw:       model.HardwareAMD,
			encoder:  EncoderAMF,
			expected: map[string]string{"-rc": "cqp", "-qp_i": "22", "-qp_p": "22"},
		},
		{
			name:     "auto picks qsv",
			opts:     model.CompressionOptions{CRF: 20},
			hw:       model.HardwareIntel,
			encoder:  EncoderQSV,
			expected: map[string]string{"-global_quality": "20"},
		},
		{
			name:     "archive copies audio",
			opts:     model.CompressionOptions{Preset: model.PresetArchive},
			hw:       model.HardwareCPU,
			encoder:  EncoderX264,
			expected: map[string]string{"-crf": "18", "-c:a": "copy"},
		},
		{
			name:     "whatsapp",
			opts:     model.CompressionOptions{Preset: model.PresetWhatsApp},
			hw:       model.HardwareApple,
			encoder:  EncoderX264,
			expected: map[string]string{"-b:a": "96k", "-vf": "scale=-2:480"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := BuildCompressionArgs("/in.mp4", "/out.mp4", tt.opts, tt.hw)
			if err != nil {
				t.Fatalf("BuildCompressionArgs() error = %v", err)
			}
			if got, _ := valueAfter(args, "-c:v"); got != tt.encoder {
				t.Errorf("-c:v = %q, expected %q", got, tt.encoder)
			}
			for flag, want := range tt.expected {
				if got, ok := valueAfter(args, flag); !ok || got != want {
					t.Errorf("%s = %q, expected %q", flag, got, want)
				}
			}
		})
	}
}

func TestBuildCompressionArgs_Layout(t *testing.T) {
	args, err := BuildCompressionArgs("/in.mov", "/out.mov", model.CompressionOptions{Height: 720}, model.HardwareCPU)
	if err != nil {
		t.Fatal(err)
	}
	if args[0] != "-hide_banner" || args[1] != "-i" || args[2] != "/in.mov" {
		t.Errorf("args start = %v", args[:3])
	}
	tail := strings.Join(args[len(args)-7:], " ")
	expected := "-movflags +faststart -progress pipe:2 -nostats -y /out.mov"
	if tail != expected {
		t.Errorf("args tail = %q, expected %q", tail, expected)
	}
	if got, _ := valueAfter(args, "-vf"); got != "scale=-2:720" {
		t.Errorf("-vf = %q, expected scale=-2:720", got)
	}
}

func TestBuildCompressionArgs_Audio(t *testing.T) {
	args, err := BuildCompressionArgs("/song.flac", "/song_compress.flac", model.CompressionOptions{AudioBitrate: "192"}, model.HardwareNvidia)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := valueAfter(args, "-c:v"); ok {
		t.Error("audio compression must not select a video encoder")
	}
	if got, _ := valueAfter(args, "-b:a"); got != "192k" {
		t.Errorf("-b:a = %q, expected 192k", got)
	}
	if !strings.Contains(strings.Join(args, " "), "-vn") {
		t.Error("expected -vn for audio")
	}
}

func TestBuildCompressionArgs_Image(t *testing.T) {
	args, err := BuildCompressionArgs("/a.jpg", "/b.jpg", model.CompressionOptions{Preset: model.PresetSocial}, model.HardwareCPU)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := valueAfter(args, "-vf"); got != "scale=-2:720" {
		t.Errorf("-vf = %q, expected scale=-2:720", got)
	}
	if _, ok := valueAfter(args, "-movflags"); ok {
		t.Error("images must not get -movflags")
	}
}

func TestBuildCompressionArgs_Invalid(t *testing.T) {
	if _, err := BuildCompressionArgs("/a.mp4", "/b.mp4", model.CompressionOptions{Preset: "turbo"}, model.HardwareCPU); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := BuildCompressionArgs("/a.mp4", "/b.mp4", model.CompressionOptions{Encoder: "vaapi"}, model.HardwareCPU); err == nil {
		t.Error("expected error for unknown encoder")
	}
	if _, err := BuildCompressionArgs("/a.mp4", "/b.mp4", model.CompressionOptions{}, "tpu"); err == nil {
		t.Error("expected error for unknown hardware class")
	}
}
