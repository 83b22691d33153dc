package platform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/process"
)

// Binary names
const (
	YtDlpBinary  = "yt-dlp"
	FFmpegBinary = "ffmpeg"
)

// Probe settings
const (
	VersionFlag       = "-version"
	ProbeTimeout      = 10 * time.Second
	EncoderListFlag   = "-encoders"
	HideBannerFlag    = "-hide_banner"
	FFmpegVersionLine = "ffmpeg version"
)

// ErrBinaryNotFound is returned when a required tool is not installed
var ErrBinaryNotFound = errors.New("binary not found")

// encoderClasses maps an H.264 encoder name to its hardware class, in preference order
var encoderClasses = []struct {
	encoder string
	class   model.HardwareClass
}{
	{"h264_nvenc", model.HardwareNvidia},
	{"h264_videotoolbox", model.HardwareApple},
	{"h264_amf", model.HardwareAMD},
	{"h264_qsv", model.HardwareIntel},
}

// Toolchain locates and probes the external binaries
type Toolchain struct {
	runner     process.Runner
	ytdlpPath  string
	ffmpegPath string
	lookPath   func(string) (string, error)
}

// NewToolchain creates a toolchain; empty paths are resolved through PATH
func NewToolchain(runner process.Runner, ytdlpPath, ffmpegPath string) *Toolchain {
	return &Toolchain{
		runner:     runner,
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		lookPath:   exec.LookPath,
	}
}

// YtDlp returns the yt-dlp executable to run
func (t *Toolchain) YtDlp() string {
	if t.ytdlpPath != "" {
		return t.ytdlpPath
	}
	return YtDlpBinary
}

// FFmpeg returns the ffmpeg executable to run
func (t *Toolchain) FFmpeg() string {
	if t.ffmpegPath != "" {
		return t.ffmpegPath
	}
	return FFmpegBinary
}

// CheckFFmpeg verifies ffmpeg exists and answers -version
func (t *Toolchain) CheckFFmpeg(ctx context.Context) error {
	path, err := t.lookPath(t.FFmpeg())
	if err != nil {
		return fmt.Errorf("%s: %w", t.FFmpeg(), ErrBinaryNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	res, err := t.runner.Run(ctx, path, VersionFlag)
	if err != nil {
		return fmt.Errorf("%s -version: %w", path, err)
	}
	if !bytes.Contains(res.Stdout, []byte(FFmpegVersionLine)) {
		return fmt.Errorf("%s does not look like ffmpeg", path)
	}
	return nil
}

// DetectHardwareClass asks ffmpeg which hardware H.264 encoders it was built
// with. Any failure yields HardwareCPU.
func DetectHardwareClass(ctx context.Context, runner process.Runner, ffmpegPath string) model.HardwareClass {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegBinary
	}
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	res, err := runner.Run(ctx, ffmpegPath, HideBannerFlag, EncoderListFlag)
	if err != nil {
		return model.HardwareCPU
	}
	return hardwareClassFromEncoders(string(res.Stdout), runtime.GOOS)
}

// hardwareClassFromEncoders picks a class from `ffmpeg -encoders` output.
// VideoToolbox is only trusted on macOS.
func hardwareClassFromEncoders(output, goos string) model.HardwareClass {
	available := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		// " V....D h264_nvenc           NVIDIA NVENC H.264 encoder"
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 {
			available[fields[1]] = true
		}
	}

	for _, ec := range encoderClasses {
		if !available[ec.encoder] {
			continue
		}
		if ec.class == model.HardwareApple && goos != OSDarwin {
			continue
		}
		return ec.class
	}
	return model.HardwareCPU
}
