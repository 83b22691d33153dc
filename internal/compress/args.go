package compress

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ytget/mediadl/internal/model"
)

// FFmpeg constants for compression settings
const (
	// Video encoders
	EncoderX264  = "libx264"
	EncoderNVENC = "h264_nvenc"
	EncoderAMF   = "h264_amf"
	EncoderQSV   = "h264_qsv"

	// NVENC presets, "fast" trades quality for speed
	NVENCPresetQuality = "p7"
	NVENCPresetFast    = "p4"
	SpeedPresetFast    = "fast"

	DefaultSpeedPreset = "medium"
	DefaultCRF         = 23

	// Audio codec settings
	AudioCodec           = "aac"
	AudioCopy            = "copy"
	AudioBitrate         = "128k"
	AudioBitrateWhatsApp = "96k"

	// Container flags
	FastStartFlag = "+faststart"

	// Output naming
	CompressedSuffix   = "_compress"
	OutputExtensionMP4 = ".mp4"

	// Executable and I/O constants
	FFmpegCommand      = "ffmpeg"
	ProgressPipeTarget = "pipe:2"
	ProgressTimePrefix = "out_time_us="
	TaskIDPrefix       = "compress-"
)

// MediaKind selects the compression branch for an input file
type MediaKind int

const (
	KindVideo MediaKind = iota
	KindAudio
	KindImage
)

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".aac": true, ".opus": true, ".ogg": true,
	".flac": true, ".wav": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true,
}

// videoContainers can hold H.264 and keep their extension after compression
var videoContainers = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".mkv": true,
}

// presetDefaults fill CRF and height when the options leave them empty
var presetDefaults = map[model.CompressionPreset]struct {
	crf    int
	height int
}{
	model.PresetBalanced: {crf: 23},
	model.PresetSocial:   {crf: 26, height: 720},
	model.PresetArchive:  {crf: 18},
	model.PresetWhatsApp: {crf: 28, height: 480},
	model.PresetCustom:   {crf: DefaultCRF},
}

// KindOf classifies path by extension. Unknown extensions are treated as video.
func KindOf(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case audioExtensions[ext]:
		return KindAudio
	case imageExtensions[ext]:
		return KindImage
	default:
		return KindVideo
	}
}

// OutputPath returns "<base>_compress.<ext>" next to the input. Video inputs in
// containers that cannot hold H.264 get an .mp4 extension.
func OutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	if KindOf(inputPath) == KindVideo && !videoContainers[strings.ToLower(ext)] {
		ext = OutputExtensionMP4
	}
	return base + CompressedSuffix + ext
}

// ResolveEncoder maps the requested encoder and detected hardware to a concrete encoder family
func ResolveEncoder(requested model.CompressionEncoder, hw model.HardwareClass) (model.CompressionEncoder, error) {
	switch requested {
	case model.EncoderCPU, model.EncoderNVENC, model.EncoderAMF, model.EncoderQSV:
		return requested, nil
	case model.EncoderAuto, "":
	default:
		return "", fmt.Errorf("unknown encoder %q", requested)
	}

	switch hw {
	case model.HardwareNvidia:
		return model.EncoderNVENC, nil
	case model.HardwareAMD:
		return model.EncoderAMF, nil
	case model.HardwareIntel:
		return model.EncoderQSV, nil
	case model.HardwareCPU, model.HardwareApple, "":
		return model.EncoderCPU, nil
	default:
		return "", fmt.Errorf("unknown hardware class %q", hw)
	}
}

// BuildCompressionArgs builds the ffmpeg command arguments for a compression job
func BuildCompressionArgs(inputPath, outputPath string, opts model.CompressionOptions, hw model.HardwareClass) ([]string, error) {
	opts, err := withPresetDefaults(opts)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner",
		"-i", inputPath,
	}

	switch KindOf(inputPath) {
	case KindAudio:
		args = append(args, "-vn", "-b:a", audioBitrate(opts))
	case KindImage:
		if opts.Height > 0 {
			args = append(args, "-vf", scaleFilter(opts.Height))
		}
	case KindVideo:
		encoder, err := ResolveEncoder(opts.Encoder, hw)
		if err != nil {
			return nil, err
		}
		args = append(args, videoEncoderArgs(encoder, opts)...)
		if opts.Height > 0 {
			args = append(args, "-vf", scaleFilter(opts.Height))
		}
		args = append(args, videoAudioArgs(opts)...)
		args = append(args, "-movflags", FastStartFlag)
	}

	args = append(args,
		"-progress", ProgressPipeTarget, // progress key=value pairs on stderr
		"-nostats",
		"-y",
		outputPath,
	)
	return args, nil
}

func withPresetDefaults(opts model.CompressionOptions) (model.CompressionOptions, error) {
	if opts.Preset == "" {
		opts.Preset = model.PresetBalanced
	}
	defaults, ok := presetDefaults[opts.Preset]
	if !ok {
		return opts, fmt.Errorf("unknown compression preset %q", opts.Preset)
	}
	if opts.CRF <= 0 {
		opts.CRF = defaults.crf
	}
	if opts.Height <= 0 {
		opts.Height = defaults.height
	}
	if opts.SpeedPreset == "" {
		opts.SpeedPreset = DefaultSpeedPreset
	}
	return opts, nil
}

func videoEncoderArgs(encoder model.CompressionEncoder, opts model.CompressionOptions) []string {
	crf := strconv.Itoa(opts.CRF)
	switch encoder {
	case model.EncoderNVENC:
		preset := NVENCPresetQuality
		if opts.SpeedPreset == SpeedPresetFast {
			preset = NVENCPresetFast
		}
		return []string{"-c:v", EncoderNVENC, "-cq", crf, "-preset", preset}
	case model.EncoderAMF:
		return []string{"-c:v", EncoderAMF, "-rc", "cqp", "-qp_i", crf, "-qp_p", crf}
	case model.EncoderQSV:
		return []string{"-c:v", EncoderQSV, "-global_quality", crf}
	default:
		return []string{"-c:v", EncoderX264, "-crf", crf, "-preset", opts.SpeedPreset}
	}
}

func videoAudioArgs(opts model.CompressionOptions) []string {
	switch opts.Preset {
	case model.PresetArchive:
		return []string{"-c:a", AudioCopy}
	case model.PresetWhatsApp:
		return []string{"-c:a", AudioCodec, "-b:a", AudioBitrateWhatsApp}
	default:
		return []string{"-c:a", AudioCodec, "-b:a", audioBitrate(opts)}
	}
}

func audioBitrate(opts model.CompressionOptions) string {
	if opts.AudioBitrate == "" {
		return AudioBitrate
	}
	if _, err := strconv.Atoi(opts.AudioBitrate); err == nil {
		return opts.AudioBitrate + "k"
	}
	return opts.AudioBitrate
}

func scaleFilter(height int) string {
	return fmt.Sprintf("scale=-2:%d", height)
}
