package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects what a download produces
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
	FormatGIF   Format = "gif"
)

// VideoCodec is the preferred video codec for video downloads
type VideoCodec string

const (
	VideoCodecAuto VideoCodec = "auto"
	VideoCodecH264 VideoCodec = "h264"
	VideoCodecAV1  VideoCodec = "av1"
	VideoCodecVP9  VideoCodec = "vp9"
	VideoCodecHEVC VideoCodec = "hevc"
)

// AudioFormat is the target container for audio extraction
type AudioFormat string

const (
	AudioFormatMP3  AudioFormat = "mp3"
	AudioFormatM4A  AudioFormat = "m4a"
	AudioFormatOpus AudioFormat = "opus"
	AudioFormatFLAC AudioFormat = "flac"
	AudioFormatWAV  AudioFormat = "wav"
	AudioFormatAAC  AudioFormat = "aac"
)

// GifQuality chooses between the palette pipeline and the single-pass filter
type GifQuality string

const (
	GifQualityHigh GifQuality = "high"
	GifQualityFast GifQuality = "fast"
)

// HardwareClass is the encoder family used for hardware accelerated encoding
type HardwareClass string

const (
	HardwareCPU    HardwareClass = "cpu"
	HardwareNvidia HardwareClass = "nvidia"
	HardwareAMD    HardwareClass = "amd"
	HardwareIntel  HardwareClass = "intel"
	HardwareApple  HardwareClass = "apple"
)

// GIF defaults
const (
	DefaultGifFps    = 15
	DefaultGifHeight = 480

	// GifScaleOriginal keeps the source height
	GifScaleOriginal = -1
)

// DownloadOptions is the immutable per-task request snapshot.
// Zero values mean "use the global setting".
type DownloadOptions struct {
	Path       string `json:"path,omitempty"`
	RangeStart string `json:"range_start,omitempty"`
	RangeEnd   string `json:"range_end,omitempty"`

	Format     Format `json:"format,omitempty"`
	Resolution string `json:"resolution,omitempty"` // "best" or a height ("1080", "720p")
	Container  string `json:"container,omitempty"`

	AudioBitrate string      `json:"audio_bitrate,omitempty"`
	AudioFormat  AudioFormat `json:"audio_format,omitempty"`
	VideoCodec   VideoCodec  `json:"video_codec,omitempty"`

	Subtitles      bool   `json:"subtitles,omitempty"`
	SubtitleLang   string `json:"subtitle_lang,omitempty"` // "all", "auto" or a language code
	SubtitleFormat string `json:"subtitle_format,omitempty"`
	EmbedSubtitles bool   `json:"embed_subtitles,omitempty"`

	RemoveSponsors     bool `json:"remove_sponsors,omitempty"`
	LiveFromStart      bool `json:"live_from_start,omitempty"`
	SplitChapters      bool `json:"split_chapters,omitempty"`
	AudioNormalization bool `json:"audio_normalization,omitempty"`

	GifFps     int        `json:"gif_fps,omitempty"`
	GifScale   int        `json:"gif_scale,omitempty"` // 0 = DefaultGifHeight, GifScaleOriginal = source height
	GifQuality GifQuality `json:"gif_quality,omitempty"`

	ForceTranscode bool   `json:"force_transcode,omitempty"`
	CustomFilename string `json:"custom_filename,omitempty"`
	Cookies        string `json:"cookies,omitempty"` // path to a cookies.txt file for this task
	UserAgent      string `json:"user_agent,omitempty"`
}

// IsClip reports whether a start or end boundary was requested
func (o DownloadOptions) IsClip() bool {
	return o.RangeStart != "" || o.RangeEnd != ""
}

// RangeLabel returns a "start-end" descriptor for display, empty when not clipping
func (o DownloadOptions) RangeLabel() string {
	if !o.IsClip() {
		return ""
	}
	start, end := o.RangeStart, o.RangeEnd
	if start == "" {
		start = "0"
	}
	if end == "" {
		end = "end"
	}
	return start + "-" + end
}

// ClipSeconds formats a numeric clip boundary for RangeStart/RangeEnd
func ClipSeconds(seconds float64) string {
	if seconds <= 0 {
		return "0"
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// ParseFormat converts user input into a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatVideo, FormatAudio, FormatGIF:
		return f, nil
	case "":
		return FormatVideo, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// ParseVideoCodec converts user input into a VideoCodec
func ParseVideoCodec(s string) (VideoCodec, error) {
	switch c := VideoCodec(strings.ToLower(strings.TrimSpace(s))); c {
	case VideoCodecAuto, VideoCodecH264, VideoCodecAV1, VideoCodecVP9, VideoCodecHEVC:
		return c, nil
	case "":
		return VideoCodecAuto, nil
	default:
		return "", fmt.Errorf("unknown video codec %q", s)
	}
}

// ParseHardwareClass converts user input into a HardwareClass
func ParseHardwareClass(s string) (HardwareClass, error) {
	switch h := HardwareClass(strings.ToLower(strings.TrimSpace(s))); h {
	case HardwareCPU, HardwareNvidia, HardwareAMD, HardwareIntel, HardwareApple:
		return h, nil
	case "":
		return HardwareCPU, nil
	default:
		return "", fmt.Errorf("unknown hardware class %q", s)
	}
}
