package ytdlp

import (
	"strconv"
	"strings"

	"github.com/ytget/mediadl/internal/model"
)

func formatArgs(r *request, a *argList) error {
	switch r.format {
	case model.FormatAudio:
		return audioArgs(r, a)
	case model.FormatGIF:
		return gifArgs(r, a)
	case model.FormatVideo:
		return videoArgs(r, a)
	default:
		return configError("format", string(r.format), "expected video, audio or gif")
	}
}

func audioArgs(r *request, a *argList) error {
	audioFormat := r.opts.AudioFormat
	switch audioFormat {
	case "":
		audioFormat = DefaultAudioFormat
	case model.AudioFormatMP3, model.AudioFormatM4A, model.AudioFormatOpus,
		model.AudioFormatFLAC, model.AudioFormatWAV, model.AudioFormatAAC:
	default:
		return configError("audio format", string(audioFormat), "unsupported")
	}

	a.add(FlagExtractAudio, FlagAudioFormat, string(audioFormat), FlagAudioQuality, AudioQuality(r.opts.AudioBitrate))

	if r.opts.AudioNormalization {
		a.addFFmpeg("-af " + LoudnormFilter)
	}
	return nil
}

// AudioQuality maps a bitrate in kbps to the VBR quality index; unknown values get DefaultAudioQuality
func AudioQuality(bitrate string) string {
	bitrate = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(bitrate)), "k")
	if bitrate == "" {
		bitrate = DefaultAudioBitrate
	}
	if q, ok := audioQualityByBitrate[bitrate]; ok {
		return q
	}
	return DefaultAudioQuality
}

func gifArgs(r *request, a *argList) error {
	quality := r.opts.GifQuality
	switch quality {
	case "":
		quality = model.GifQualityHigh
	case model.GifQualityHigh, model.GifQualityFast:
	default:
		return configError("gif quality", string(quality), "expected high or fast")
	}

	a.add(FlagSortFormats, GifSourceSort)
	filter := GifFilter(r.opts.GifFps, r.opts.GifScale, quality)
	a.add(FlagRecodeVideo, GifRecodeTarget)
	a.add(FlagPostprocessorArgs, PPKeyVideoConvertor+"-vf "+filter+" "+GifLoopForever)
	return nil
}

// GifFilter builds the ffmpeg filter graph for GIF conversion. The scale never
// exceeds the source height.
func GifFilter(fps, scale int, quality model.GifQuality) string {
	if fps <= 0 {
		fps = model.DefaultGifFps
	}
	if scale == 0 {
		scale = model.DefaultGifHeight
	}

	var b strings.Builder
	b.WriteString("fps=")
	b.WriteString(strconv.Itoa(fps))
	if scale > 0 {
		b.WriteString(",scale=-2:'min(")
		b.WriteString(strconv.Itoa(scale))
		b.WriteString(",ih)':flags=lanczos")
	}
	if quality != model.GifQualityFast {
		b.WriteString(GifPaletteSuffix)
	}
	return b.String()
}

func videoArgs(r *request, a *argList) error {
	height, err := heightFilter(resolutionFor(r.opts, r.settings))
	if err != nil {
		return err
	}

	a.add(FlagFormat, FormatSelector(r.codec, height))

	if r.opts.ForceTranscode && r.codec != model.VideoCodecAuto {
		a.add(FlagPostprocessorArgs, PPKeyVideoConvertor+TranscodeArgs(r.codec, r.hw, r.opts.AudioNormalization))
	}

	a.add(FlagMergeOutputFormat, containerFor(r.opts, r.settings))

	if r.opts.AudioNormalization {
		a.addFFmpeg("-af " + LoudnormFilter)
	}
	return nil
}

// heightFilter turns "best", "1080" or "1080p" into a format filter
func heightFilter(resolution string) (string, error) {
	res := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(resolution)), "p")
	if res == "" || res == ResolutionBest {
		return "", nil
	}
	if _, err := strconv.Atoi(res); err != nil {
		return "", configError("resolution", resolution, "expected best or a height")
	}
	return "[height<=" + res + "]", nil
}

// FormatSelector returns the -f expression for a codec preference. Every chain ends in a
// plain best-quality fallback so a missing codec never fails the download.
func FormatSelector(codec model.VideoCodec, h string) string {
	switch codec {
	case model.VideoCodecH264:
		return "bestvideo" + h + "[vcodec^=avc]+bestaudio[ext=m4a]/best" + h + "[ext=mp4]/best" + h
	case model.VideoCodecAV1:
		return "bestvideo" + h + "[vcodec^=av01]+bestaudio/bestvideo" + h + "[vcodec^=vp9]+bestaudio/bestvideo" + h + "+bestaudio/best" + h
	case model.VideoCodecVP9:
		return "bestvideo" + h + "[vcodec^=vp9]+bestaudio/bestvideo" + h + "+bestaudio/best" + h
	case model.VideoCodecHEVC:
		return "bestvideo" + h + "[vcodec^=hevc]+bestaudio/bestvideo" + h + "[vcodec^=hev1]+bestaudio/bestvideo" + h + "[vcodec^=hvc1]+bestaudio/bestvideo" + h + "+bestaudio/best" + h
	default:
		return "bestvideo" + h + "+bestaudio/best" + h
	}
}

// TranscodeArgs returns the VideoConvertor arguments that force the requested codec
func TranscodeArgs(codec model.VideoCodec, hw model.HardwareClass, normalize bool) string {
	switch codec {
	case model.VideoCodecH264:
		return h264Transcode(hw) + " " + aacOrCopy(normalize)
	case model.VideoCodecHEVC:
		return hevcTranscode(hw) + " " + aacOrCopy(normalize)
	case model.VideoCodecAV1:
		// No hardware AV1 encoder is assumed to be present
		return "-c:v libsvtav1 -crf 30 -preset 8 " + opusOrCopy(normalize)
	case model.VideoCodecVP9:
		return "-c:v libvpx-vp9 -crf 30 -b:v 0 " + opusOrCopy(normalize)
	default:
		return ""
	}
}

func h264Transcode(hw model.HardwareClass) string {
	switch hw {
	case model.HardwareNvidia:
		return "-c:v h264_nvenc -rc:v vbr -cq:v 19 -preset p4"
	case model.HardwareAMD:
		return "-c:v h264_amf -rc cqp -qp_i 22 -qp_p 22"
	case model.HardwareIntel:
		return "-c:v h264_qsv -global_quality 20"
	case model.HardwareApple:
		return "-c:v h264_videotoolbox -q:v 65"
	default:
		return "-c:v libx264 -crf 23 -preset medium"
	}
}

func hevcTranscode(hw model.HardwareClass) string {
	switch hw {
	case model.HardwareNvidia:
		return "-c:v hevc_nvenc -rc:v vbr -cq:v 26 -preset p4"
	case model.HardwareAMD:
		return "-c:v hevc_amf -rc cqp -qp_i 26 -qp_p 26"
	case model.HardwareIntel:
		return "-c:v hevc_qsv -global_quality 26"
	case model.HardwareApple:
		return "-c:v hevc_videotoolbox -q:v 60"
	default:
		return "-c:v libx265 -crf 26 -preset medium"
	}
}

func aacOrCopy(normalize bool) string {
	if normalize {
		return AudioAAC192
	}
	return AudioCopy
}

func opusOrCopy(normalize bool) string {
	if normalize {
		return AudioOpus128
	}
	return AudioCopy
}
