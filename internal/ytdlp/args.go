package ytdlp

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/model"
)

// timestampDisallowed matches everything that may not appear in a clip boundary
var timestampDisallowed = regexp.MustCompile(`[^0-9:.]`)

// request holds the resolved inputs shared by every build step
type request struct {
	url        string
	opts       model.DownloadOptions
	settings   config.AppSettings
	outputPath string

	format model.Format
	codec  model.VideoCodec
	hw     model.HardwareClass // effective class after the user preference
	clip   bool
}

// argList accumulates the command line plus the consolidated ffmpeg post-processor arguments
type argList struct {
	args   []string
	ffmpeg []string
}

func (a *argList) add(args ...string) {
	a.args = append(a.args, args...)
}

func (a *argList) addFFmpeg(parts ...string) {
	a.ffmpeg = append(a.ffmpeg, parts...)
}

func (a *argList) ffmpegSetsAudioCodec() bool {
	for _, p := range a.ffmpeg {
		if strings.Contains(p, "-c:a ") {
			return true
		}
	}
	return false
}

type buildStep func(r *request, a *argList) error

// downloadSteps run in order; later yt-dlp flags may override earlier ones
var downloadSteps = []buildStep{
	baselineArgs,
	formatArgs,
	clipArgs,
	hardwareArgs,
	ffmpegPostprocessorArgs,
	subtitleArgs,
	sponsorBlockArgs,
	liveArgs,
	chapterArgs,
	networkArgs,
	embedArgs,
}

// BuildDownloadArgs returns the yt-dlp argument vector for one download.
// The URL is always the last element, preceded by "--".
func BuildDownloadArgs(url string, opts model.DownloadOptions, settings config.AppSettings, outputPath string, detected model.HardwareClass) ([]string, error) {
	r, err := newRequest(url, opts, settings, outputPath, detected)
	if err != nil {
		return nil, err
	}

	a := &argList{}
	for _, step := range downloadSteps {
		if err := step(r, a); err != nil {
			return nil, err
		}
	}
	a.add(Terminator, r.url)
	return a.args, nil
}

// BuildMetadataArgs returns the arguments for the metadata-dump invocation
func BuildMetadataArgs(url string, opts model.DownloadOptions, settings config.AppSettings) ([]string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, configError("url", "", "must not be empty")
	}

	r := &request{url: url, opts: opts, settings: settings}
	a := &argList{}
	a.add(FlagDumpJSON, FlagNoPlaylist, FlagNoWarnings, FlagEncoding, EncodingUTF8, FlagSocketTimeout, SocketTimeoutSeconds)
	if err := networkArgs(r, a); err != nil {
		return nil, err
	}
	a.add(Terminator, r.url)
	return a.args, nil
}

func newRequest(url string, opts model.DownloadOptions, settings config.AppSettings, outputPath string, detected model.HardwareClass) (*request, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, configError("url", "", "must not be empty")
	}
	if strings.TrimSpace(outputPath) == "" {
		return nil, configError("output path", "", "must not be empty")
	}

	format := opts.Format
	switch format {
	case "":
		format = model.FormatVideo
	case model.FormatVideo, model.FormatAudio, model.FormatGIF:
	default:
		return nil, configError("format", string(format), "expected video, audio or gif")
	}

	codec := opts.VideoCodec
	switch codec {
	case "":
		codec = model.VideoCodecAuto
	case model.VideoCodecAuto, model.VideoCodecH264, model.VideoCodecAV1, model.VideoCodecVP9, model.VideoCodecHEVC:
	default:
		return nil, configError("video codec", string(codec), "expected auto, h264, av1, vp9 or hevc")
	}

	hw, err := ResolveHardwareClass(settings.HardwareDecoding, detected)
	if err != nil {
		return nil, err
	}

	return &request{
		url:        url,
		opts:       opts,
		settings:   settings,
		outputPath: outputPath,
		format:     format,
		codec:      codec,
		hw:         hw,
		clip:       opts.IsClip(),
	}, nil
}

func baselineArgs(r *request, a *argList) error {
	fragments := r.settings.ConcurrentFragments
	if fragments == 0 {
		fragments = DefaultFragments
	}
	fragments = max(1, fragments)
	// Single fragment stream avoids locked .part files while cutting
	if r.clip || r.format == model.FormatGIF {
		fragments = 1
	}

	a.add(
		FlagOutput, r.outputPath,
		FlagNewline,
		FlagNoColors,
		FlagNoPlaylist,
		FlagEncoding, EncodingUTF8,
		FlagFragments, strconv.Itoa(fragments),
		FlagContinue,
		FlagSocketTimeout, SocketTimeoutSeconds,
	)
	if r.clip || r.format == model.FormatGIF {
		a.add(FlagNoPart)
	}

	if p := strings.TrimSpace(r.settings.BinaryPathFFmpeg); p != "" {
		if isFlagLike(p) {
			return configError("ffmpeg path", p, "cannot start with '-'")
		}
		a.add(FlagFFmpegLocation, p)
	}
	return nil
}

func clipArgs(r *request, a *argList) error {
	if !r.clip {
		return nil
	}

	start := SanitizeTimestamp(r.opts.RangeStart)
	if start == "" {
		start = ClipStartDefault
	}
	end := SanitizeTimestamp(r.opts.RangeEnd)
	if end == "" {
		end = ClipEndDefault
	}

	a.add(FlagDownloadSections, "*"+start+"-"+end, FlagForceKeyframes)

	// -movflags is an MP4 muxer option and breaks the GIF muxer
	if r.format == model.FormatGIF {
		a.addFFmpeg(ClipRepairGIF)
	} else {
		a.addFFmpeg(ClipRepairMP4)
	}
	return nil
}

// ffmpegPostprocessorArgs emits the consolidated "ffmpeg:" argument collected by earlier steps
func ffmpegPostprocessorArgs(r *request, a *argList) error {
	switch {
	case r.opts.AudioNormalization && r.format == model.FormatVideo:
		// loudnorm cannot run with a stream copy
		if !a.ffmpegSetsAudioCodec() {
			a.addFFmpeg(AudioAAC192)
		}
	case hardwareActive(r) && !r.clip:
		if !a.ffmpegSetsAudioCodec() {
			a.addFFmpeg(AudioCopy)
		}
	}

	if len(a.ffmpeg) > 0 {
		a.add(FlagPostprocessorArgs, PPKeyFFmpeg+strings.Join(a.ffmpeg, " "))
	}
	return nil
}

func subtitleArgs(r *request, a *argList) error {
	if !r.opts.Subtitles {
		return nil
	}

	lang := strings.TrimSpace(r.opts.SubtitleLang)
	if lang == "" {
		lang = DefaultSubtitleLang
	}

	switch strings.ToLower(lang) {
	case SubtitleLangAll:
		a.add(FlagWriteSubs, FlagAllSubs)
	case SubtitleLangAuto:
		a.add(FlagWriteSubs, FlagWriteAutoSubs, FlagSubLangs, autoSubtitlePriority(r.settings.Language))
	default:
		if !isSafeLangList(lang) {
			return configError("subtitle language", lang, "unexpected characters")
		}
		a.add(FlagWriteSubs, FlagWriteAutoSubs, FlagSubLangs, lang)
	}

	// Missing subtitles must not fail the download; sleeps avoid HTTP 429 on caption requests
	a.add(FlagIgnoreErrors, FlagSleepSubtitles, SubtitleSleepSeconds, FlagSleepRequests, RequestSleepSeconds)

	// Embedding into a cut stream is unreliable
	if r.opts.EmbedSubtitles && r.format != model.FormatAudio && !r.clip {
		a.add(FlagEmbedSubs)
	}

	switch {
	case r.opts.EmbedSubtitles:
		a.add(FlagConvertSubs, SafeSubtitleFormat)
	case r.opts.SubtitleFormat != "":
		f := strings.ToLower(strings.TrimSpace(r.opts.SubtitleFormat))
		if supportedSubtitleFormats[f] {
			a.add(FlagConvertSubs, f)
		} else {
			warnf("ignoring unsupported subtitle format %q", r.opts.SubtitleFormat)
		}
	}
	return nil
}

// autoSubtitlePriority prefers the interface language, then original and plain English
func autoSubtitlePriority(uiLanguage string) string {
	lang := strings.ToLower(strings.TrimSpace(uiLanguage))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" || lang == "system" || lang == "en" || !isSafeLangList(lang) {
		return "en-orig,en"
	}
	return lang + "," + lang + "-orig,en-orig,en"
}

func sponsorBlockArgs(r *request, a *argList) error {
	if !r.opts.RemoveSponsors && !r.settings.UseSponsorBlock {
		return nil
	}

	categories := make([]string, 0, len(r.settings.SponsorSegments))
	for _, c := range r.settings.SponsorSegments {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		return nil
	}
	a.add(FlagSponsorBlockRemove, strings.Join(categories, ","))
	return nil
}

func liveArgs(r *request, a *argList) error {
	if r.opts.LiveFromStart {
		a.add(FlagLiveFromStart)
	}
	return nil
}

// chapterArgs is skipped when normalizing; the split then runs as a separate pass after the download
func chapterArgs(r *request, a *argList) error {
	if !r.opts.SplitChapters || r.opts.AudioNormalization {
		return nil
	}
	template := filepath.Join(model.ChapterDir(r.outputPath), ChapterFileFormat)
	a.add(FlagSplitChapters, FlagOutput, ChapterOutputKey+template)
	return nil
}

// embedArgs never embeds into clips: yt-dlp writes the source duration and tags
func embedArgs(r *request, a *argList) error {
	if r.clip {
		return nil
	}
	if r.settings.EmbedMetadata {
		a.add(FlagEmbedMetadata)
	}
	if r.settings.EmbedThumbnail {
		a.add(FlagEmbedThumbnail)
	}
	if r.settings.EmbedChapters {
		a.add(FlagEmbedChapters)
	}
	return nil
}

// SanitizeTimestamp keeps only digits, colons and dots
func SanitizeTimestamp(s string) string {
	return timestampDisallowed.ReplaceAllString(s, "")
}

// OutputExtension returns the extension of the file the download will produce
func OutputExtension(opts model.DownloadOptions, settings config.AppSettings) string {
	switch opts.Format {
	case model.FormatAudio:
		switch opts.AudioFormat {
		case "":
			return DefaultAudioFormat
		case model.AudioFormatAAC:
			return string(model.AudioFormatM4A)
		default:
			return string(opts.AudioFormat)
		}
	case model.FormatGIF:
		return GifRecodeTarget
	default:
		return containerFor(opts, settings)
	}
}

// FormatLabel returns a short description of the requested output
func FormatLabel(opts model.DownloadOptions, settings config.AppSettings) string {
	switch opts.Format {
	case model.FormatAudio:
		bitrate := opts.AudioBitrate
		if bitrate == "" {
			bitrate = DefaultAudioBitrate
		}
		return OutputExtension(opts, settings) + " " + bitrate + "k"
	case model.FormatGIF:
		return GifRecodeTarget
	default:
		label := resolutionFor(opts, settings)
		if opts.VideoCodec != "" && opts.VideoCodec != model.VideoCodecAuto {
			label += " " + string(opts.VideoCodec)
		}
		return label + " " + containerFor(opts, settings)
	}
}

func containerFor(opts model.DownloadOptions, settings config.AppSettings) string {
	if opts.Container != "" {
		return opts.Container
	}
	if settings.Container != "" {
		return settings.Container
	}
	return DefaultContainer
}

func resolutionFor(opts model.DownloadOptions, settings config.AppSettings) string {
	res := strings.TrimSpace(opts.Resolution)
	if res == "" {
		res = strings.TrimSpace(settings.Resolution)
	}
	if res == "" {
		return ResolutionBest
	}
	return strings.ToLower(res)
}

func isFlagLike(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "-")
}

func isSafeLangList(s string) bool {
	if s == "" || isFlagLike(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == ',' || r == '.' || r == '*':
		default:
			return false
		}
	}
	return true
}
