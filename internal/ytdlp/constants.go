package ytdlp

// yt-dlp baseline flags
const (
	FlagOutput         = "-o"
	FlagNewline        = "--newline"
	FlagNoColors       = "--no-colors"
	FlagNoPlaylist     = "--no-playlist"
	FlagEncoding       = "--encoding"
	FlagFragments      = "-N"
	FlagContinue       = "--continue"
	FlagSocketTimeout  = "--socket-timeout"
	FlagNoPart         = "--no-part"
	FlagFFmpegLocation = "--ffmpeg-location"
	FlagDumpJSON       = "--dump-json"
	FlagNoWarnings     = "--no-warnings"
	Terminator         = "--"

	EncodingUTF8         = "utf-8"
	SocketTimeoutSeconds = "15"
	DefaultFragments     = 4
)

// Format selection and post-processing flags
const (
	FlagExtractAudio       = "-x"
	FlagAudioFormat        = "--audio-format"
	FlagAudioQuality       = "--audio-quality"
	FlagFormat             = "-f"
	FlagSortFormats        = "-S"
	FlagRecodeVideo        = "--recode-video"
	FlagPostprocessorArgs  = "--postprocessor-args"
	FlagMergeOutputFormat  = "--merge-output-format"
	FlagDownloadSections   = "--download-sections"
	FlagForceKeyframes     = "--force-keyframes-at-cuts"
	FlagSponsorBlockRemove = "--sponsorblock-remove"
	FlagLiveFromStart      = "--live-from-start"
	FlagSplitChapters      = "--split-chapters"
	FlagEmbedMetadata      = "--embed-metadata"
	FlagEmbedThumbnail     = "--embed-thumbnail"
	FlagEmbedChapters      = "--embed-chapters"
)

// Subtitle flags
const (
	FlagWriteSubs      = "--write-subs"
	FlagAllSubs        = "--all-subs"
	FlagWriteAutoSubs  = "--write-auto-subs"
	FlagSubLangs       = "--sub-langs"
	FlagIgnoreErrors   = "--ignore-errors"
	FlagSleepSubtitles = "--sleep-subtitles"
	FlagSleepRequests  = "--sleep-requests"
	FlagEmbedSubs      = "--embed-subs"
	FlagConvertSubs    = "--convert-subs"

	SubtitleSleepSeconds = "7"
	RequestSleepSeconds  = "3"
	SubtitleLangAll      = "all"
	SubtitleLangAuto     = "auto"
	DefaultSubtitleLang  = "en"
	SafeSubtitleFormat   = "srt"
)

// Network and auth flags
const (
	FlagProxy              = "--proxy"
	FlagCookies            = "--cookies"
	FlagCookiesFromBrowser = "--cookies-from-browser"
	FlagUserAgent          = "--user-agent"
	FlagLimitRate          = "--limit-rate"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Post-processor keys
const (
	PPKeyFFmpeg         = "ffmpeg:"
	PPKeyVideoConvertor = "VideoConvertor:"
)

// Filters and ffmpeg fragments
const (
	LoudnormFilter     = "loudnorm=I=-16:TP=-1.5:LRA=11"
	GifSourceSort      = "res:720,ext:mp4,fps:30"
	GifRecodeTarget    = "gif"
	GifLoopForever     = "-loop 0"
	GifPaletteSuffix   = ",split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse"
	ClipRepairMP4      = "-movflags +faststart -avoid_negative_ts make_zero"
	ClipRepairGIF      = "-avoid_negative_ts make_zero -map_metadata 0"
	AudioCopy          = "-c:a copy"
	AudioAAC192        = "-c:a aac -b:a 192k"
	AudioOpus128       = "-c:a libopus -b:a 128k"
	ClipStartDefault   = "0"
	ClipEndDefault     = "inf"
	ChapterFolderLabel = "[Chapters] "
	ChapterFileFormat  = "%(chapter_number)s - %(chapter)s.%(ext)s"
	ChapterOutputKey   = "chapter:"
)

// Defaults
const (
	DefaultAudioFormat  = "mp3"
	DefaultAudioBitrate = "192"
	DefaultAudioQuality = "2"
	DefaultContainer    = "mp4"
	DefaultExtension    = "mp4"
	ResolutionBest      = "best"
)

// audioQualityByBitrate maps kbps to the --audio-quality VBR index (0 is best)
var audioQualityByBitrate = map[string]string{
	"320": "0",
	"256": "1",
	"192": "2",
	"160": "3",
	"128": "5",
	"96":  "7",
	"64":  "9",
}

// supportedBrowsers are the names accepted by --cookies-from-browser
var supportedBrowsers = map[string]bool{
	"brave": true, "chrome": true, "chromium": true, "edge": true, "firefox": true,
	"opera": true, "safari": true, "vivaldi": true, "whale": true,
}

// supportedSubtitleFormats are the targets accepted by --convert-subs
var supportedSubtitleFormats = map[string]bool{
	"srt": true, "ass": true, "vtt": true, "lrc": true,
}
