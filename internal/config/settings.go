package config

import (
	"strings"

	"fyne.io/fyne/v2"

	"github.com/ytget/mediadl/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir          = "download_directory"
	KeyMaxParallel          = "max_parallel_downloads"
	KeyConcurrentFragments  = "concurrent_fragments"
	KeyResolution           = "resolution"
	KeyContainer            = "container"
	KeyFilenameTemplate     = "filename_template"
	KeyLanguage             = "app_language"
	KeyHardwareDecoding     = "hardware_decoding"
	KeySpeedLimit           = "speed_limit"
	KeyProxy                = "proxy"
	KeyUserAgent            = "user_agent"
	KeyCookieSource         = "cookie_source"
	KeyBrowserType          = "browser_type"
	KeyCookiePath           = "cookie_path"
	KeyUseSponsorBlock      = "use_sponsorblock"
	KeySponsorSegments      = "sponsor_segments"
	KeyEmbedMetadata        = "embed_metadata"
	KeyEmbedThumbnail       = "embed_thumbnail"
	KeyEmbedChapters        = "embed_chapters"
	KeyBinaryPathYtDlp      = "binary_path_ytdlp"
	KeyBinaryPathFFmpeg     = "binary_path_ffmpeg"
	KeyDeveloperMode        = "developer_mode"
	KeyHistoryRetentionDays = "history_retention_days"
	KeyMaxHistoryItems      = "max_history_items"
)

// Default values
const (
	DefaultMaxParallel          = 2
	DefaultConcurrentFragments  = 4
	DefaultResolution           = "best"
	DefaultContainer            = "mp4"
	DefaultFilenameTemplate     = "{title}"
	DefaultLanguage             = "system"
	DefaultHardwareDecoding     = true
	DefaultCookieSource         = CookieSourceNone
	DefaultBrowserType          = "chrome"
	DefaultUseSponsorBlock      = false
	DefaultEmbedMetadata        = true
	DefaultEmbedThumbnail       = true
	DefaultEmbedChapters        = true
	DefaultDeveloperMode        = false
	DefaultHistoryRetentionDays = 30
	DefaultMaxHistoryItems      = 500
	FallbackDownloadDir         = "/tmp/downloads"
)

// DefaultSponsorSegments are the SponsorBlock categories removed when enabled
var DefaultSponsorSegments = []string{"sponsor", "selfpromo", "interaction"}

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

func (s *Settings) prefs() fyne.Preferences {
	return s.app.Preferences()
}

// Snapshot reads every preference into an AppSettings value
func (s *Settings) Snapshot() AppSettings {
	return AppSettings{
		DownloadPath:         s.GetDownloadDirectory(),
		FilenameTemplate:     s.GetFilenameTemplate(),
		Resolution:           s.GetResolution(),
		Container:            s.GetContainer(),
		Language:             s.GetLanguage(),
		HardwareDecoding:     s.GetHardwareDecoding(),
		ConcurrentDownloads:  s.GetMaxParallelDownloads(),
		ConcurrentFragments:  s.GetConcurrentFragments(),
		SpeedLimit:           s.GetSpeedLimit(),
		Proxy:                s.GetProxy(),
		UserAgent:            s.GetUserAgent(),
		CookieSource:         s.GetCookieSource(),
		BrowserType:          s.GetBrowserType(),
		CookiePath:           s.GetCookiePath(),
		UseSponsorBlock:      s.GetUseSponsorBlock(),
		SponsorSegments:      s.GetSponsorSegments(),
		EmbedMetadata:        s.prefs().BoolWithFallback(KeyEmbedMetadata, DefaultEmbedMetadata),
		EmbedThumbnail:       s.prefs().BoolWithFallback(KeyEmbedThumbnail, DefaultEmbedThumbnail),
		EmbedChapters:        s.prefs().BoolWithFallback(KeyEmbedChapters, DefaultEmbedChapters),
		BinaryPathYtDlp:      s.prefs().String(KeyBinaryPathYtDlp),
		BinaryPathFFmpeg:     s.prefs().String(KeyBinaryPathFFmpeg),
		DeveloperMode:        s.GetDeveloperMode(),
		HistoryRetentionDays: s.prefs().IntWithFallback(KeyHistoryRetentionDays, DefaultHistoryRetentionDays),
		MaxHistoryItems:      s.prefs().IntWithFallback(KeyMaxHistoryItems, DefaultMaxHistoryItems),
	}.Normalize()
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.prefs().String(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = FallbackDownloadDir
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.prefs().SetString(KeyDownloadDir, dir)
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Settings) GetMaxParallelDownloads() int {
	value := s.prefs().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelDownloads(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Settings) SetMaxParallelDownloads(count int) {
	s.prefs().SetInt(KeyMaxParallel, clamp(count, MinParallel, MaxParallel))
}

// GetConcurrentFragments returns how many fragments yt-dlp fetches in parallel
func (s *Settings) GetConcurrentFragments() int {
	value := s.prefs().Int(KeyConcurrentFragments)
	if value <= 0 {
		s.SetConcurrentFragments(DefaultConcurrentFragments)
		return DefaultConcurrentFragments
	}
	return value
}

// SetConcurrentFragments sets the fragment concurrency
func (s *Settings) SetConcurrentFragments(count int) {
	s.prefs().SetInt(KeyConcurrentFragments, clamp(count, MinFragments, MaxFragments))
}

// GetResolution returns the default resolution cap ("best" or a height)
func (s *Settings) GetResolution() string {
	return s.prefs().StringWithFallback(KeyResolution, DefaultResolution)
}

// SetResolution sets the default resolution cap
func (s *Settings) SetResolution(resolution string) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		resolution = DefaultResolution
	}
	s.prefs().SetString(KeyResolution, resolution)
}

// GetContainer returns the default merge container
func (s *Settings) GetContainer() string {
	return s.prefs().StringWithFallback(KeyContainer, DefaultContainer)
}

// SetContainer sets the default merge container
func (s *Settings) SetContainer(container string) {
	s.prefs().SetString(KeyContainer, container)
}

// GetFilenameTemplate returns the filename template
func (s *Settings) GetFilenameTemplate() string {
	template := s.prefs().String(KeyFilenameTemplate)
	if template == "" {
		s.SetFilenameTemplate(DefaultFilenameTemplate)
		return DefaultFilenameTemplate
	}
	return template
}

// SetFilenameTemplate sets the filename template
func (s *Settings) SetFilenameTemplate(template string) {
	if template == "" {
		template = DefaultFilenameTemplate
	}
	s.prefs().SetString(KeyFilenameTemplate, template)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.prefs().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.prefs().SetString(KeyLanguage, lang)
}

// GetHardwareDecoding returns whether GPU encoders may be used
func (s *Settings) GetHardwareDecoding() bool {
	return s.prefs().BoolWithFallback(KeyHardwareDecoding, DefaultHardwareDecoding)
}

// SetHardwareDecoding sets the GPU encoder preference
func (s *Settings) SetHardwareDecoding(enabled bool) {
	s.prefs().SetBool(KeyHardwareDecoding, enabled)
}

// GetSpeedLimit returns the yt-dlp rate limit (e.g. "5M")
func (s *Settings) GetSpeedLimit() string {
	return s.prefs().String(KeySpeedLimit)
}

// SetSpeedLimit sets the rate limit
func (s *Settings) SetSpeedLimit(limit string) {
	s.prefs().SetString(KeySpeedLimit, strings.TrimSpace(limit))
}

// GetProxy returns the proxy URL
func (s *Settings) GetProxy() string {
	return s.prefs().String(KeyProxy)
}

// SetProxy sets the proxy URL
func (s *Settings) SetProxy(proxy string) {
	s.prefs().SetString(KeyProxy, strings.TrimSpace(proxy))
}

// GetUserAgent returns the custom user agent; UserAgentDisabled opts out
func (s *Settings) GetUserAgent() string {
	return s.prefs().String(KeyUserAgent)
}

// SetUserAgent sets the custom user agent. The opt-out sentinel is stored as is.
func (s *Settings) SetUserAgent(ua string) {
	if ua != UserAgentDisabled {
		ua = strings.TrimSpace(ua)
	}
	s.prefs().SetString(KeyUserAgent, ua)
}

// GetCookieSource returns where cookies come from
func (s *Settings) GetCookieSource() CookieSource {
	switch src := CookieSource(s.prefs().String(KeyCookieSource)); src {
	case CookieSourceBrowser, CookieSourceTxt, CookieSourceNone:
		return src
	default:
		return DefaultCookieSource
	}
}

// SetCookieSource sets the cookie source
func (s *Settings) SetCookieSource(src CookieSource) {
	s.prefs().SetString(KeyCookieSource, string(src))
}

// GetBrowserType returns the browser used for cookie borrowing
func (s *Settings) GetBrowserType() string {
	return s.prefs().StringWithFallback(KeyBrowserType, DefaultBrowserType)
}

// SetBrowserType sets the browser used for cookie borrowing
func (s *Settings) SetBrowserType(browser string) {
	s.prefs().SetString(KeyBrowserType, strings.ToLower(strings.TrimSpace(browser)))
}

// GetCookiePath returns the cookies.txt path
func (s *Settings) GetCookiePath() string {
	return s.prefs().String(KeyCookiePath)
}

// SetCookiePath sets the cookies.txt path
func (s *Settings) SetCookiePath(path string) {
	s.prefs().SetString(KeyCookiePath, path)
}

// GetUseSponsorBlock returns whether sponsor segments are removed by default
func (s *Settings) GetUseSponsorBlock() bool {
	return s.prefs().BoolWithFallback(KeyUseSponsorBlock, DefaultUseSponsorBlock)
}

// SetUseSponsorBlock sets the SponsorBlock default
func (s *Settings) SetUseSponsorBlock(enabled bool) {
	s.prefs().SetBool(KeyUseSponsorBlock, enabled)
}

// GetSponsorSegments returns the SponsorBlock categories to remove
func (s *Settings) GetSponsorSegments() []string {
	return s.prefs().StringListWithFallback(KeySponsorSegments, DefaultSponsorSegments)
}

// SetSponsorSegments sets the SponsorBlock categories
func (s *Settings) SetSponsorSegments(segments []string) {
	s.prefs().SetStringList(KeySponsorSegments, segments)
}

// SetEmbedding toggles metadata, thumbnail and chapter embedding
func (s *Settings) SetEmbedding(metadata, thumbnail, chapters bool) {
	s.prefs().SetBool(KeyEmbedMetadata, metadata)
	s.prefs().SetBool(KeyEmbedThumbnail, thumbnail)
	s.prefs().SetBool(KeyEmbedChapters, chapters)
}

// SetBinaryPaths overrides the yt-dlp and ffmpeg executables; empty uses PATH
func (s *Settings) SetBinaryPaths(ytdlpPath, ffmpegPath string) {
	s.prefs().SetString(KeyBinaryPathYtDlp, ytdlpPath)
	s.prefs().SetString(KeyBinaryPathFFmpeg, ffmpegPath)
}

// GetDeveloperMode returns whether raw diagnostics are shown
func (s *Settings) GetDeveloperMode() bool {
	return s.prefs().BoolWithFallback(KeyDeveloperMode, DefaultDeveloperMode)
}

// SetDeveloperMode toggles raw diagnostics
func (s *Settings) SetDeveloperMode(enabled bool) {
	s.prefs().SetBool(KeyDeveloperMode, enabled)
}

// SetHistoryLimits sets the history retention window and size cap
func (s *Settings) SetHistoryLimits(retentionDays, maxItems int) {
	s.prefs().SetInt(KeyHistoryRetentionDays, max(retentionDays, 0))
	s.prefs().SetInt(KeyMaxHistoryItems, max(maxItems, 0))
}
