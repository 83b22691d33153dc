package config

import "strings"

// CookieSource selects where yt-dlp reads cookies from
type CookieSource string

const (
	CookieSourceNone    CookieSource = "none"
	CookieSourceBrowser CookieSource = "browser"
	CookieSourceTxt     CookieSource = "txt"
)

// UserAgentDisabled is the sentinel that suppresses the --user-agent flag
const UserAgentDisabled = " "

// Concurrency limits
const (
	MinParallel  = 1
	MaxParallel  = 10
	MinFragments = 1
	MaxFragments = 16
)

// AppSettings is a read-only snapshot of the global configuration consumed by
// the engine. Values are normalized by Settings.Snapshot and Normalize.
type AppSettings struct {
	DownloadPath     string
	FilenameTemplate string
	Resolution       string // "best" or a height
	Container        string
	Language         string

	HardwareDecoding    bool
	ConcurrentDownloads int
	ConcurrentFragments int

	SpeedLimit   string
	Proxy        string
	UserAgent    string // UserAgentDisabled opts out, empty uses the default
	CookieSource CookieSource
	BrowserType  string
	CookiePath   string

	UseSponsorBlock bool
	SponsorSegments []string

	EmbedMetadata  bool
	EmbedThumbnail bool
	EmbedChapters  bool

	BinaryPathYtDlp  string
	BinaryPathFFmpeg string

	DeveloperMode        bool
	HistoryRetentionDays int
	MaxHistoryItems      int
}

// DefaultAppSettings returns the settings used before the user changes anything
func DefaultAppSettings() AppSettings {
	return AppSettings{
		FilenameTemplate:     DefaultFilenameTemplate,
		Resolution:           DefaultResolution,
		Container:            DefaultContainer,
		Language:             DefaultLanguage,
		HardwareDecoding:     DefaultHardwareDecoding,
		ConcurrentDownloads:  DefaultMaxParallel,
		ConcurrentFragments:  DefaultConcurrentFragments,
		CookieSource:         DefaultCookieSource,
		BrowserType:          DefaultBrowserType,
		SponsorSegments:      append([]string(nil), DefaultSponsorSegments...),
		EmbedMetadata:        DefaultEmbedMetadata,
		EmbedThumbnail:       DefaultEmbedThumbnail,
		EmbedChapters:        DefaultEmbedChapters,
		HistoryRetentionDays: DefaultHistoryRetentionDays,
		MaxHistoryItems:      DefaultMaxHistoryItems,
	}
}

// Normalize fills empty values with defaults and clamps numeric limits
func (a AppSettings) Normalize() AppSettings {
	if a.FilenameTemplate == "" {
		a.FilenameTemplate = DefaultFilenameTemplate
	}
	if a.Resolution == "" {
		a.Resolution = DefaultResolution
	}
	if a.Container == "" {
		a.Container = DefaultContainer
	}
	if a.Language == "" {
		a.Language = DefaultLanguage
	}
	if a.CookieSource == "" {
		a.CookieSource = CookieSourceNone
	}
	a.ConcurrentDownloads = clamp(a.ConcurrentDownloads, MinParallel, MaxParallel)
	if a.ConcurrentFragments == 0 {
		a.ConcurrentFragments = DefaultConcurrentFragments
	}
	a.ConcurrentFragments = clamp(a.ConcurrentFragments, MinFragments, MaxFragments)
	if a.HistoryRetentionDays < 0 {
		a.HistoryRetentionDays = 0
	}
	if a.MaxHistoryItems < 0 {
		a.MaxHistoryItems = 0
	}

	segments := make([]string, 0, len(a.SponsorSegments))
	for _, s := range a.SponsorSegments {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	a.SponsorSegments = segments
	return a
}

// Static is a fixed settings source for tests and headless runs
type Static struct {
	Values AppSettings
}

// Snapshot returns the fixed settings
func (s Static) Snapshot() AppSettings {
	return s.Values.Normalize()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
