package ytdlp

import (
	"strings"
)

// ErrorCategory groups known yt-dlp failure signatures
type ErrorCategory string

const (
	ErrorUnknown       ErrorCategory = "unknown"
	ErrorCookieLock    ErrorCategory = "cookie_lock"
	ErrorCookieProfile ErrorCategory = "cookie_profile"
	ErrorAgeRestricted ErrorCategory = "age_restricted"
	ErrorMembersOnly   ErrorCategory = "members_only"
	ErrorBotCheck      ErrorCategory = "bot_check"
	ErrorPrivate       ErrorCategory = "private"
	ErrorUnavailable   ErrorCategory = "unavailable"
	ErrorUpcoming      ErrorCategory = "upcoming"
	ErrorUnsupported   ErrorCategory = "unsupported_url"
	ErrorForbidden     ErrorCategory = "http_403"
	ErrorRateLimited   ErrorCategory = "http_429"
	ErrorNetwork       ErrorCategory = "network"
	ErrorFFmpegMissing ErrorCategory = "ffmpeg_missing"
)

// ClassifyError matches raw stderr text against known signatures
func ClassifyError(raw string) ErrorCategory {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "could not copy") && strings.Contains(s, "cookie"),
		strings.Contains(s, "database is locked"),
		strings.Contains(s, "dpapi"):
		return ErrorCookieLock
	case strings.Contains(s, "could not find") && strings.Contains(s, "profile"):
		return ErrorCookieProfile
	case strings.Contains(s, "confirm your age"),
		strings.Contains(s, "age-restricted"),
		strings.Contains(s, "inappropriate for some users"):
		return ErrorAgeRestricted
	case strings.Contains(s, "members-only"), strings.Contains(s, "join this channel"):
		return ErrorMembersOnly
	case strings.Contains(s, "not a bot"):
		return ErrorBotCheck
	case strings.Contains(s, "private video"):
		return ErrorPrivate
	case strings.Contains(s, "premieres in"), strings.Contains(s, "live event will begin"):
		return ErrorUpcoming
	case strings.Contains(s, "video unavailable"), strings.Contains(s, "has been removed"):
		return ErrorUnavailable
	case strings.Contains(s, "unsupported url"), strings.Contains(s, "is not a valid url"):
		return ErrorUnsupported
	case strings.Contains(s, "http error 403"), strings.Contains(s, "403: forbidden"):
		return ErrorForbidden
	case strings.Contains(s, "http error 429"), strings.Contains(s, "too many requests"):
		return ErrorRateLimited
	case strings.Contains(s, "timed out"), strings.Contains(s, "timeout"),
		strings.Contains(s, "connection refused"), strings.Contains(s, "connection reset"),
		strings.Contains(s, "getaddrinfo failed"), strings.Contains(s, "name or service not known"):
		return ErrorNetwork
	case strings.Contains(s, "ffmpeg not found"), strings.Contains(s, "ffprobe and ffmpeg not found"),
		strings.Contains(s, "ffmpeg is not installed"):
		return ErrorFFmpegMissing
	default:
		return ErrorUnknown
	}
}

// Guidance returns the short user-facing text for a category
func (c ErrorCategory) Guidance() string {
	switch c {
	case ErrorCookieLock:
		return "Browser cookies are locked. Close your browser completely and try again, or export a cookies.txt file."
	case ErrorCookieProfile:
		return "Browser profile not found. Check the selected browser in settings."
	case ErrorAgeRestricted:
		return "Age-restricted video. Sign in through browser cookies to download it."
	case ErrorMembersOnly:
		return "Members-only content. Use cookies from an account with access."
	case ErrorBotCheck:
		return "The site asked for a sign in / bot check. Use browser cookies and try again later."
	case ErrorPrivate:
		return "Private video. Only accounts with access can download it."
	case ErrorUnavailable:
		return "Video unavailable. It may have been removed or blocked in your region."
	case ErrorUpcoming:
		return "Live stream or premiere has not started yet."
	case ErrorUnsupported:
		return "Unsupported or invalid URL."
	case ErrorForbidden:
		return "Access denied (HTTP 403). Updating yt-dlp or using cookies usually helps."
	case ErrorRateLimited:
		return "Too many requests (HTTP 429). Wait a while before retrying."
	case ErrorNetwork:
		return "Network error. Check your connection or proxy settings."
	case ErrorFFmpegMissing:
		return "FFmpeg is missing. Install it or set its path in settings."
	default:
		return ""
	}
}

// HumanizeError turns raw tool output into a short message.
// Unknown errors keep their last non-empty line with the ERROR: prefix removed.
func HumanizeError(raw string) string {
	if msg := ClassifyError(raw).Guidance(); msg != "" {
		return msg
	}

	lines := strings.Split(strings.TrimSpace(raw), "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			last = l
			break
		}
	}
	if i := strings.Index(last, MarkerError); i >= 0 {
		last = strings.TrimSpace(last[i+len(MarkerError):])
	}
	if last == "" {
		return "Download failed"
	}
	return last
}
