package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Filename limits
const (
	MaxFilenameRunes = 200
	UntitledName     = "Untitled"
	DefaultUploader  = "Unknown"
)

var placeholderPattern = regexp.MustCompile(`(?i)\{(title|ext|id|uploader|width|height)\}`)

// SanitizeFilename renders a filename template from metadata. The result never contains
// path separators or "..", is at most MaxFilenameRunes before the extension, and always
// ends with the metadata extension.
func SanitizeFilename(template string, meta *VideoMeta) string {
	if meta == nil {
		meta = &VideoMeta{}
	}
	ext := meta.Ext
	if ext == "" {
		ext = DefaultExtension
	}

	name := placeholderPattern.ReplaceAllStringFunc(template, func(p string) string {
		switch strings.ToLower(strings.Trim(p, "{}")) {
		case "title":
			return meta.Title
		case "ext":
			return ext
		case "id":
			return meta.ID
		case "uploader":
			if meta.Uploader == "" {
				return DefaultUploader
			}
			return meta.Uploader
		case "width":
			return positive(meta.Width)
		case "height":
			return positive(meta.Height)
		}
		return ""
	})

	name = truncateRunes(cleanSegment(name), MaxFilenameRunes)

	suffix := "." + ext
	if strings.TrimSpace(name) == "" || strings.EqualFold(name, suffix) || strings.EqualFold(name, ext) {
		title := cleanSegment(meta.Title)
		if title == "" {
			title = UntitledName
		}
		name = truncateRunes(title, MaxFilenameRunes)
	}

	if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
		name += suffix
	}
	return name
}

// cleanSegment replaces illegal and control characters, strips ".." and trims
func cleanSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, s)
	// repeat until stable: removing ".." from "...." can expose another pair
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return strings.TrimSpace(s[:i])
		}
		count++
	}
	return s
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
