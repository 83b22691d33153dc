package ytdlp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/mediadl/internal/model"
)

// Fallback metadata used when a dump never produced a usable object
const (
	FallbackTitle = "Unknown_Video"
	FallbackID    = "unknown"
)

// Thumbnail is one entry of the thumbnails list
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// StreamFormat is one of the formats yt-dlp selected for download
type StreamFormat struct {
	FormatID string `json:"format_id"`
	URL      string `json:"url"`
	Ext      string `json:"ext"`
}

// VideoMeta is the subset of the yt-dlp info dict the engine consumes
type VideoMeta struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Ext               string                     `json:"ext"`
	Uploader          string                     `json:"uploader"`
	Width             int                        `json:"width"`
	Height            int                        `json:"height"`
	Duration          float64                    `json:"duration"`
	URL               string                     `json:"url"`
	Thumbnail         string                     `json:"thumbnail"`
	Thumbnails        []Thumbnail                `json:"thumbnails"`
	Entries           []*VideoMeta               `json:"entries"`
	RequestedFormats  []StreamFormat             `json:"requested_formats"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
	Chapters          []model.Chapter            `json:"chapters"`
	IsLive            bool                       `json:"is_live"`
	WasLive           bool                       `json:"was_live"`

	// HasSubtitles is derived: manual or automatic captions exist
	HasSubtitles bool `json:"-"`
}

// DumpResult is the outcome of scanning a --dump-json run line by line
type DumpResult struct {
	StreamURLs   []string
	NeedsMerging bool
	Meta         *VideoMeta
	// Degraded is set when Meta is the placeholder object
	Degraded bool
}

// ParseMetadataDump scans dump output. The last object carrying both a title and an id
// becomes the metadata; it never fails and falls back to a placeholder object.
func ParseMetadataDump(lines []string) DumpResult {
	var res DumpResult

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "{") {
			continue
		}

		var meta VideoMeta
		if err := json.Unmarshal([]byte(trimmed), &meta); err != nil {
			debugf("failed to parse JSON line: %.100s", trimmed)
			continue
		}

		switch {
		case len(meta.RequestedFormats) > 0:
			res.StreamURLs = make([]string, 0, len(meta.RequestedFormats))
			for _, f := range meta.RequestedFormats {
				res.StreamURLs = append(res.StreamURLs, f.URL)
			}
			res.NeedsMerging = len(meta.RequestedFormats) > 1
		case meta.URL != "":
			res.StreamURLs = []string{meta.URL}
		}

		if meta.Title != "" && meta.ID != "" {
			m := meta
			res.Meta = &m
		}
	}

	if res.Meta == nil {
		res.Meta = &VideoMeta{Title: FallbackTitle, Ext: DefaultExtension, ID: FallbackID}
		res.Degraded = true
	}
	return res
}

// metaStrategy is one named way of extracting metadata from raw stdout
type metaStrategy struct {
	name  string
	parse func(stdout string) (*VideoMeta, bool)
}

// metaStrategies are tried in order; the first success wins
var metaStrategies = []metaStrategy{
	{name: "last-json-line", parse: lastJSONLine},
	{name: "first-brace", parse: firstBrace},
	{name: "regex-salvage", parse: regexSalvage},
}

// ParseTopLevelJSON extracts the info dict from the full stdout of a metadata dump.
// ErrInvalidOutput is returned only when every strategy fails.
func ParseTopLevelJSON(stdout string) (*VideoMeta, error) {
	tried := make([]string, 0, len(metaStrategies))
	for _, s := range metaStrategies {
		meta, ok := s.parse(stdout)
		if !ok {
			tried = append(tried, s.name)
			continue
		}
		if len(tried) > 0 {
			debugf("metadata recovered with %s after %s failed", s.name, strings.Join(tried, ", "))
		}
		normalizeMeta(meta)
		return meta, nil
	}
	return nil, fmt.Errorf("%w (tried %s)", ErrInvalidOutput, strings.Join(tried, ", "))
}

// lastJSONLine walks lines from the end; the dump is normally the final line
func lastJSONLine(stdout string) (*VideoMeta, bool) {
	lines := strings.Split(stdout, "\n")
	var found *VideoMeta
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var meta VideoMeta
		if err := json.Unmarshal([]byte(line), &meta); err != nil {
			continue
		}
		found = &meta
		if meta.Title != "" {
			break
		}
	}
	return found, found != nil
}

func firstBrace(stdout string) (*VideoMeta, bool) {
	i := strings.IndexByte(stdout, '{')
	if i < 0 {
		return nil, false
	}
	var meta VideoMeta
	if err := json.NewDecoder(strings.NewReader(stdout[i:])).Decode(&meta); err != nil {
		return nil, false
	}
	return &meta, true
}

var (
	salvageTitle = regexp.MustCompile(`"title":\s*"((?:[^"\\]|\\.)*)"`)
	salvageID    = regexp.MustCompile(`"id":\s*"([^"]+)"`)
)

// regexSalvage recovers title and id when warning text corrupts the JSON
func regexSalvage(stdout string) (*VideoMeta, bool) {
	title := salvageTitle.FindStringSubmatch(stdout)
	id := salvageID.FindStringSubmatch(stdout)
	if title == nil || id == nil {
		return nil, false
	}
	t, err := strconv.Unquote(`"` + title[1] + `"`)
	if err != nil {
		t = strings.ReplaceAll(title[1], `\"`, `"`)
	}
	return &VideoMeta{Title: t, ID: id[1], Ext: DefaultExtension}, true
}

func normalizeMeta(m *VideoMeta) {
	if m.Thumbnail == "" && len(m.Thumbnails) > 0 {
		// the last entry is the highest quality
		m.Thumbnail = m.Thumbnails[len(m.Thumbnails)-1].URL
	}

	if m.Title == "" && len(m.Entries) > 0 && m.Entries[0] != nil {
		first := m.Entries[0]
		m.Title = first.Title
		if m.Thumbnail == "" {
			m.Thumbnail = first.Thumbnail
			if m.Thumbnail == "" && len(first.Thumbnails) > 0 {
				m.Thumbnail = first.Thumbnails[len(first.Thumbnails)-1].URL
			}
		}
	}

	m.HasSubtitles = len(m.Subtitles) > 0 || len(m.AutomaticCaptions) > 0
	m.IsLive = m.IsLive || m.WasLive
}
