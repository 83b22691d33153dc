package ytdlp

import (
	"errors"
	"slices"
	"testing"
)

func TestParseMetadataDump(t *testing.T) {
	tests := []struct {
		name          string
		lines         []string
		expectedTitle string
		expectedURLs  []string
		merging       bool
		degraded      bool
	}{
		{
			name: "merged formats",
			lines: []string{
				"[youtube] Extracting URL",
				`{"id":"abc","title":"First","ext":"mp4","requested_formats":[{"url":"https://v"},{"url":"https://a"}]}`,
			},
			expectedTitle: "First",
			expectedURLs:  []string{"https://v", "https://a"},
			merging:       true,
		},
		{
			name:          "single url",
			lines:         []string{`{"id":"x","title":"Single","url":"https://direct"}`},
			expectedTitle: "Single",
			expectedURLs:  []string{"https://direct"},
		},
		{
			name: "last titled object wins",
			lines: []string{
				`{"id":"1","title":"Old"}`,
				`{"url":"https://no-title"}`,
				`{"id":"2","title":"New"}`,
			},
			expectedTitle: "New",
			expectedURLs:  []string{"https://no-title"},
		},
		{
			name:          "malformed json falls back",
			lines:         []string{`{"id":"1","title":`, "WARNING: something"},
			expectedTitle: FallbackTitle,
			degraded:      true,
		},
		{
			name:          "title without id is not authoritative",
			lines:         []string{`{"title":"No id"}`},
			expectedTitle: FallbackTitle,
			degraded:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseMetadataDump(tt.lines)
			if res.Meta == nil {
				t.Fatal("Meta is nil")
			}
			if res.Meta.Title != tt.expectedTitle {
				t.Errorf("Title = %q, expected %q", res.Meta.Title, tt.expectedTitle)
			}
			if !slices.Equal(res.StreamURLs, tt.expectedURLs) {
				t.Errorf("StreamURLs = %v, expected %v", res.StreamURLs, tt.expectedURLs)
			}
			if res.NeedsMerging != tt.merging {
				t.Errorf("NeedsMerging = %v, expected %v", res.NeedsMerging, tt.merging)
			}
			if res.Degraded != tt.degraded {
				t.Errorf("Degraded = %v, expected %v", res.Degraded, tt.degraded)
			}
			if tt.degraded && (res.Meta.Ext != "mp4" || res.Meta.ID != FallbackID) {
				t.Errorf("fallback meta = %+v", res.Meta)
			}
		})
	}
}

func TestParseTopLevelJSON(t *testing.T) {
	tests := []struct {
		name          string
		stdout        string
		expectedTitle string
		expectedID    string
		expectedThumb string
		hasSubs       bool
		isLive        bool
	}{
		{
			name:          "json on last line",
			stdout:        "WARNING: slow\n" + `{"id":"a1","title":"Clip","thumbnails":[{"url":"low"},{"url":"high"}]}` + "\n",
			expectedTitle: "Clip",
			expectedID:    "a1",
			expectedThumb: "high",
		},
		{
			name:          "playlist entry fallback",
			stdout:        `{"id":"PL1","entries":[{"id":"v1","title":"Entry","thumbnail":"entry.jpg"}]}`,
			expectedTitle: "Entry",
			expectedID:    "PL1",
			expectedThumb: "entry.jpg",
		},
		{
			name:          "subtitles and live flags",
			stdout:        `{"id":"s","title":"Subs","automatic_captions":{"en":[]},"was_live":true}`,
			expectedTitle: "Subs",
			expectedID:    "s",
			hasSubs:       true,
			isLive:        true,
		},
		{
			name:          "first brace with prefix text",
			stdout:        `WARNING: [youtube] nsig {"id":"fb","title":"Braced"}`,
			expectedTitle: "Braced",
			expectedID:    "fb",
		},
		{
			name:          "regex salvage",
			stdout:        "ERROR junk {\"id\": \"rx\", \"title\": \"Say \\\"hi\\\"\", broken",
			expectedTitle: `Say "hi"`,
			expectedID:    "rx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseTopLevelJSON(tt.stdout)
			if err != nil {
				t.Fatalf("ParseTopLevelJSON() error = %v", err)
			}
			if meta.Title != tt.expectedTitle {
				t.Errorf("Title = %q, expected %q", meta.Title, tt.expectedTitle)
			}
			if meta.ID != tt.expectedID {
				t.Errorf("ID = %q, expected %q", meta.ID, tt.expectedID)
			}
			if meta.Thumbnail != tt.expectedThumb {
				t.Errorf("Thumbnail = %q, expected %q", meta.Thumbnail, tt.expectedThumb)
			}
			if meta.HasSubtitles != tt.hasSubs {
				t.Errorf("HasSubtitles = %v, expected %v", meta.HasSubtitles, tt.hasSubs)
			}
			if meta.IsLive != tt.isLive {
				t.Errorf("IsLive = %v, expected %v", meta.IsLive, tt.isLive)
			}
		})
	}
}

func TestParseTopLevelJSON_Invalid(t *testing.T) {
	_, err := ParseTopLevelJSON("ERROR: Video unavailable\n")
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("error = %v, expected ErrInvalidOutput", err)
	}
}

func TestMetaStrategiesOrder(t *testing.T) {
	var names []string
	for _, s := range metaStrategies {
		names = append(names, s.name)
	}
	expected := []string{"last-json-line", "first-brace", "regex-salvage"}
	if !slices.Equal(names, expected) {
		t.Errorf("strategies = %v, expected %v", names, expected)
	}
}
