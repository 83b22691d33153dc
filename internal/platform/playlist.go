package platform

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/mediadl/internal/model"
	"github.com/ytget/mediadl/internal/process"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultPlaylistParseTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

// Default values
const (
	DefaultDuration      = "Unknown"
	DefaultPlaylistTitle = "Untitled Playlist"
	PlaylistSuffix       = " Playlist"
	MinPrefixLength      = 10
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Time formatting constants
const (
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
	TimeFormat       = "%02d"
)

// PlaylistItem is one entry returned by a lister
type PlaylistItem struct {
	VideoID  string
	Title    string
	URL      string
	Duration string
}

// PlaylistLister lists the entries of a playlist
type PlaylistLister interface {
	ListPlaylist(ctx context.Context, url string) ([]PlaylistItem, error)
}

// LibraryLister lists YouTube playlists through the ytdlp library without
// spawning a process
type LibraryLister struct{}

// ListPlaylist fetches every item of the playlist referenced by url
func (LibraryLister) ListPlaylist(ctx context.Context, url string) ([]PlaylistItem, error) {
	playlistID, err := ExtractPlaylistID(url)
	if err != nil {
		return nil, err
	}

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	out := make([]PlaylistItem, 0, len(items))
	for _, it := range items {
		out = append(out, PlaylistItem{
			VideoID:  it.VideoID,
			Title:    it.Title,
			URL:      fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
			Duration: DefaultDuration,
		})
	}
	return out, nil
}

// FlatPlaylistLister lists any playlist yt-dlp understands with --flat-playlist
type FlatPlaylistLister struct {
	Runner     process.Runner
	BinaryPath string
}

// ListPlaylist runs yt-dlp and reads one JSON object per entry
func (f FlatPlaylistLister) ListPlaylist(ctx context.Context, url string) ([]PlaylistItem, error) {
	bin := f.BinaryPath
	if bin == "" {
		bin = YtDlpBinary
	}
	res, err := f.Runner.Run(ctx, bin, "--flat-playlist", "--dump-json", "--no-warnings", "--", url)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist: %w", err)
	}
	return parseFlatPlaylist(string(res.Stdout)), nil
}

type flatEntry struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	WebpageURL     string  `json:"webpage_url"`
	Duration       float64 `json:"duration"`
	DurationString string  `json:"duration_string"`
	IEKey          string  `json:"ie_key"`
}

// parseFlatPlaylist reads --flat-playlist JSON lines, skipping anything else
func parseFlatPlaylist(output string) []PlaylistItem {
	var items []PlaylistItem
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), process.MaxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var e flatEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil || e.ID == "" {
			continue
		}

		item := PlaylistItem{VideoID: e.ID, Title: e.Title, URL: e.WebpageURL}
		if item.URL == "" {
			item.URL = e.URL
		}
		if item.URL == "" || (e.IEKey == "Youtube" && !strings.HasPrefix(item.URL, "http")) {
			item.URL = fmt.Sprintf(YouTubeVideoURLTemplate, e.ID)
		}
		switch {
		case e.DurationString != "":
			item.Duration = e.DurationString
		case e.Duration > 0:
			item.Duration = formatDuration(int(e.Duration))
		default:
			item.Duration = DefaultDuration
		}
		items = append(items, item)
	}
	return items
}

// PlaylistParserService resolves playlist URLs into their videos
type PlaylistParserService struct {
	timeout  time.Duration
	youtube  PlaylistLister
	fallback PlaylistLister
}

// NewPlaylistParserService uses the library for YouTube list= URLs and the
// yt-dlp binary for everything else
func NewPlaylistParserService(youtube, fallback PlaylistLister) *PlaylistParserService {
	return &PlaylistParserService{
		timeout:  DefaultPlaylistParseTimeout,
		youtube:  youtube,
		fallback: fallback,
	}
}

// SetTimeout sets the timeout for playlist parsing
func (p *PlaylistParserService) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// ParsePlaylist lists the playlist at url
func (p *PlaylistParserService) ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	playlist := model.NewPlaylist(url)

	var items []PlaylistItem
	var err error
	switch {
	case IsPlaylistURL(url) && p.youtube != nil:
		playlist.ID, _ = ExtractPlaylistID(url)
		items, err = p.youtube.ListPlaylist(ctx, url)
		if err != nil && p.fallback != nil {
			items, err = p.fallback.ListPlaylist(ctx, url)
		}
	case p.fallback != nil:
		items, err = p.fallback.ListPlaylist(ctx, url)
	default:
		return nil, fmt.Errorf("invalid playlist URL: %s", url)
	}
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		playlist.AddVideo(&model.PlaylistVideo{
			ID:       it.VideoID,
			Title:    it.Title,
			Duration: it.Duration,
			URL:      it.URL,
		})
	}
	playlist.Title = extractPlaylistTitle(playlist.Videos)
	return playlist, nil
}

// IsPlaylistURL reports whether url carries a YouTube list parameter
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistURLParam)
}

// ExtractPlaylistID extracts the list= value from a YouTube URL
func ExtractPlaylistID(url string) (string, error) {
	_, after, found := strings.Cut(url, PlaylistURLParam)
	if !found {
		return "", fmt.Errorf("URL does not contain playlist parameter: %s", url)
	}
	id, _, _ := strings.Cut(after, PlaylistParamSeparator)
	if id == "" {
		return "", fmt.Errorf("empty playlist ID in URL: %s", url)
	}
	return id, nil
}

// formatDuration formats seconds into HH:MM:SS or MM:SS
func formatDuration(seconds int) string {
	hours := seconds / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	if hours > 0 {
		return fmt.Sprintf(TimeFormat+":"+TimeFormat+":"+TimeFormat, hours, minutes, secs)
	}
	return fmt.Sprintf(TimeFormat+":"+TimeFormat, minutes, secs)
}

// extractPlaylistTitle uses the common prefix of the first titles, or the first title
func extractPlaylistTitle(videos []*model.PlaylistVideo) string {
	if len(videos) == 0 {
		return DefaultPlaylistTitle
	}
	if len(videos) > 1 {
		prefix := commonPrefix(videos[0].Title, videos[1].Title)
		if len(prefix) > MinPrefixLength {
			return strings.TrimSpace(prefix) + PlaylistSuffix
		}
	}
	return videos[0].Title + PlaylistSuffix
}

func commonPrefix(s1, s2 string) string {
	n := min(len(s1), len(s2))
	for i := 0; i < n; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:n]
}
