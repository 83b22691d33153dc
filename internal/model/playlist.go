package model

// PlaylistVideo represents a single video in a playlist
type PlaylistVideo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	URL      string `json:"url"`
}

// Playlist represents a playlist resolved into individual video URLs
type Playlist struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	URL    string           `json:"url"`
	Videos []*PlaylistVideo `json:"videos"`
}

// NewPlaylist creates a new playlist instance
func NewPlaylist(url string) *Playlist {
	return &Playlist{
		URL:    url,
		Videos: make([]*PlaylistVideo, 0),
	}
}

// AddVideo adds a video to the playlist
func (p *Playlist) AddVideo(video *PlaylistVideo) {
	p.Videos = append(p.Videos, video)
}

// VideoURLs returns the video URLs in playlist order, skipping empty ones
func (p *Playlist) VideoURLs() []string {
	urls := make([]string, 0, len(p.Videos))
	for _, v := range p.Videos {
		if v.URL != "" {
			urls = append(urls, v.URL)
		}
	}
	return urls
}
