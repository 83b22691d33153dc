package ytdlp

// Package ytdlp turns download options into yt-dlp argument vectors and reads
// yt-dlp output back: metadata dumps, progress lines, error text and output
// filenames. Nothing in this package performs I/O or starts processes.
