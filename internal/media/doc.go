package media

// Package media inspects finished downloads. ISO BMFF files (mp4, m4a, mov)
// are parsed for duration and box layout; other containers report size only.
