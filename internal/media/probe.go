package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Box types that decide the layout
const (
	boxMoov = "moov"
	boxMdat = "mdat"
)

// ErrMalformed is returned for ISO BMFF files whose box tree cannot be decoded
var ErrMalformed = errors.New("malformed media file")

// isoExtensions are the containers mp4ff can decode
var isoExtensions = map[string]bool{
	".mp4": true,
	".m4a": true,
	".m4v": true,
	".mov": true,
	".3gp": true,
}

// Info describes a media file on disk
type Info struct {
	Path     string
	Size     int64
	Duration time.Duration

	// Inspected is false when the container was not parsed
	Inspected bool
	// FastStart is true when moov precedes mdat, so playback can begin before the file is fully read
	FastStart  bool
	Fragmented bool
}

// IsISOBMFF reports whether path has an extension Probe can parse
func IsISOBMFF(path string) bool {
	return isoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Probe returns size and, for ISO BMFF files, duration and layout of path.
// Media data is skipped, so large files are cheap to inspect.
func Probe(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	info := Info{Path: path, Size: stat.Size()}
	if !IsISOBMFF(path) {
		return info, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	parsed, err := decode(file)
	if err != nil {
		return info, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	info.Inspected = true
	info.Fragmented = parsed.IsFragmented()
	info.FastStart = moovFirst(parsed)
	if parsed.Moov != nil && parsed.Moov.Mvhd != nil {
		info.Duration = scaledDuration(parsed.Moov.Mvhd.Duration, parsed.Moov.Mvhd.Timescale)
	}
	return info, nil
}

// decode parses the box tree without reading media data. mp4ff panics on a moov
// whose first trak lacks a sample table, so the panic is returned as ErrMalformed.
func decode(file *os.File) (parsed *mp4.File, err error) {
	defer func() {
		if p := recover(); p != nil {
			parsed, err = nil, fmt.Errorf("%w: %v", ErrMalformed, p)
		}
	}()
	return mp4.DecodeFile(file, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
}

func moovFirst(f *mp4.File) bool {
	for _, box := range f.Children {
		switch box.Type() {
		case boxMoov:
			return true
		case boxMdat:
			return false
		}
	}
	return false
}

func scaledDuration(units uint64, timescale uint32) time.Duration {
	if timescale == 0 {
		return 0
	}
	seconds := units / uint64(timescale)
	rest := units % uint64(timescale)
	return time.Duration(seconds)*time.Second + time.Duration(rest)*time.Second/time.Duration(timescale)
}
