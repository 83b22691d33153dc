package compress

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	durationRe = regexp.MustCompile(`Duration:\s+(\d+:\d+:\d+(?:\.\d+)?)`)
	progressKV = regexp.MustCompile(`^[a-z_0-9]+=\S*$`)
)

// ParseDurationLine extracts the input duration in seconds from ffmpeg's stream summary
func ParseDurationLine(line string) (float64, bool) {
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	seconds := ParseClock(m[1])
	return seconds, seconds > 0
}

// ParseOutTime reads an out_time_us progress pair and returns seconds
func ParseOutTime(line string) (float64, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ProgressTimePrefix) {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return float64(us) / 1e6, true
}

// ParseClock converts HH:MM:SS.ss, MM:SS.ss or SS.ss to seconds. Invalid input yields 0.
func ParseClock(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// Percent converts elapsed output time into a 0..100 value
func Percent(elapsed, total float64) float64 {
	if total <= 0 || elapsed <= 0 {
		return 0
	}
	p := elapsed / total * 100
	if p > 100 {
		return 100
	}
	return p
}

// isProgressPair reports whether line is one of the -progress key=value pairs
func isProgressPair(line string) bool {
	return progressKV.MatchString(strings.TrimSpace(line))
}
