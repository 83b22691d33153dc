package ytdlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/mediadl/internal/model"
)

// Output markers
const (
	MarkerDownload  = "[download]"
	MarkerError     = "ERROR:"
	MarkerTraceback = "Traceback"

	// PostProcessPercent is reported while post-processors run
	PostProcessPercent = 99.0
)

// PostProcessStage identifies the post-processor a line belongs to
type PostProcessStage string

const (
	StageNone     PostProcessStage = ""
	StageMerger   PostProcessStage = "merger"
	StageExtract  PostProcessStage = "extract"
	StageConvert  PostProcessStage = "convert"
	StageFixup    PostProcessStage = "fixup"
	StageMetadata PostProcessStage = "metadata"
)

// postProcessMarkers are checked in order
var postProcessMarkers = []struct {
	marker string
	stage  PostProcessStage
}{
	{"[Merger]", StageMerger},
	{"[ExtractAudio]", StageExtract},
	{"[VideoConvertor]", StageConvert},
	{"[Fixup", StageFixup},
	{"[Metadata]", StageMetadata},
}

var (
	percentPattern = regexp.MustCompile(`(\d+\.?\d*)%`)
	speedPattern   = regexp.MustCompile(`at\s+(\d+\.?\d*\w+/s)`)
	etaPattern     = regexp.MustCompile(`ETA\s+(\S+)`)
	sizePattern    = regexp.MustCompile(`of\s+([~0-9.]+\w+)`)
)

// ProgressUpdate is a partial progress report decoded from one output line
type ProgressUpdate struct {
	Percent   float64
	Speed     string
	ETA       string
	TotalSize string // empty when the line carries no size
	Stage     PostProcessStage
}

// IsPostProcess reports whether the update comes from a post-processor line
func (p ProgressUpdate) IsPostProcess() bool {
	return p.Stage != StageNone
}

// StatusText describes the running post-processor
func (s PostProcessStage) StatusText() string {
	switch s {
	case StageMerger:
		return "Merging audio and video..."
	case StageExtract:
		return "Extracting audio..."
	case StageConvert:
		return "Converting format..."
	case StageFixup:
		return "Fixing container..."
	case StageMetadata:
		return "Writing metadata..."
	default:
		return "Processing..."
	}
}

// ParseProgress decodes a progress or post-processing line.
// Download lines without a percentage are not progress.
func ParseProgress(line string) (ProgressUpdate, bool) {
	if strings.Contains(line, MarkerDownload) {
		m := percentPattern.FindStringSubmatch(line)
		if m == nil {
			return ProgressUpdate{}, false
		}
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return ProgressUpdate{}, false
		}
		update := ProgressUpdate{
			Percent: min(percent, 100),
			Speed:   model.UnknownValue,
			ETA:     model.UnknownValue,
		}
		if s := speedPattern.FindStringSubmatch(line); s != nil {
			update.Speed = s[1]
		}
		if e := etaPattern.FindStringSubmatch(line); e != nil {
			update.ETA = e[1]
		}
		if t := sizePattern.FindStringSubmatch(line); t != nil {
			update.TotalSize = t[1]
		}
		return update, true
	}

	if stage := postProcessStage(line); stage != StageNone {
		return ProgressUpdate{
			Percent: PostProcessPercent,
			Speed:   model.UnknownValue,
			ETA:     model.UnknownValue,
			Stage:   stage,
		}, true
	}
	return ProgressUpdate{}, false
}

func postProcessStage(line string) PostProcessStage {
	for _, m := range postProcessMarkers {
		if strings.Contains(line, m.marker) {
			return m.stage
		}
	}
	return StageNone
}

// LineKind tags a line of process output before it is dispatched
type LineKind int

const (
	LineUnrecognized LineKind = iota
	LineProgress
	LinePostProcess
	LineJSON
	LineError
)

func (k LineKind) String() string {
	switch k {
	case LineProgress:
		return "progress"
	case LinePostProcess:
		return "postprocess"
	case LineJSON:
		return "json"
	case LineError:
		return "error"
	default:
		return "unrecognized"
	}
}

// ClassifyLine tags one line of yt-dlp output. Error markers win over everything else.
func ClassifyLine(line string) LineKind {
	switch {
	case IsErrorLine(line):
		return LineError
	case strings.HasPrefix(strings.TrimSpace(line), "{"):
		return LineJSON
	case strings.Contains(line, MarkerDownload) && percentPattern.MatchString(line):
		return LineProgress
	case postProcessStage(line) != StageNone:
		return LinePostProcess
	default:
		return LineUnrecognized
	}
}

// IsErrorLine reports whether the line starts with an error or traceback marker.
// One leading component tag such as "[download]" may precede ERROR:, so titles
// and paths that merely contain the marker do not count.
func IsErrorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, MarkerTraceback) {
		return true
	}
	if strings.HasPrefix(trimmed, "[") {
		if end := strings.IndexByte(trimmed, ']'); end > 0 {
			trimmed = strings.TrimSpace(trimmed[end+1:])
		}
	}
	return strings.HasPrefix(trimmed, MarkerError)
}
