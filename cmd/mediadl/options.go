package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ytget/mediadl/internal/config"
	"github.com/ytget/mediadl/internal/model"
)

// cliFlags holds the parsed command line
type cliFlags struct {
	format        string
	resolution    string
	container     string
	audioFormat   string
	audioBitrate  string
	videoCodec    string
	output        string
	name          string
	start         string
	end           string
	cookies       string
	subtitles     bool
	sponsors      bool
	liveStart     bool
	splitChapters bool
	normalize     bool
	transcode     bool

	parallel    int
	playlist    bool
	compress    bool
	preset      string
	desktop     bool
	verbose     bool
	noHistory   bool
	showVersion bool

	args []string
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] URL...\n       %s -compress [flags] FILE...\n\nFlags:\n", AppName, AppName)
		fs.PrintDefaults()
	}

	fs.StringVar(&f.format, "format", "", "output kind: video, audio or gif")
	fs.StringVar(&f.resolution, "resolution", "", `"best" or a height such as 1080`)
	fs.StringVar(&f.container, "container", "", "merge container, e.g. mp4 or mkv")
	fs.StringVar(&f.audioFormat, "audio-format", "", "audio target: mp3, m4a, opus, flac, wav, aac")
	fs.StringVar(&f.audioBitrate, "audio-bitrate", "", "audio bitrate in kbit/s")
	fs.StringVar(&f.videoCodec, "codec", "", "preferred video codec: auto, h264, av1, vp9, hevc")
	fs.StringVar(&f.output, "o", "", "download folder (relative paths are inside the default folder)")
	fs.StringVar(&f.name, "name", "", "filename template, e.g. {uploader} - {title}")
	fs.StringVar(&f.start, "start", "", "clip start time")
	fs.StringVar(&f.end, "end", "", "clip end time")
	fs.StringVar(&f.cookies, "cookies", "", "cookies.txt file for these downloads")
	fs.BoolVar(&f.subtitles, "subs", false, "download subtitles")
	fs.BoolVar(&f.sponsors, "sponsorblock", false, "remove sponsor segments")
	fs.BoolVar(&f.liveStart, "live-from-start", false, "record live streams from the beginning")
	fs.BoolVar(&f.splitChapters, "split-chapters", false, "write one file per chapter")
	fs.BoolVar(&f.normalize, "normalize", false, "normalize audio loudness")
	fs.BoolVar(&f.transcode, "transcode", false, "force re-encoding to the requested codec")

	fs.IntVar(&f.parallel, "j", 0, "parallel downloads (0 uses the saved setting)")
	fs.BoolVar(&f.playlist, "playlist", false, "treat every URL as a playlist")
	fs.BoolVar(&f.compress, "compress", false, "compress local files instead of downloading")
	fs.StringVar(&f.preset, "preset", string(model.PresetBalanced), "compression preset: balanced, social, archive, whatsapp")
	fs.BoolVar(&f.desktop, "desktop", false, "use saved desktop preferences and notifications")
	fs.BoolVar(&f.verbose, "v", false, "print task log lines")
	fs.BoolVar(&f.noHistory, "no-history", false, "do not load or save the task history")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.args = fs.Args()
	return f, nil
}

// downloadOptions converts flags into the per-task request
func (f *cliFlags) downloadOptions() (model.DownloadOptions, error) {
	format, err := model.ParseFormat(f.format)
	if err != nil {
		return model.DownloadOptions{}, err
	}
	codec, err := model.ParseVideoCodec(f.videoCodec)
	if err != nil {
		return model.DownloadOptions{}, err
	}

	return model.DownloadOptions{
		Path:               f.output,
		RangeStart:         strings.TrimSpace(f.start),
		RangeEnd:           strings.TrimSpace(f.end),
		Format:             format,
		Resolution:         f.resolution,
		Container:          f.container,
		AudioBitrate:       f.audioBitrate,
		AudioFormat:        model.AudioFormat(strings.ToLower(f.audioFormat)),
		VideoCodec:         codec,
		Subtitles:          f.subtitles,
		RemoveSponsors:     f.sponsors,
		LiveFromStart:      f.liveStart,
		SplitChapters:      f.splitChapters,
		AudioNormalization: f.normalize,
		ForceTranscode:     f.transcode,
		CustomFilename:     f.name,
		Cookies:            f.cookies,
	}, nil
}

// overrides applies flags that replace global settings for this run
func (f *cliFlags) overrides(a config.AppSettings) config.AppSettings {
	if f.parallel > 0 {
		a.ConcurrentDownloads = f.parallel
	}
	return a
}
