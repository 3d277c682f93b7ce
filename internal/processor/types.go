package processor

import (
	"time"

	"metascrub/pkg/filekind"
)

type Options struct {
	JPEGQuality  int
	Lossless     bool
	PreserveICC  bool
	FFmpegPath   string
	FFprobePath  string
	VideoTimeout time.Duration
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		JPEGQuality:  95,
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		VideoTimeout: 10 * time.Minute,
	}
}

// Result is the outcome of processing one input: Produced when Output is
// set, Failed when Err is set.
type Result struct {
	Path       string
	Kind       filekind.Kind
	Output     string
	Err        error
	BytesSaved int64
	Leaks      int
}

// Produced reports whether a cleaned output was written.
func (r Result) Produced() bool {
	return r.Err == nil && r.Output != ""
}

// Reason returns the human-readable failure cause, or "" on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ErrorKind returns the classified failure kind.
func (r Result) ErrorKind() ErrorKind {
	return KindOf(r.Err)
}

type Summary struct {
	Total       int
	Processed   int
	Cleaned     int
	Errors      int
	Unsupported int
	Leaks       int
	BytesSaved  int64
	MissingTool bool
}

func (s *Summary) add(res Result) {
	s.Processed++
	switch {
	case res.Produced():
		s.Cleaned++
		s.Leaks += res.Leaks
		s.BytesSaved += res.BytesSaved
	case res.ErrorKind() == UnsupportedFormat:
		s.Unsupported++
	default:
		s.Errors++
		if res.ErrorKind() == MissingExternalTool {
			s.MissingTool = true
		}
	}
}

type ScanReport struct {
	Path     string
	Kind     filekind.Kind
	Details  []ScanDetail
	Insights []ScanInsight
}

type ScanDetail struct {
	Category string
	Values   []string
}

type ScanInsight struct {
	Kind    string
	Message string
}

type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	CleanedDelta    int
	ErrorDelta      int
	SkippedDelta    int
	LeakDelta       int
	BytesSavedDelta int64
	Current         string
	Notice          string
}
