package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"metascrub/internal/logging"
	"metascrub/pkg/filekind"
)

// Processor classifies input files and dispatches them to the handler for
// their family. It is safe to reuse across runs but processes one file at a
// time.
type Processor struct {
	log  *logging.Logger
	opts Options
}

func New(log *logging.Logger, opts Options) *Processor {
	defaults := DefaultOptions()
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = defaults.JPEGQuality
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = defaults.FFmpegPath
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = defaults.FFprobePath
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Processor{log: log, opts: opts}
}

func (p *Processor) Options() Options {
	return p.opts
}

// Classify maps path to its file family by extension.
func (p *Processor) Classify(path string) filekind.Kind {
	return filekind.Classify(path)
}

// Process cleans a single file and writes exactly one log line for it.
func (p *Processor) Process(ctx context.Context, path string) Result {
	return p.process(ctx, p.log, path)
}

func (p *Processor) process(ctx context.Context, log *logging.Logger, path string) (res Result) {
	kind := filekind.Classify(path)
	res = Result{Path: path, Kind: kind}

	if kind == filekind.Unsupported {
		res.Err = newError(UnsupportedFormat, ErrUnsupported)
		log.Skipped(path)
		return res
	}

	leaks := p.countLeaks(path, kind)

	output, err := p.clean(ctx, kind, path)
	if err != nil {
		res.Err = asError(err)
		log.Failed(kind.Tag(), path, res.Reason())
		return res
	}

	res.Output = output
	res.Leaks = leaks
	if in, err := os.Stat(path); err == nil {
		if out, err := os.Stat(output); err == nil {
			res.BytesSaved = in.Size() - out.Size()
		}
	}
	log.Cleaned(kind.Tag(), path, output)
	return res
}

func (p *Processor) clean(ctx context.Context, kind filekind.Kind, path string) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			output, err = "", errorf(DecodeError, "unexpected failure: %v", r)
		}
	}()

	switch kind {
	case filekind.RasterImage:
		return p.CleanImage(ctx, path)
	case filekind.PDFDocument:
		return p.CleanPDF(ctx, path)
	case filekind.WordDocument:
		return p.CleanDocument(ctx, path)
	case filekind.Spreadsheet:
		return p.CleanSpreadsheet(ctx, path)
	case filekind.Presentation:
		return p.CleanPresentation(ctx, path)
	case filekind.Video:
		return p.CleanVideo(ctx, path)
	default:
		return "", newError(UnsupportedFormat, ErrUnsupported)
	}
}

// countLeaks counts the metadata entries a scan finds in path before it is
// cleaned. Inspection failures count as zero.
func (p *Processor) countLeaks(path string, kind filekind.Kind) (n int) {
	if kind == filekind.Video {
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	report, err := p.Inspect(path)
	if err != nil {
		return 0
	}
	for _, d := range report.Details {
		n += len(d.Values)
	}
	return n
}

// Run processes paths sequentially in the order given. Progress is reported
// on updates (which may be nil); a cancelled ctx stops the run between files.
// The first missing external tool is surfaced once as a Notice.
func (p *Processor) Run(ctx context.Context, paths []string, updates chan<- ProgressUpdate) (Summary, []Result) {
	summary := Summary{Total: len(paths)}
	results := make([]Result, 0, len(paths))

	runLog := p.log.With("run", uuid.NewString())
	send := func(u ProgressUpdate) {
		if updates != nil {
			updates <- u
		}
	}

	send(ProgressUpdate{TotalDelta: len(paths)})

	notified := false
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		send(ProgressUpdate{Current: path})
		res := p.process(ctx, runLog, path)
		results = append(results, res)
		summary.add(res)

		update := ProgressUpdate{ProcessedDelta: 1, Current: path}
		switch {
		case res.Produced():
			update.CleanedDelta = 1
			update.LeakDelta = res.Leaks
			update.BytesSavedDelta = res.BytesSaved
		case res.ErrorKind() == UnsupportedFormat:
			update.SkippedDelta = 1
		default:
			update.ErrorDelta = 1
			if res.ErrorKind() == MissingExternalTool && !notified {
				notified = true
				update.Notice = fmt.Sprintf("Cannot clean %s: %s", res.Path, res.Reason())
			}
		}
		send(update)
	}

	return summary, results
}
