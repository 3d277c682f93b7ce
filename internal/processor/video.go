package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"metascrub/pkg/filekind"
)

// waitDelay bounds how long Wait blocks on output pipes after the
// transcoder has been killed.
const waitDelay = 2 * time.Second

// CleanVideo remuxes an MP4 or MOV file through ffmpeg with all global,
// stream and chapter metadata dropped. Streams are copied, not re-encoded.
func (p *Processor) CleanVideo(ctx context.Context, path string) (string, error) {
	out := OutputPath(path, filekind.Video)

	bin, err := exec.LookPath(p.opts.FFmpegPath)
	if err != nil {
		return "", errorf(MissingExternalTool,
			"%s not found; install ffmpeg and make sure it is on PATH", p.opts.FFmpegPath)
	}

	input, err := toolInput(path)
	if err != nil {
		return "", newError(IOError, err)
	}

	tmp, err := reserveTemp(out)
	if err != nil {
		return "", newError(IOError, err)
	}
	defer os.Remove(tmp)

	runCtx := ctx
	if p.opts.VideoTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.opts.VideoTimeout)
		defer cancel()
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", input,
		"-map_metadata", "-1",
		"-map_chapters", "-1",
		"-fflags", "+bitexact",
		"-c", "copy",
		"-f", videoMuxer(out),
		tmp,
	}
	cmd := exec.CommandContext(runCtx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", errorf(ExternalToolFailure, "ffmpeg timed out after %s", p.opts.VideoTimeout)
		}
		if ctx.Err() != nil {
			return "", newError(IOError, ctx.Err())
		}
		return "", errorf(ExternalToolFailure, "ffmpeg failed: %s", toolReason(stderr.String(), err))
	}

	if _, err := os.Stat(tmp); err != nil {
		return "", errorf(ExternalToolFailure, "ffmpeg exited successfully but output not produced")
	}
	if err := os.Chmod(tmp, fileMode(path)); err != nil {
		return "", newError(IOError, err)
	}
	if err := replaceFile(tmp, out); err != nil {
		return "", newError(IOError, err)
	}
	return out, nil
}

// toolInput makes path absolute so ffmpeg never reads a name such as
// "http:clip.mp4" or "concat:a.mp4" as a protocol URL.
func toolInput(path string) (string, error) {
	return filepath.Abs(path)
}

func videoMuxer(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mov") {
		return "mov"
	}
	return "mp4"
}

// toolReason condenses a tool's stderr to its last non-empty line.
func toolReason(stderr string, runErr error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return fmt.Sprint(runErr)
}
