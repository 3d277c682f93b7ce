package processor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// scanVideo lists container and stream tags reported by ffprobe.
func (p *Processor) scanVideo(path string) (detailSet, error) {
	bin, err := exec.LookPath(p.opts.FFprobePath)
	if err != nil {
		return nil, errorf(MissingExternalTool,
			"%s not found; install ffmpeg and make sure it is on PATH", p.opts.FFprobePath)
	}

	input, err := toolInput(path)
	if err != nil {
		return nil, newError(IOError, err)
	}

	ctx := context.Background()
	if p.opts.VideoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.VideoTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format_tags:stream_tags",
		"-of", "default=noprint_wrappers=1",
		input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	if err := cmd.Run(); err != nil {
		return nil, errorf(ExternalToolFailure, "ffprobe failed: %s", toolReason(stderr.String(), err))
	}

	set := detailSet{}
	for _, line := range strings.Split(stdout.String(), "\n") {
		tag, ok := strings.CutPrefix(strings.TrimSpace(line), "TAG:")
		if !ok {
			continue
		}
		key, value, _ := strings.Cut(tag, "=")
		set.add(key, value)
	}
	return set, nil
}
