package processor

import (
	"bufio"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"metascrub/pkg/filekind"
)

// CleanImage writes a metadata-free copy of a JPEG or PNG image.
//
// By default the pixels are decoded and re-encoded, which drops every
// metadata block the encoder does not write itself. In lossless mode the
// container is rewritten segment by segment instead; the image is still
// decoded first so corrupt inputs fail the same way in both modes.
func (p *Processor) CleanImage(ctx context.Context, path string) (string, error) {
	out := OutputPath(path, filekind.RasterImage)

	src, err := os.Open(path)
	if err != nil {
		return "", errorf(DecodeError, "cannot open image: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(bufio.NewReader(src))
	if err != nil {
		return "", errorf(DecodeError, "cannot decode image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", newError(IOError, err)
	}

	var write func(w io.Writer) error
	if p.opts.Lossless {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return "", newError(IOError, err)
		}
		sig, err := filekind.SniffReader(src)
		if err != nil {
			return "", errorf(DecodeError, "cannot read image header: %w", err)
		}
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return "", newError(IOError, err)
		}
		write = func(w io.Writer) error {
			var err error
			switch sig {
			case filekind.SigJPEG:
				err = stripJPEGSegments(src, w, p.opts.PreserveICC)
			case filekind.SigPNG:
				err = stripPNGChunks(src, w, p.opts.PreserveICC)
			default:
				return errorf(DecodeError, "unrecognised image container %s", sig)
			}
			if err != nil {
				return errorf(EncodeError, "cannot rewrite image: %w", err)
			}
			return nil
		}
	} else {
		quality := p.opts.JPEGQuality
		write = func(w io.Writer) error {
			bw := bufio.NewWriter(w)
			var err error
			if strings.EqualFold(filepath.Ext(path), ".png") {
				err = png.Encode(bw, img)
			} else {
				err = jpeg.Encode(bw, img, &jpeg.Options{Quality: quality})
			}
			if err == nil {
				err = bw.Flush()
			}
			if err != nil {
				return errorf(EncodeError, "cannot encode image: %w", err)
			}
			return nil
		}
	}

	if err := writeAtomic(out, fileMode(path), write); err != nil {
		return "", err
	}
	return out, nil
}
