// Package placement expands command-line inputs into files and moves cleaned
// outputs to where the user asked for them.
package placement

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"metascrub/internal/config"
	"metascrub/internal/logging"
	"metascrub/internal/processor"
)

// Outcome describes one relocation.
type Outcome struct {
	From        string
	To          string
	Overwrote   bool
	SkippedDest bool
	Err         error
}

// Placer relocates cleaned outputs under an overwrite policy.
type Placer struct {
	log       *logging.Logger
	overwrite string
}

func New(log *logging.Logger, overwrite string) *Placer {
	if overwrite == "" {
		overwrite = config.OverwriteWarn
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Placer{log: log, overwrite: overwrite}
}

// Collect expands args into the files to process. Files are taken as given;
// directories are walked recursively without following symlinks. exclude, if
// set, names a directory that is never descended into (typically the output
// directory). Walked files are returned in lexical order after the explicit
// files that precede them.
func Collect(args []string, exclude string) ([]string, error) {
	var excludeAbs string
	if exclude != "" {
		abs, err := filepath.Abs(exclude)
		if err != nil {
			return nil, err
		}
		excludeAbs = filepath.Clean(abs)
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		walked, err := walkDir(arg, excludeAbs)
		if err != nil {
			return nil, err
		}
		files = append(files, walked...)
	}
	return files, nil
}

func walkDir(root, excludeAbs string) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if excludeAbs != "" && path != root {
				if abs, absErr := filepath.Abs(path); absErr == nil && isWithin(abs, excludeAbs) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), processor.TempPrefix) {
			return nil
		}

		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// SaveAs moves a single output to dest, an explicit file path chosen by the
// user. The overwrite policy does not apply: choosing dest is consent.
func (p *Placer) SaveAs(output, dest string) Outcome {
	out := Outcome{From: output, To: dest}
	if filepath.Clean(output) == filepath.Clean(dest) {
		return out
	}
	if _, err := os.Stat(dest); err == nil {
		out.Overwrote = true
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		out.Err = &processor.Error{Kind: processor.IOError, Err: err}
		return out
	}
	if err := move(output, dest); err != nil {
		out.Err = &processor.Error{Kind: processor.IOError, Err: err}
		return out
	}
	p.log.Moved(output, dest)
	return out
}

// MoveInto moves each output into dir under its own base name, applying the
// overwrite policy when a file of that name already exists.
func (p *Placer) MoveInto(outputs []string, dir string) []Outcome {
	outcomes := make([]Outcome, 0, len(outputs))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		for _, output := range outputs {
			outcomes = append(outcomes, Outcome{From: output, Err: &processor.Error{Kind: processor.IOError, Err: err}})
		}
		return outcomes
	}

	for _, output := range outputs {
		dest := filepath.Join(dir, filepath.Base(output))
		out := Outcome{From: output, To: dest}

		if filepath.Clean(output) == filepath.Clean(dest) {
			outcomes = append(outcomes, out)
			continue
		}

		if _, err := os.Stat(dest); err == nil {
			switch p.overwrite {
			case config.OverwriteSkip:
				p.log.Warn("destination exists, leaving output in place", "output", output, "dest", dest)
				out.To = output
				out.SkippedDest = true
				outcomes = append(outcomes, out)
				continue
			case config.OverwriteWarn:
				p.log.Warn("overwriting existing file", "dest", dest)
			}
			out.Overwrote = true
		}

		if err := move(output, dest); err != nil {
			out.Err = &processor.Error{Kind: processor.IOError, Err: err}
			p.log.Warn("cannot move output", "output", output, "dest", dest, "err", err)
			outcomes = append(outcomes, out)
			continue
		}
		p.log.Moved(output, dest)
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// move renames src to dst, copying across filesystems when rename fails.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ErrSaveAsNeedsOneFile is returned when --save-as is combined with more than
// one input file.
var ErrSaveAsNeedsOneFile = errors.New("--save-as requires exactly one input file")
