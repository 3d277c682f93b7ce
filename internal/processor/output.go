package processor

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"metascrub/pkg/filekind"
)

// CleanSuffix is appended to the input stem to name its cleaned output.
const CleanSuffix = "_clean"

// TempPrefix marks in-flight outputs; directory walks ignore such files.
const TempPrefix = ".metascrub-"

// OutputPath returns the sibling path a cleaned copy of path is written to:
// <stem>_clean<ext>. Documents get their canonical lowercase extension; images
// and videos keep the original one.
func OutputPath(path string, kind filekind.Kind) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	switch kind {
	case filekind.PDFDocument:
		ext = ".pdf"
	case filekind.WordDocument:
		ext = ".docx"
	case filekind.Spreadsheet:
		ext = ".xlsx"
	case filekind.Presentation:
		ext = ".pptx"
	}
	return stem + CleanSuffix + ext
}

// writeAtomic streams write into a temp file next to dest and renames it into
// place once complete. Nothing is left at dest when write fails.
func writeAtomic(dest string, perm os.FileMode, write func(w io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), TempPrefix+"*.tmp")
	if err != nil {
		return newError(IOError, err)
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return newError(IOError, err)
	}

	if err := write(tmpFile); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return newError(IOError, err)
	}
	if err := tmpFile.Close(); err != nil {
		return newError(IOError, err)
	}

	if err := replaceFile(tmpFile.Name(), dest); err != nil {
		return newError(IOError, err)
	}
	return nil
}

// reserveTemp returns an unused path next to dest for tools that insist on
// creating their own output file.
func reserveTemp(dest string) (string, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), TempPrefix+"*"+filepath.Ext(dest))
	if err != nil {
		return "", err
	}
	name := tmpFile.Name()
	_ = tmpFile.Close()
	if err := os.Remove(name); err != nil {
		return "", err
	}
	return name, nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func fileMode(path string) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return 0o644
	}
	return info.Mode().Perm()
}
