package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cleanOutputDir, cleanSaveAs = "", ""
		cleanLossless, cleanPreserveICC = false, false
		configPath, logFile, noTUI = "", "", false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFormatsCommand(t *testing.T) {
	out, err := execute(t, "formats")
	require.NoError(t, err)
	for _, want := range []string{"image", ".jpg", "pdf", "docx", "xlsx", "pptx", "video", ".mov"} {
		assert.Contains(t, out, want)
	}
}

func TestCleanCommandUnsupportedAndLog(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))
	logPath := filepath.Join(t.TempDir(), "log.txt")

	out, err := execute(t, "clean", "--no-tui", "--log-file", logPath, src)
	require.NoError(t, err)
	assert.Contains(t, out, "unsupported")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[SKIP] Unsupported file type "+src)
}

func TestCleanCommandSaveAsRequiresOneFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	for _, p := range []string{a, b} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	_, err := execute(t, "clean", "--no-tui", "--log-file", filepath.Join(dir, "log.txt"), "--save-as", filepath.Join(dir, "out.txt"), a, b)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "--save-as"))
}

func TestCleanCommandRejectsSaveAsWithOutput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "clean", "--save-as", "x.jpg", "-o", dir, dir)
	require.Error(t, err)
}
