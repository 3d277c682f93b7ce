package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"metascrub/internal/processor"
)

// Model renders live progress of a cleaning run fed by a ProgressUpdate
// channel. It quits when the channel is closed; Ctrl-C calls cancel and keeps
// rendering until the run has stopped.
type Model struct {
	updates    <-chan processor.ProgressUpdate
	cancel     func()
	stopping   bool
	started    time.Time
	width      int
	total      int
	processed  int
	cleaned    int
	errors     int
	skipped    int
	leaks      int
	bytesSaved int64
	current    string
	notices    []string
	quitting   bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

func NewModel(updates <-chan processor.ProgressUpdate, cancel func()) Model {
	return Model{updates: updates, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.cleaned += msg.CleanedDelta
		m.errors += msg.ErrorDelta
		m.skipped += msg.SkippedDelta
		m.leaks += msg.LeakDelta
		m.bytesSaved += msg.BytesSavedDelta
		if msg.Current != "" {
			m.current = msg.Current
		}
		if msg.Notice != "" {
			m.notices = append(m.notices, msg.Notice)
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{titleStyle.Render("metascrub")}
	for _, notice := range m.notices {
		lines = append(lines, warnStyle.Render("! "+notice))
	}
	lines = append(lines, m.statLines()...)

	switch {
	case m.stopping:
		lines = append(lines, warnStyle.Render("Stopping after the current file..."))
	case m.current != "" && m.processed < m.total:
		lines = append(lines, dimStyle.Render("Now: "+filepath.Base(m.current)))
	}
	lines = append(lines, barStyle.Render(progressBar(m.barWidth(), m.processed, m.total)))

	return strings.Join(lines, "\n")
}

func (m Model) statLines() []string {
	counts := fmt.Sprintf("  cleaned:%d failed:%d skipped:%d", m.cleaned, m.errors, m.skipped)
	return []string{
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) + dimStyle.Render(counts),
		labelStyle.Render(fmt.Sprintf("Metadata entries removed: %d", m.leaks)),
		labelStyle.Render("Size change: " + signedBytes(m.bytesSaved)),
		dimStyle.Render("Elapsed: " + time.Since(m.started).Round(time.Millisecond).String()),
	}
}

// barWidth fits the bar to the terminal, between 20 and 60 cells.
func (m Model) barWidth() int {
	if m.width <= 0 {
		return 40
	}
	return min(60, max(20, m.width-16))
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

// progressBar draws done/total as a fixed-width bar followed by a percentage.
func progressBar(width, done, total int) string {
	pct := 0
	if total > 0 {
		pct = min(100, done*100/total)
	}
	filled := width * pct / 100
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]" + fmt.Sprintf(" %3d%%", pct)
}

// signedBytes renders a byte delta; negative means outputs grew.
func signedBytes(saved int64) string {
	if saved < 0 {
		return "+" + humanize.Bytes(uint64(-saved))
	}
	return "-" + humanize.Bytes(uint64(saved))
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
)
