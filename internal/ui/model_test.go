package ui

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyaoi/mdedit/internal/config"
	"github.com/kyaoi/mdedit/internal/mode"
	"github.com/kyaoi/mdedit/internal/store"
)

type manualTimer struct{ stopped bool }

func (t *manualTimer) Stop() bool { t.stopped = true; return true }

// manualScheduler keeps the last callback so tests decide when it fires.
type manualScheduler struct {
	fn    func()
	timer *manualTimer
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) mode.Timer {
	s.fn = f
	s.timer = &manualTimer{}
	return s.timer
}

func (s *manualScheduler) fire() {
	if s.fn != nil && !s.timer.stopped {
		s.fn()
	}
}

func newTestModel(t *testing.T, state State, opts ...Option) (*Model, afero.Fs, *manualScheduler) {
	t.Helper()
	cfg := config.Defaults()
	cfg.RenderWait = 0
	cfg.OutputDir = "out"
	fs := afero.NewMemMapFs()
	sched := &manualScheduler{}
	base := []Option{
		WithConfig(cfg),
		WithFs(fs),
		WithScheduler(sched),
		WithClock(func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }),
	}
	m := NewModel(state, append(base, opts...)...)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, fs, sched
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

func typeInto(m *Model, text string) {
	for _, r := range text {
		m.Update(keyRunes(string(r)))
	}
}

// runCmd executes cmd and any batched children, returning the messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestTypingThenTogglePreviewsHeading(t *testing.T) {
	m, _, _ := newTestModel(t, State{})

	typeInto(m, "# Hello")
	assert.Equal(t, "# Hello", m.store.Content())
	assert.Contains(t, m.View(), "Edit Mode")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	require.Equal(t, store.Preview, m.store.Mode())

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Preview Mode")
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, previewHelpText)

	html, err := m.view.HTML()
	require.NoError(t, err)
	assert.Regexp(t, `<h1[^>]*>Hello</h1>`, html)
}

func TestEscapeRevertsOnlyFromPreview(t *testing.T) {
	m, _, _ := newTestModel(t, State{Content: "text"})

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, store.Edit, m.store.Mode())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, store.Edit, m.store.Mode())
	assert.True(t, m.editor.Focused())
}

func TestHintShownAfterIdle(t *testing.T) {
	m, _, sched := newTestModel(t, State{})
	typeInto(m, "draft")

	assert.NotContains(t, ansi.Strip(m.View()), hintText)
	sched.fire()
	m.Update(storeChangedMsg{})
	assert.Contains(t, ansi.Strip(m.View()), hintText)

	m.Update(altKey('x'))
	assert.False(t, m.store.HintVisible())
	assert.NotContains(t, ansi.Strip(m.View()), hintText)
}

func TestHintLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, _, sched := newTestModel(t, State{}, WithLogger(logger))

	typeInto(m, "draft")
	sched.fire()
	assert.True(t, m.store.HintVisible())
	assert.Contains(t, logs.String(), "preview hint shown")
}

func TestToggleWorksFromSearchAndHelp(t *testing.T) {
	m, _, _ := newTestModel(t, State{Content: "# Alpha"})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	m.Update(keyRunes("/"))
	require.True(t, m.search.active)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, store.Edit, m.store.Mode())
	assert.False(t, m.search.active)
	assert.True(t, m.editor.Focused())

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	require.True(t, m.showHelp)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, store.Preview, m.store.Mode())
	assert.False(t, m.showHelp)
}

func TestEmptyDocumentPreview(t *testing.T) {
	m, _, _ := newTestModel(t, State{})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "No content to preview")
	assert.Contains(t, view, "Switch back to edit mode to start writing")
}

func TestExportImageFromEditMode(t *testing.T) {
	m, fs, _ := newTestModel(t, State{})

	_, cmd := m.Update(altKey('i'))
	require.NotNil(t, cmd)
	assert.True(t, m.exportInFlight)

	var done *exportDoneMsg
	for _, msg := range runCmd(cmd) {
		if d, ok := msg.(exportDoneMsg); ok {
			done = &d
		}
	}
	require.NotNil(t, done)
	require.NoError(t, done.err)
	assert.Equal(t, filepath.Join("out", "markdown-export-2026-10-14.png"), done.path)

	exists, err := afero.Exists(fs, done.path)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.False(t, m.store.Exporting())
	assert.Equal(t, store.Edit, m.store.Mode())

	m.Update(*done)
	assert.Equal(t, done.path, m.lastExport)

	toast := <-m.notifications
	m.Update(toast)
	assert.Contains(t, ansi.Strip(m.View()), "Successfully exported to PNG! ("+done.path+")")
}

func TestExportKeysIgnoredWhileExporting(t *testing.T) {
	m, _, _ := newTestModel(t, State{Content: "x"})
	m.store.SetExporting(true)

	_, cmd := m.Update(altKey('p'))
	assert.Nil(t, cmd)
}

func TestToastExpires(t *testing.T) {
	m, _, _ := newTestModel(t, State{})
	m.Update(toastMsg{text: "Failed to export to PDF", failure: true})
	assert.Contains(t, ansi.Strip(m.View()), "Failed to export to PDF")

	m.Update(toastExpiredMsg{seq: m.toastSeq - 1})
	assert.Contains(t, ansi.Strip(m.View()), "Failed to export to PDF")

	m.Update(toastExpiredMsg{seq: m.toastSeq})
	assert.NotContains(t, ansi.Strip(m.View()), "Failed to export to PDF")
}

func TestPreviewSearch(t *testing.T) {
	m, _, _ := newTestModel(t, State{Content: "# Alpha\n\nbeta\n\nalpha again"})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})

	m.Update(keyRunes("/"))
	require.True(t, m.search.active)
	typeInto(m, "alpha")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.search.active)
	assert.Len(t, m.search.matches, 2)
	assert.Contains(t, ansi.Strip(m.View()), "/alpha (1/2)")

	m.Update(keyRunes("n"))
	assert.Equal(t, 1, m.search.index)
	m.Update(keyRunes("n"))
	assert.Equal(t, 0, m.search.index)
	m.Update(keyRunes("N"))
	assert.Equal(t, 1, m.search.index)
}

func TestSearchWithoutMatch(t *testing.T) {
	m, _, _ := newTestModel(t, State{Content: "text"})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	m.Update(keyRunes("/"))
	typeInto(m, "zzz")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "zzz")
}

func TestHelpOverlay(t *testing.T) {
	m, _, _ := newTestModel(t, State{})
	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	view := m.View()
	assert.Contains(t, view, "toggle edit / preview")
	assert.Contains(t, view, "export PDF")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestTitleShownInToolbar(t *testing.T) {
	m, _, _ := newTestModel(t, State{Title: "Weekly notes", HeaderPath: "notes.md"})
	assert.Contains(t, ansi.Strip(m.View()), "Weekly notes")
}

func TestReloadSourceSkipsEditedBuffer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, writeFile(path, "one"))

	m, _, _ := newTestModel(t, State{Content: "one", SourcePath: path})
	m.sourcePath = path

	require.NoError(t, writeFile(path, "---\ntitle: T\n---\ntwo"))
	m.reloadSource()
	assert.Equal(t, "two", m.store.Content())
	assert.Equal(t, "two", m.editor.Value())

	typeInto(m, "!")
	require.NoError(t, writeFile(path, "three"))
	m.reloadSource()
	assert.Equal(t, "two!", m.store.Content())
}

func TestFileEventForOtherPathIgnored(t *testing.T) {
	m, _, _ := newTestModel(t, State{Content: "one"})
	m.sourcePath = "/tmp/doc.md"
	m.handleFileEvent(fileEventMsg{path: "/tmp/other.md"})
	assert.Equal(t, "one", m.store.Content())
}

func TestFindSearchMatchesCollapsesLines(t *testing.T) {
	got := findSearchMatches("aa a\nb\n\x1b[1mA\x1b[0m", "a")
	assert.Equal(t, []int{0, 2}, got)
	assert.Nil(t, findSearchMatches("", "a"))
	assert.Equal(t, 1, closestMatchIndex([]int{0, 5, 9}, 6))
}

func TestParseSource(t *testing.T) {
	title, body := ParseSource("---\ntitle: Plan\n---\n# Body\n")
	assert.Equal(t, "Plan", title)
	assert.True(t, strings.HasPrefix(body, "# Body"))

	title, body = ParseSource("# Plain")
	assert.Empty(t, title)
	assert.Equal(t, "# Plain", body)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
