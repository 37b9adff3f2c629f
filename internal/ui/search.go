package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// previewSearch finds lines of the rendered preview containing a query.
type previewSearch struct {
	input   textinput.Model
	active  bool
	query   string
	matches []int
	index   int
}

func newPreviewSearch() previewSearch {
	input := textinput.New()
	input.Prompt = "/"
	input.CharLimit = 256
	input.Placeholder = "search"
	input.Blur()
	return previewSearch{input: input, index: -1}
}

func (s *previewSearch) open() tea.Cmd {
	s.active = true
	s.input.SetValue(s.query)
	s.input.CursorEnd()
	return s.input.Focus()
}

func (s *previewSearch) close() {
	s.active = false
	s.input.Blur()
}

func (s *previewSearch) clear() {
	s.query = ""
	s.matches = nil
	s.index = -1
}

// run searches rendered for query and selects the first match.
func (s *previewSearch) run(rendered, query string) error {
	s.query = strings.TrimSpace(query)
	s.matches = findSearchMatches(rendered, s.query)
	s.index = -1
	if len(s.matches) == 0 {
		return fmt.Errorf("no match for %q", s.query)
	}
	s.index = 0
	return nil
}

// refresh re-runs the query after the preview changed, staying near the
// previously selected line.
func (s *previewSearch) refresh(rendered string) error {
	if s.query == "" {
		return nil
	}
	prev := s.currentLine()
	s.matches = findSearchMatches(rendered, s.query)
	if len(s.matches) == 0 {
		s.index = -1
		return fmt.Errorf("no match for %q", s.query)
	}
	if prev >= 0 {
		s.index = closestMatchIndex(s.matches, prev)
	} else {
		s.index = 0
	}
	return nil
}

func (s *previewSearch) step(delta int) bool {
	n := len(s.matches)
	if n == 0 {
		return false
	}
	if s.index < 0 {
		s.index = 0
	} else {
		s.index = ((s.index+delta)%n + n) % n
	}
	return true
}

func (s *previewSearch) currentLine() int {
	if s.index < 0 || s.index >= len(s.matches) {
		return -1
	}
	return s.matches[s.index]
}

func (s *previewSearch) status() string {
	if s.query == "" {
		return ""
	}
	if len(s.matches) == 0 || s.index < 0 {
		return fmt.Sprintf("/%s (0/0)", s.query)
	}
	return fmt.Sprintf("/%s (%d/%d)", s.query, s.index+1, len(s.matches))
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(m.search.input.Value())
		m.search.close()
		if query == "" {
			m.search.clear()
			m.err = nil
			return nil
		}
		m.err = m.search.run(m.renderedPreview, query)
		m.gotoSearchMatch()
		return nil
	case tea.KeyEsc, tea.KeyCtrlC:
		m.search.close()
		return nil
	}
	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return cmd
}

func (m *Model) gotoSearchMatch() {
	line := m.search.currentLine()
	if line < 0 {
		return
	}
	totalLines := strings.Count(m.renderedPreview, "\n") + 1
	maxOffset := max(totalLines-m.previewVP.Height, 0)
	m.previewVP.SetYOffset(clamp(line, 0, maxOffset))
}

func findSearchMatches(content, query string) []int {
	query = strings.TrimSpace(query)
	if query == "" || content == "" {
		return nil
	}

	stripped := ansi.Strip(content)
	lowerContent := strings.ToLower(stripped)
	lowerQuery := strings.ToLower(query)

	var matches []int
	offset := 0
	for {
		pos := strings.Index(lowerContent[offset:], lowerQuery)
		if pos == -1 {
			break
		}
		absolute := offset + pos
		line := strings.Count(lowerContent[:absolute], "\n")
		if len(matches) == 0 || matches[len(matches)-1] != line {
			matches = append(matches, line)
		}
		offset = absolute + len(lowerQuery)
	}
	return matches
}

func closestMatchIndex(matches []int, line int) int {
	best := 0
	for i := range matches {
		if abs(matches[i]-line) < abs(matches[best]-line) {
			best = i
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
