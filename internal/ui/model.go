package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/kyaoi/mdedit/internal/config"
	"github.com/kyaoi/mdedit/internal/export"
	"github.com/kyaoi/mdedit/internal/mode"
	"github.com/kyaoi/mdedit/internal/pdf"
	"github.com/kyaoi/mdedit/internal/preview"
	"github.com/kyaoi/mdedit/internal/raster"
	"github.com/kyaoi/mdedit/internal/store"
)

const (
	toolbarHeight   = 1
	footerHeight    = 1
	minContentWidth = 20

	appTitle        = "Markdown Editor"
	hintText        = "Press Ctrl+P to preview your content"
	previewHelpText = "Escape to edit • Ctrl+P to toggle"
)

var (
	toolbarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0caf5")).
			Background(lipgloss.Color("#1f2335"))
	titleStyle     = toolbarStyle.Bold(true).Padding(0, 1)
	editBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1a1b26")).
			Background(lipgloss.Color("#7aa2f7")).
			Padding(0, 1)
	previewBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#1a1b26")).
				Background(lipgloss.Color("#9ece6a")).
				Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#a9b1d6")).
			Background(lipgloss.Color("#1f2335"))
	hintStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#414868"))
	successStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#363636"))
	failureStyle = successStyle.Foreground(lipgloss.Color("#ff6b6b"))
	helpBoxStyle = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Background(lipgloss.Color("#1f2335"))
	emptyTitleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6")).Bold(true)
	emptySubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// Option configures the model.
type Option func(*Model)

// WithConfig applies the effective configuration.
func WithConfig(cfg config.Config) Option {
	return func(m *Model) { m.cfg = cfg }
}

// WithLogger routes diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithFs sets the filesystem exports are written to.
func WithFs(fs afero.Fs) Option {
	return func(m *Model) { m.fs = fs }
}

// WithScheduler replaces the timer behind the preview hint.
func WithScheduler(s mode.Scheduler) Option {
	return func(m *Model) { m.scheduler = s }
}

// WithClock sets the time source used to date exports.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

type storeChangedMsg struct{}

type exportDoneMsg struct {
	format export.Format
	path   string
	err    error
}

// Model implements the Bubble Tea program for the markdown editor.
type Model struct {
	cfg       config.Config
	logger    *slog.Logger
	fs        afero.Fs
	scheduler mode.Scheduler
	now       func() time.Time

	store    *store.Store
	modes    *mode.Coordinator
	view     *preview.View
	exporter *export.Exporter
	changes  <-chan struct{}

	editor    textarea.Model
	previewVP viewport.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	search    previewSearch

	title      string
	headerPath string
	mode       store.ViewMode
	showHelp   bool
	pendingKey string
	ready      bool
	width      int
	height     int
	err        error

	renderedPreview string
	previewFor      string
	previewWidth    int
	previewValid    bool

	exportInFlight bool
	lastExport     string
	notifications  chan tea.Msg
	toast          toastMsg
	toastSeq       int

	watcher       *fsnotify.Watcher
	watchChan     chan tea.Msg
	sourcePath    string
	loadedContent string
}

// NewModel constructs the editor model with the provided initial state.
func NewModel(state State, opts ...Option) *Model {
	m := &Model{
		cfg:        config.Defaults(),
		logger:     slog.New(slog.DiscardHandler),
		fs:         afero.NewOsFs(),
		scheduler:  mode.SystemScheduler{},
		now:        time.Now,
		title:      state.Title,
		headerPath: state.HeaderPath,
		keys:       defaultKeyMap(),
		search:     newPreviewSearch(),
		help:       help.New(),

		loadedContent: state.Content,
		notifications: make(chan tea.Msg, 8),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.store = store.New(state.Content)
	m.changes = m.store.Subscribe()
	m.modes = mode.New(m.store,
		mode.WithDelay(m.cfg.HintDelay),
		mode.WithScheduler(m.scheduler),
		mode.WithOnHint(func() { m.logger.Debug("preview hint shown") }),
	)
	m.view = preview.NewView(m.store,
		preview.WithStyle(m.cfg.Style),
		preview.WithSurfaceColumns(m.cfg.Columns),
		preview.WithHTMLRenderer(preview.NewHTMLRenderer(m.cfg.CodeStyle)),
	)

	background, err := raster.ParseColor(m.cfg.Background)
	if err != nil {
		m.logger.Warn("invalid export background", "err", err)
	}
	m.exporter = export.New(m.store, m.modes, m.view, export.NewFileDownloader(m.fs, m.cfg.OutputDir),
		export.WithAssembler(pdf.Assembler{Strict: m.cfg.StrictPagination}),
		export.WithPageSource(m.view),
		export.WithNotifier(channelNotifier{ch: m.notifications}),
		export.WithLogger(m.logger),
		export.WithRenderWait(m.cfg.RenderWait),
		export.WithBackground(background),
		export.WithScale(m.cfg.Scale),
		export.WithClock(m.now),
	)

	editor := textarea.New()
	editor.Placeholder = editorPlaceholder
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.SetValue(state.Content)
	editor.Focus()
	m.editor = editor

	m.previewVP = viewport.New(0, 0)
	m.previewVP.Style = lipgloss.NewStyle().Padding(0, 1)

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	if state.SourcePath != "" {
		m.sourcePath = state.SourcePath
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.modes.ContentChanged()
	cmds := []tea.Cmd{textarea.Blink, m.waitForChange(), m.waitForNotification()}
	if m.sourcePath != "" {
		cmds = append(cmds, m.startWatching(m.sourcePath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		m.syncFromStore()
		return m, m.waitForChange()
	case toastMsg:
		return m, tea.Batch(m.showToast(msg), m.waitForNotification())
	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = toastMsg{}
		}
		return m, nil
	case exportDoneMsg:
		m.exportInFlight = false
		if msg.err == nil {
			m.lastExport = msg.path
		}
		m.syncFromStore()
		return m, nil
	case spinner.TickMsg:
		if !m.exportInFlight && !m.store.Exporting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case fileEventMsg:
		return m, m.handleFileEvent(msg)
	case fileWatchErrMsg:
		m.err = msg.err
		return m, m.waitForFileEvent()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.store.Mode() == store.Edit {
		m.editor, cmd = m.editor.Update(msg)
	} else {
		m.previewVP, cmd = m.previewVP.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Toggle) {
		m.search.close()
		m.showHelp = false
		m.pendingKey = ""
		m.modes.Toggle()
		m.syncFromStore()
		return nil
	}

	if m.search.active {
		return m.handleSearchKey(msg)
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Help, m.keys.Revert):
			m.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.ExportPNG):
		return m.startExport(export.PNG)
	case key.Matches(msg, m.keys.ExportPDF):
		return m.startExport(export.PDF)
	case key.Matches(msg, m.keys.ExportHTML):
		return m.startExport(export.HTML)
	case key.Matches(msg, m.keys.CopyHTML):
		return m.copyHTML()
	case key.Matches(msg, m.keys.DismissHint):
		m.modes.DismissHint()
		return nil
	}

	if m.modes.HandleKey(msg.String()) {
		m.pendingKey = ""
		m.syncFromStore()
		return nil
	}

	if m.store.Mode() == store.Edit {
		return m.updateEditor(msg)
	}
	return m.handlePreviewKey(msg)
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.store.SetContent(after)
		m.modes.ContentChanged()
	}
	return cmd
}

func (m *Model) handlePreviewKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	if k != "g" {
		m.pendingKey = ""
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.search.open()
	case key.Matches(msg, m.keys.NextMatch):
		if m.search.step(1) {
			m.gotoSearchMatch()
		}
		return nil
	case key.Matches(msg, m.keys.PrevMatch):
		if m.search.step(-1) {
			m.gotoSearchMatch()
		}
		return nil
	case key.Matches(msg, m.keys.Down):
		m.previewVP.ScrollDown(1)
		return nil
	case key.Matches(msg, m.keys.Up):
		m.previewVP.ScrollUp(1)
		return nil
	case key.Matches(msg, m.keys.HalfDown):
		m.previewVP.HalfPageDown()
		return nil
	case key.Matches(msg, m.keys.HalfUp):
		m.previewVP.HalfPageUp()
		return nil
	case key.Matches(msg, m.keys.Top):
		if m.pendingKey == "g" {
			m.previewVP.GotoTop()
			m.pendingKey = ""
		} else {
			m.pendingKey = "g"
		}
		return nil
	case key.Matches(msg, m.keys.Bottom):
		m.previewVP.GotoBottom()
		return nil
	}

	var cmd tea.Cmd
	m.previewVP, cmd = m.previewVP.Update(msg)
	return cmd
}

// startExport runs one export as a command. While an export is running the
// export keys do nothing.
func (m *Model) startExport(format export.Format) tea.Cmd {
	if m.exportInFlight || m.store.Exporting() {
		return nil
	}
	var run func(context.Context) (string, error)
	switch format {
	case export.PDF:
		run = m.exporter.ExportDocument
	case export.HTML:
		run = m.exporter.ExportHTML
	default:
		run = m.exporter.ExportImage
	}
	m.exportInFlight = true
	m.lastExport = ""
	m.logger.Debug("export started", "format", format.String())
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		path, err := run(context.Background())
		return exportDoneMsg{format: format, path: path, err: err}
	})
}

func (m *Model) copyHTML() tea.Cmd {
	out, err := m.view.HTML()
	if err == nil {
		err = clipboard.WriteAll(out)
	}
	if err != nil {
		m.logger.Error("copy html failed", "err", err)
		return m.showToast(toastMsg{text: "Failed to copy HTML", failure: true})
	}
	return m.showToast(toastMsg{text: "Copied HTML to clipboard"})
}

func (m *Model) quit() tea.Cmd {
	m.modes.Stop()
	m.closeWatcher()
	return tea.Quit
}

func (m *Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// syncFromStore applies mode changes made outside the UI goroutine and
// refreshes the preview.
func (m *Model) syncFromStore() {
	current := m.store.Mode()
	if current != m.mode {
		m.mode = current
		if current == store.Edit {
			m.editor.Focus()
			m.search.close()
		} else {
			m.editor.Blur()
		}
	}
	m.refreshPreview()
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= toolbarHeight+footerHeight {
		return
	}
	m.width = width
	m.height = height
	m.ready = true

	contentWidth := max(width, minContentWidth)
	bodyHeight := max(height-toolbarHeight-footerHeight, 1)

	m.editor.SetWidth(contentWidth)
	m.editor.SetHeight(bodyHeight)
	m.previewVP.Width = contentWidth
	m.previewVP.Height = bodyHeight
	m.help.Width = contentWidth
	m.previewValid = false
	m.refreshPreview()
}

func (m *Model) refreshPreview() {
	if !m.ready || m.store.Mode() != store.Preview {
		return
	}
	content := m.store.Content()
	wrap := max(m.previewVP.Width-m.previewVP.Style.GetHorizontalFrameSize(), 0)
	if m.previewValid && content == m.previewFor && wrap == m.previewWidth {
		return
	}

	var rendered string
	if strings.TrimSpace(content) == "" {
		rendered = emptyPreview(wrap, m.previewVP.Height)
	} else {
		out, err := m.view.Terminal(wrap)
		if err != nil {
			m.err = err
			return
		}
		rendered = out
	}

	offset := m.previewVP.YOffset
	m.previewVP.SetContent(rendered)
	if content == m.previewFor {
		m.previewVP.SetYOffset(offset)
	} else {
		m.previewVP.GotoTop()
	}
	m.renderedPreview = rendered
	m.previewFor = content
	m.previewWidth = wrap
	m.previewValid = true

	if err := m.search.refresh(rendered); err != nil {
		m.err = err
	} else if m.search.query != "" {
		m.err = nil
		m.gotoSearchMatch()
	}
}

func emptyPreview(width, height int) string {
	block := lipgloss.JoinVertical(lipgloss.Center,
		emptyTitleStyle.Render(preview.EmptyTitle),
		emptySubtitleStyle.Render(preview.EmptySubtitle),
	)
	if width <= 0 || height <= 0 {
		return block
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.showHelp {
		helpContent := lipgloss.JoinVertical(lipgloss.Left,
			"Help (f1 / esc to close)",
			"",
			m.help.FullHelpView(m.keys.FullHelp()),
		)
		overlay := helpBoxStyle.Render(helpContent)
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
		}
		return overlay
	}

	snap := m.store.Snapshot()
	var body string
	if snap.Mode == store.Edit {
		body = m.editor.View()
	} else {
		body = m.previewVP.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.toolbarView(snap), body, m.footerView(snap))
}

func (m *Model) toolbarView(snap store.Snapshot) string {
	left := titleStyle.Render(appTitle)
	if snap.Mode == store.Edit {
		left += editBadgeStyle.Render("Edit Mode")
	} else {
		left += previewBadgeStyle.Render("Preview Mode")
	}
	if name := m.documentName(); name != "" {
		left += toolbarStyle.Render(" " + name)
	}

	right := m.help.ShortHelpView(m.keys.ShortHelp())
	if snap.Exporting || m.exportInFlight {
		right = m.spinner.View() + " Exporting…"
	}
	right = toolbarStyle.Render(right + " ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + toolbarStyle.Render(strings.Repeat(" ", gap)) + right
}

func (m *Model) footerView(snap store.Snapshot) string {
	switch {
	case m.search.active:
		return footerStyle.Render(m.search.input.View())
	case m.toast.text != "":
		if m.toast.failure {
			return failureStyle.Render(m.toast.text)
		}
		text := m.toast.text
		if m.toast.export && m.lastExport != "" {
			text += " (" + m.lastExport + ")"
		}
		return successStyle.Render(text)
	case m.err != nil:
		return failureStyle.Render(m.err.Error())
	case snap.Mode == store.Edit && snap.HintVisible && strings.TrimSpace(snap.Content) != "":
		return hintStyle.Render("⌨ " + hintText + "  (alt+x to dismiss)")
	case snap.Mode == store.Preview:
		line := previewHelpText
		if status := m.search.status(); status != "" {
			line += "  " + status
		}
		return footerStyle.Render(line)
	}
	return ""
}

func (m *Model) documentName() string {
	if m.title != "" {
		return m.title
	}
	return m.headerPath
}

const editorPlaceholder = `# Welcome to Markdown Editor

Start typing to see your markdown come to life!

## Basic Syntax

### Headers
# H1 Header
## H2 Header
### H3 Header

### Text Formatting
**Bold text**
*Italic text*
~~Strikethrough~~
` + "`Inline code`" + `

### Lists
- Unordered list item
- Another item

1. Ordered list item
2. Another item

### Links and Images
[Link text](https://example.com)
![Image alt text](https://picsum.photos/200/100)

### Code Blocks
` + "```go" + `
func hello() {
	fmt.Println("Hello, World!")
}
` + "```" + `

### Blockquotes
> This is a blockquote
> It can span multiple lines

### Tables
| Header 1 | Header 2 |
|----------|----------|
| Cell 1   | Cell 2   |
| Cell 3   | Cell 4   |

---

**Quick Tips:**
• Press Ctrl+P anytime to preview your content
• Press Escape while in preview to return to editing
• Press alt+i / alt+p to export PNG / PDF`
