// Package preview renders the document for display, for export and for
// rasterization.
package preview

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/x/ansi"

	"github.com/kyaoi/mdedit/internal/store"
)

const (
	// DefaultStyle is the glamour style used on screen.
	DefaultStyle = styles.TokyoNightStyle
	// DefaultSurfaceColumns is the wrap width of the export surface.
	DefaultSurfaceColumns = 80

	EmptyTitle    = "No content to preview"
	EmptySubtitle = "Switch back to edit mode to start writing"
)

// ErrNotPreviewing is returned when the surface is requested outside Preview.
var ErrNotPreviewing = errors.New("preview is not displayed")

// Surface is the visible content of the preview, one plain-text line per
// row. An empty document has a surface with no lines.
type Surface struct {
	Lines   []string
	Columns int
}

// Empty reports whether the surface has nothing to draw.
func (s Surface) Empty() bool {
	return len(s.Lines) == 0
}

// View renders the store's document. It is safe for concurrent use.
type View struct {
	store   *store.Store
	html    *HTMLRenderer
	style   string
	columns int

	mu        sync.Mutex
	term      *glamour.TermRenderer
	termWidth int
	plain     *glamour.TermRenderer
}

// Option configures a View.
type Option func(*View)

// WithStyle selects the on-screen glamour style.
func WithStyle(name string) Option {
	return func(v *View) {
		if _, ok := styles.DefaultStyles[name]; ok {
			v.style = name
		}
	}
}

// WithSurfaceColumns sets the wrap width of the export surface.
func WithSurfaceColumns(columns int) Option {
	return func(v *View) {
		if columns > 0 {
			v.columns = columns
		}
	}
}

// WithHTMLRenderer replaces the HTML pipeline.
func WithHTMLRenderer(r *HTMLRenderer) Option {
	return func(v *View) {
		if r != nil {
			v.html = r
		}
	}
}

// NewView creates a preview bound to s.
func NewView(s *store.Store, opts ...Option) *View {
	v := &View{
		store:   s,
		style:   DefaultStyle,
		columns: DefaultSurfaceColumns,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.html == nil {
		v.html = NewHTMLRenderer(DefaultCodeStyle)
	}
	return v
}

// HTML returns the sanitized HTML fragment of the current document.
func (v *View) HTML() (string, error) {
	return v.html.Render(v.store.Content())
}

// HTMLPage returns the current document as a standalone HTML page.
func (v *View) HTMLPage(title string) (string, error) {
	body, err := v.HTML()
	if err != nil {
		return "", err
	}
	return v.html.Page(title, body)
}

// Terminal renders the document with ANSI styling wrapped at width.
func (v *View) Terminal(width int) (string, error) {
	content := v.store.Content()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.term == nil || v.termWidth != width {
		renderer, err := newRenderer(v.style, width)
		if err != nil {
			return "", err
		}
		v.term = renderer
		v.termWidth = width
	}
	return v.term.Render(content)
}

// LocateSurface returns what the preview shows, ready for rasterization.
// It fails with ErrNotPreviewing unless the store is in Preview mode.
func (v *View) LocateSurface() (Surface, error) {
	snap := v.store.Snapshot()
	if snap.Mode != store.Preview {
		return Surface{}, ErrNotPreviewing
	}
	if strings.TrimSpace(snap.Content) == "" {
		return Surface{Columns: v.columns}, nil
	}

	v.mu.Lock()
	if v.plain == nil {
		renderer, err := newRenderer(styles.NoTTYStyle, v.columns)
		if err != nil {
			v.mu.Unlock()
			return Surface{}, err
		}
		v.plain = renderer
	}
	rendered, err := v.plain.Render(snap.Content)
	v.mu.Unlock()
	if err != nil {
		return Surface{}, fmt.Errorf("render surface: %w", err)
	}

	return Surface{Lines: surfaceLines(rendered), Columns: v.columns}, nil
}

func surfaceLines(rendered string) []string {
	lines := strings.Split(ansi.Strip(rendered), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	} else {
		opts = append(opts, glamour.WithWordWrap(0))
	}
	return glamour.NewTermRenderer(opts...)
}
