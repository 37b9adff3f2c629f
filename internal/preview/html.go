package preview

import (
	"bytes"
	"fmt"
	"html"
	"regexp"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// DefaultCodeStyle is the chroma style used for fenced code blocks.
const DefaultCodeStyle = "github"

var highlightClass = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// HTMLRenderer converts markdown into sanitized HTML. It supports GFM tables,
// strikethrough, autolinks and task lists, treats single newlines as line
// breaks and highlights fenced code with CSS classes.
type HTMLRenderer struct {
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	codeStyle string
}

// NewHTMLRenderer builds a renderer highlighting code with the named chroma
// style. Unknown styles fall back to DefaultCodeStyle.
func NewHTMLRenderer(codeStyle string) *HTMLRenderer {
	if _, ok := chromastyles.Registry[codeStyle]; !ok {
		codeStyle = DefaultCodeStyle
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(codeStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(highlightClass).OnElements("pre", "code", "span")

	return &HTMLRenderer{md: md, policy: policy, codeStyle: codeStyle}
}

// Render returns the sanitized HTML fragment for markdown.
func (r *HTMLRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// Page wraps a rendered fragment into a standalone HTML document carrying
// the highlighter stylesheet.
func (r *HTMLRenderer) Page(title, body string) (string, error) {
	var css bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&css, chromastyles.Get(r.codeStyle)); err != nil {
		return "", fmt.Errorf("write highlight css: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("<style>\n")
	page.WriteString(pageCSS)
	page.Write(css.Bytes())
	page.WriteString("</style>\n</head>\n<body>\n<main id=\"markdown-preview\">\n")
	page.WriteString(body)
	page.WriteString("</main>\n</body>\n</html>\n")
	return page.String(), nil
}

const pageCSS = `body { background: #ffffff; color: #374151; font-family: sans-serif; }
main { max-width: 56rem; margin: 0 auto; padding: 2rem; line-height: 1.6; }
h1 { border-bottom: 1px solid #e5e7eb; padding-bottom: .5rem; }
blockquote { border-left: 4px solid #60a5fa; background: #eff6ff; margin: 1.5rem 0; padding: 1rem 1.5rem; font-style: italic; }
pre { background: #111827; color: #f3f4f6; padding: 1.5rem; border-radius: .5rem; overflow-x: auto; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #d1d5db; padding: .75rem 1rem; text-align: left; }
th { background: #f3f4f6; }
`
