package ui

import (
	"strings"

	"github.com/adrg/frontmatter"
)

type sourceMeta struct {
	Title string `yaml:"title" toml:"title" json:"title"`
}

// ParseSource splits a markdown file into its front matter title and body.
// Files without front matter, or with front matter that does not parse, are
// returned unchanged.
func ParseSource(data string) (title, body string) {
	var meta sourceMeta
	rest, err := frontmatter.Parse(strings.NewReader(data), &meta)
	if err != nil {
		return "", data
	}
	body = string(rest)
	if len(rest) != len(data) {
		body = strings.TrimLeft(body, "\r\n")
	}
	return strings.TrimSpace(meta.Title), body
}

func stripFrontMatter(data string) string {
	_, body := ParseSource(data)
	return body
}
