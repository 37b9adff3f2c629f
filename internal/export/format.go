package export

import "time"

// Format is an export target.
type Format int

const (
	PNG Format = iota
	PDF
	HTML
)

const filePrefix = "markdown-export-"

func (f Format) String() string {
	switch f {
	case PDF:
		return "pdf"
	case HTML:
		return "html"
	default:
		return "png"
	}
}

// Label is the name shown to the user.
func (f Format) Label() string {
	switch f {
	case PDF:
		return "PDF"
	case HTML:
		return "HTML"
	default:
		return "PNG"
	}
}

// ParseFormat maps a file extension to a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "png":
		return PNG, true
	case "pdf":
		return PDF, true
	case "html", "htm":
		return HTML, true
	}
	return PNG, false
}

// FileName returns the dated download name, using the UTC calendar date.
func FileName(f Format, at time.Time) string {
	return filePrefix + at.UTC().Format(time.DateOnly) + "." + f.String()
}
