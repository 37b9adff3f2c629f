package ui

// State contains the data required to bootstrap the Bubble Tea model.
type State struct {
	Content    string
	HeaderPath string
	Title      string
	SourcePath string
}
