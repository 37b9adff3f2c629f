package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/kyaoi/mdedit/internal/mode"
)

type keyMap struct {
	Toggle      key.Binding
	Revert      key.Binding
	ExportPNG   key.Binding
	ExportPDF   key.Binding
	ExportHTML  key.Binding
	CopyHTML    key.Binding
	DismissHint key.Binding
	Help        key.Binding
	Quit        key.Binding

	Search    key.Binding
	NextMatch key.Binding
	PrevMatch key.Binding
	Down      key.Binding
	Up        key.Binding
	HalfDown  key.Binding
	HalfUp    key.Binding
	Top       key.Binding
	Bottom    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(mode.ToggleKey),
			key.WithHelp("ctrl+p", "toggle edit / preview"),
		),
		Revert: key.NewBinding(
			key.WithKeys(mode.RevertKey),
			key.WithHelp("esc", "back to editing (preview)"),
		),
		ExportPNG: key.NewBinding(
			key.WithKeys("alt+i"),
			key.WithHelp("alt+i", "export PNG"),
		),
		ExportPDF: key.NewBinding(
			key.WithKeys("alt+p"),
			key.WithHelp("alt+p", "export PDF"),
		),
		ExportHTML: key.NewBinding(
			key.WithKeys("alt+h"),
			key.WithHelp("alt+h", "export HTML"),
		),
		CopyHTML: key.NewBinding(
			key.WithKeys("alt+y"),
			key.WithHelp("alt+y", "copy HTML to clipboard"),
		),
		DismissHint: key.NewBinding(
			key.WithKeys("alt+x"),
			key.WithHelp("alt+x", "dismiss hint"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search preview"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n / N", "next / previous match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
		),
		Down: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j / k", "scroll preview"),
		),
		Up: key.NewBinding(
			key.WithKeys("k"),
		),
		HalfDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d / ctrl+u", "half page"),
		),
		HalfUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg / G", "top / bottom"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ExportPNG, k.ExportPDF, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Revert, k.DismissHint, k.Help, k.Quit},
		{k.ExportPNG, k.ExportPDF, k.ExportHTML, k.CopyHTML},
		{k.Search, k.NextMatch, k.Down, k.HalfDown, k.Top},
	}
}
