package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kyaoi/mdedit/internal/ui"
)

// LoadInitialState reads the optional target file into the UI state. An
// empty target starts with an empty document.
func LoadInitialState(target string) (ui.State, error) {
	if target == "" {
		return ui.State{}, nil
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return ui.State{}, err
	}
	info, err := os.Stat(absTarget)
	if err != nil {
		return ui.State{}, err
	}
	if info.IsDir() {
		return ui.State{}, fmt.Errorf("%s is a directory", target)
	}

	data, err := os.ReadFile(absTarget)
	if err != nil {
		return ui.State{}, err
	}

	displayPath := absTarget
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, absTarget); err == nil {
			displayPath = rel
		}
	}

	title, body := ui.ParseSource(string(data))
	return ui.State{
		Content:    body,
		HeaderPath: filepath.ToSlash(displayPath),
		Title:      title,
		SourcePath: absTarget,
	}, nil
}
