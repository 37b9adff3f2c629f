package ui

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

type fileEventMsg struct {
	path string
	op   fsnotify.Op
}

type fileWatchErrMsg struct {
	err error
}

// startWatching follows the source file. Editors often replace files on
// save, so the parent directory is watched rather than the file itself.
func (m *Model) startWatching(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	path = filepath.Clean(path)
	if m.watcher == nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			m.err = err
			return nil
		}
		m.watcher = watcher
		m.watchChan = make(chan tea.Msg, 10)
		go m.watchLoop(watcher, m.watchChan)
	}
	if err := m.watcher.Add(filepath.Dir(path)); err != nil {
		m.err = err
		return nil
	}
	m.sourcePath = path
	return m.waitForFileEvent()
}

func (m *Model) watchLoop(watcher *fsnotify.Watcher, out chan<- tea.Msg) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			out <- fileEventMsg{path: event.Name, op: event.Op}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			out <- fileWatchErrMsg{err: err}
		}
	}
}

func (m *Model) waitForFileEvent() tea.Cmd {
	if m.watchChan == nil {
		return nil
	}
	ch := m.watchChan
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) handleFileEvent(msg fileEventMsg) tea.Cmd {
	if m.sourcePath != "" && filepath.Clean(msg.path) == m.sourcePath {
		m.reloadSource()
	}
	return m.waitForFileEvent()
}

// reloadSource replaces the document with the file on disk unless the
// buffer has been edited since it was last loaded.
func (m *Model) reloadSource() {
	if m.store.Content() != m.loadedContent {
		return
	}
	data, err := os.ReadFile(m.sourcePath)
	if err != nil {
		m.err = err
		return
	}
	content := stripFrontMatter(string(data))
	if content == m.loadedContent {
		return
	}
	m.loadedContent = content
	m.editor.SetValue(content)
	m.store.SetContent(content)
	m.modes.ContentChanged()
	m.logger.Info("reloaded source", "path", m.sourcePath)
}

func (m *Model) closeWatcher() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}
