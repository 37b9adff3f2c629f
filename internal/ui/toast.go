package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const toastDuration = 3 * time.Second

type toastMsg struct {
	text    string
	failure bool
	export  bool
}

type toastExpiredMsg struct {
	seq int
}

// channelNotifier forwards export notifications to the program. Messages
// are dropped when the queue is full.
type channelNotifier struct {
	ch chan tea.Msg
}

func (n channelNotifier) Success(message string) {
	n.send(toastMsg{text: message, export: true})
}

func (n channelNotifier) Failure(message string) {
	n.send(toastMsg{text: message, failure: true, export: true})
}

func (n channelNotifier) send(msg tea.Msg) {
	select {
	case n.ch <- msg:
	default:
	}
}

func (m *Model) showToast(msg toastMsg) tea.Cmd {
	m.toast = msg
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m *Model) waitForNotification() tea.Cmd {
	ch := m.notifications
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
