package store

import "sync"

// ViewMode selects which view the editor shows.
type ViewMode int

const (
	Edit ViewMode = iota
	Preview
)

func (m ViewMode) String() string {
	switch m {
	case Preview:
		return "preview"
	default:
		return "edit"
	}
}

// Other returns the opposite mode.
func (m ViewMode) Other() ViewMode {
	if m == Preview {
		return Edit
	}
	return Preview
}

// Snapshot is a consistent copy of the store at one point in time.
type Snapshot struct {
	Content     string
	Mode        ViewMode
	Exporting   bool
	HintVisible bool
}

// Store holds the document and the UI flags shared by the editor, the
// preview, the mode coordinator and the exporter. The zero value is an
// empty document in Edit mode.
type Store struct {
	mu          sync.RWMutex
	content     string
	mode        ViewMode
	exporting   bool
	hintVisible bool
	subscribers []chan struct{}
}

// New creates a store seeded with the given document.
func New(content string) *Store {
	return &Store{content: content}
}

func (s *Store) Content() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

func (s *Store) SetContent(content string) {
	s.mu.Lock()
	changed := s.content != content
	s.content = content
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Mode() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Store) SetMode(mode ViewMode) {
	s.mu.Lock()
	changed := s.mode != mode
	s.mode = mode
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Exporting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exporting
}

func (s *Store) SetExporting(exporting bool) {
	s.mu.Lock()
	changed := s.exporting != exporting
	s.exporting = exporting
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) HintVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hintVisible
}

func (s *Store) SetHintVisible(visible bool) {
	s.mu.Lock()
	changed := s.hintVisible != visible
	s.hintVisible = visible
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Snapshot returns all values under a single lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Content:     s.content,
		Mode:        s.mode,
		Exporting:   s.exporting,
		HintVisible: s.hintVisible,
	}
}

// Subscribe returns a channel that receives a value after mutations. Sends
// never block: a subscriber that has not drained the previous tick misses
// nothing but the duplicate.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
