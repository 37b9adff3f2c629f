package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueIsEmptyEditDocument(t *testing.T) {
	var s Store
	snap := s.Snapshot()
	assert.Equal(t, "", snap.Content)
	assert.Equal(t, Edit, snap.Mode)
	assert.False(t, snap.Exporting)
	assert.False(t, snap.HintVisible)
}

func TestSettersRoundTrip(t *testing.T) {
	s := New("# seed")
	assert.Equal(t, "# seed", s.Content())

	s.SetContent("body")
	s.SetMode(Preview)
	s.SetExporting(true)
	s.SetHintVisible(true)

	assert.Equal(t, Snapshot{Content: "body", Mode: Preview, Exporting: true, HintVisible: true}, s.Snapshot())
}

func TestViewModeOther(t *testing.T) {
	assert.Equal(t, Preview, Edit.Other())
	assert.Equal(t, Edit, Preview.Other())
	assert.Equal(t, Edit, Edit.Other().Other())
	assert.Equal(t, "edit", Edit.String())
	assert.Equal(t, "preview", Preview.String())
}

func TestSubscribeTicksOnChangeOnly(t *testing.T) {
	s := New("")
	ch := s.Subscribe()

	s.SetContent("")
	select {
	case <-ch:
		t.Fatal("unexpected tick for a no-op write")
	default:
	}

	s.SetContent("a")
	s.SetContent("ab")
	select {
	case <-ch:
	default:
		t.Fatal("expected a tick after a mutation")
	}
	select {
	case <-ch:
		t.Fatal("ticks should coalesce")
	default:
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New("")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetHintVisible(j%2 == 0)
				s.SetMode(ViewMode(j % 2))
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()
	require.Contains(t, []ViewMode{Edit, Preview}, s.Mode())
}
