package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsOnEmit(t *testing.T) {
	ev := NewEvents()
	var got []interface{}
	ev.On(EventZoomChanged, func(data interface{}) { got = append(got, data) })
	ev.On(EventZoomChanged, func(data interface{}) { got = append(got, "second") })

	ev.Emit(EventZoomChanged, ZoomChange{Text: "x"})
	ev.Emit(EventSceneChanged, nil)
	assert.Equal(t, []interface{}{ZoomChange{Text: "x"}, "second"}, got)

	var nilEvents *Events
	assert.NotPanics(t, func() { nilEvents.Emit(EventZoomChanged, nil) })
	assert.Equal(t, "scene-changed", EventSceneChanged.String())
}

func TestLoopRunsPostedInOrder(t *testing.T) {
	l := NewLoop(5 * time.Millisecond)
	l.Start()
	defer l.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted work did not run")
	}
	mu.Lock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	mu.Unlock()
}

func TestLoopFramesAndCancel(t *testing.T) {
	l := NewLoop(5 * time.Millisecond)
	l.Start()
	defer l.Stop()

	fired := make(chan struct{}, 1)
	l.RequestFrame(func() { fired <- struct{}{} })
	cancelled := l.RequestFrame(func() { t.Error("cancelled frame ran") })
	cancelled()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("frame callback did not run")
	}
}

func TestLoopAfterFuncCancel(t *testing.T) {
	l := NewLoop(5 * time.Millisecond)
	l.Start()
	defer l.Stop()

	ran := make(chan struct{}, 1)
	cancel := l.AfterFunc(10*time.Millisecond, func() { t.Error("cancelled timer ran") })
	cancel()
	l.AfterFunc(20*time.Millisecond, func() { ran <- struct{}{} })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestCatalogWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenes: []\n"), 0o644))

	w, err := NewCatalogWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("scenes: [{}]\n"), 0o644))

	select {
	case p := <-changed:
		assert.Equal(t, w.Path(), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
