package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	w := New(path, func(context.Context) {})

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"write to config", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create config", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"rename config", fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{"chmod config", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"remove config", fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{"write to sibling", fsnotify.Event{Name: filepath.Join(dir, ".env"), Op: fsnotify.Write}, false},
		{"unclean path", fsnotify.Event{Name: dir + "/./config.toml", Op: fsnotify.Write}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.relevant(tt.event))
		})
	}
}

func TestWatcher_Run_CallsOnChangeAfterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0600))

	var calls atomic.Int32
	w := New(path, func(context.Context) { calls.Add(1) }, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("a = 2\n"), 0600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_Run_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "config.toml"), func(context.Context) {})

	err := w.Run(context.Background())

	assert.Error(t, err)
}
