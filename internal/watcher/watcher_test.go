package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestWatcher_SignalsOnDescriptorWrite(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "sample.tech.json")
	writeDescriptor(t, descPath, `{"name": "sample"}`)

	cfg := DefaultConfig(descPath)
	cfg.DebounceDur = 50 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()

	changes, err := w.Start()
	require.NoError(t, err)

	writeDescriptor(t, descPath, `{"name": "sample", "grid_unit": "0.001"}`)

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification after descriptor write")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "sample.tech.json")
	writeDescriptor(t, descPath, `{"name": "sample"}`)

	cfg := DefaultConfig(descPath)
	cfg.DebounceDur = 20 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()

	changes, err := w.Start()
	require.NoError(t, err)

	writeDescriptor(t, filepath.Join(dir, "notes.txt"), "unrelated")

	select {
	case <-changes:
		t.Fatal("unrelated file should not signal a change")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "sample.tech.json")
	writeDescriptor(t, descPath, `{"name": "sample"}`)

	cfg := DefaultConfig(descPath)
	cfg.DebounceDur = 100 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()

	changes, err := w.Start()
	require.NoError(t, err)

	// A burst of writes collapses into a single notification.
	for i := 0; i < 5; i++ {
		writeDescriptor(t, descPath, `{"name": "sample"}`)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification after the burst settled")
	}

	select {
	case <-changes:
		t.Fatal("burst should have been debounced into one notification")
	case <-time.After(300 * time.Millisecond):
	}
}
