package keywords

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variants:\n  - canonical: Rust\n"), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	watcher := NewVariantWatcher(path, table, 20*time.Millisecond, nil)
	reloaded := make(chan error, 4)
	watcher.OnReload(func(_ int, err error) {
		select {
		case reloaded <- err:
		default:
		}
	})

	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()
	assert.True(t, watcher.IsRunning())
	assert.Error(t, watcher.Start(), "second start fails")

	// ensure a distinct mtime on coarse-grained filesystems
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("variants:\n  - canonical: Rust\n    variants: [rustlang]\n"), 0o644))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Expected variant table reload after file change")
	}
	assert.Equal(t, "Rust", table.Canonical("rustlang"))
}

func TestVariantWatcherKeepsTableOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variants:\n  - canonical: Rust\n    variants: [rustlang]\n"), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	watcher := NewVariantWatcher(path, table, 0, nil)

	var reloadErr error
	watcher.OnReload(func(_ int, err error) { reloadErr = err })

	require.NoError(t, os.WriteFile(path, []byte("variants:\n  - variants: [orphan]\n"), 0o644))
	watcher.Reload()

	assert.Error(t, reloadErr)
	assert.Equal(t, "Rust", table.Canonical("rustlang"))
}

func TestVariantWatcherStopIdempotent(t *testing.T) {
	watcher := NewVariantWatcher(filepath.Join(t.TempDir(), "v.yaml"), DefaultVariantTable(), 0, nil)
	assert.NoError(t, watcher.Stop())

	require.NoError(t, watcher.Start())
	assert.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
}
