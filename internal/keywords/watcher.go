package keywords

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumescan/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// VariantWatcher reloads a VariantTable when its overrides file changes
type VariantWatcher struct {
	mu sync.Mutex

	path  string
	table *VariantTable

	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	doneChan   chan struct{}

	onReload func(entries int, err error)
	logger   *errors.Logger

	running bool
}

// NewVariantWatcher creates a watcher that refreshes table from path
func NewVariantWatcher(path string, table *VariantTable, debounceDelay time.Duration, logger *errors.Logger) *VariantWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &VariantWatcher{
		path:          path,
		table:         table,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		doneChan:      make(chan struct{}),
		logger:        logger,
	}
}

// OnReload registers fn to run after every reload attempt
func (vw *VariantWatcher) OnReload(fn func(entries int, err error)) {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.onReload = fn
}

// Start begins watching the variants file
func (vw *VariantWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.running {
		return fmt.Errorf("variant watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	vw.fsWatcher = watcher

	if stat, err := os.Stat(vw.path); err == nil {
		vw.lastModTime = stat.ModTime()
	}

	// Watch the directory so atomic renames and late file creation are seen
	dir := filepath.Dir(vw.path)
	if err := vw.fsWatcher.Add(dir); err != nil {
		_ = vw.fsWatcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	vw.running = true
	go vw.watchLoop()

	vw.logger.Info("Variant file watcher started",
		"file", vw.path,
		"debounce_delay", vw.debounceDelay)
	return nil
}

// Stop stops the watcher and waits for its loop to exit
func (vw *VariantWatcher) Stop() error {
	vw.mu.Lock()
	if !vw.running {
		vw.mu.Unlock()
		return nil
	}
	close(vw.stopChan)
	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}
	vw.running = false
	vw.mu.Unlock()

	<-vw.doneChan

	if err := vw.fsWatcher.Close(); err != nil {
		vw.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	vw.logger.Info("Variant file watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (vw *VariantWatcher) IsRunning() bool {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	return vw.running
}

func (vw *VariantWatcher) watchLoop() {
	defer close(vw.doneChan)
	for {
		select {
		case event, ok := <-vw.fsWatcher.Events:
			if !ok {
				return
			}
			if vw.shouldProcessEvent(event) {
				vw.scheduleReload()
			}

		case err, ok := <-vw.fsWatcher.Errors:
			if !ok {
				return
			}
			vw.logger.LogError(err, "File watcher error")

		case <-vw.reloadChan:
			if vw.hasFileChanged() {
				vw.Reload()
			}

		case <-vw.stopChan:
			return
		}
	}
}

func (vw *VariantWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(vw.path) &&
		filepath.Base(event.Name) != filepath.Base(vw.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (vw *VariantWatcher) hasFileChanged() bool {
	stat, err := os.Stat(vw.path)
	if err != nil {
		return false
	}
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if stat.ModTime().Equal(vw.lastModTime) {
		return false
	}
	vw.lastModTime = stat.ModTime()
	return true
}

func (vw *VariantWatcher) scheduleReload() {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}
	vw.debounceTimer = time.AfterFunc(vw.debounceDelay, func() {
		select {
		case vw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// Reload reads the overrides file and swaps the merged table in.
// On failure the previous table stays active.
func (vw *VariantWatcher) Reload() {
	overrides, err := LoadVariantsFile(vw.path)
	if err == nil {
		merged := MergeVariants(DefaultVariants, overrides)
		vw.table.Replace(merged)
		vw.logger.Info("Variant table reloaded", "file", vw.path, "entries", len(merged))
	} else {
		vw.logger.LogError(err, "Failed to reload variant table, keeping previous table", "file", vw.path)
	}

	vw.mu.Lock()
	fn := vw.onReload
	vw.mu.Unlock()
	if fn != nil {
		fn(vw.table.Len(), err)
	}
}
