// Package hotreload watches reference data files and triggers a reload when
// they change
package hotreload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc is called once per burst of changes to the watched files
type ReloadFunc func(ctx context.Context, changed []string) error

// FileWatcher watches a fixed set of files. It watches their parent
// directories so editors that replace a file on save are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	reload  ReloadFunc
	files   map[string]struct{}

	debounceDelay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a FileWatcher
type Option func(*FileWatcher)

// WithDebounce sets how long the watcher waits for further events before
// calling the reload function
func WithDebounce(d time.Duration) Option {
	return func(fw *FileWatcher) {
		if d > 0 {
			fw.debounceDelay = d
		}
	}
}

// NewFileWatcher creates a watcher for files. Start must be called to begin
// delivering events.
func NewFileWatcher(files []string, reload ReloadFunc, logger *zap.Logger, opts ...Option) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:       watcher,
		logger:        logger,
		reload:        reload,
		files:         make(map[string]struct{}, len(files)),
		debounceDelay: 250 * time.Millisecond,
		pending:       make(map[string]struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		fw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	return fw, nil
}

// Start begins file watching
func (fw *FileWatcher) Start() {
	fw.ctx, fw.cancel = context.WithCancel(context.Background())
	go fw.watchLoop()
	fw.logger.Info("File watcher started", zap.Int("files", len(fw.files)))
}

// Stop shuts down the watcher and waits for the event loop to exit
func (fw *FileWatcher) Stop() error {
	if fw.cancel != nil {
		fw.cancel()
	}
	err := fw.watcher.Close()
	if fw.ctx != nil {
		<-fw.done
	}

	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	return err
}

func (fw *FileWatcher) watchLoop() {
	defer close(fw.done)
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

// handleEvent records a change to a watched file and restarts the debounce
// timer
func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, watched := fw.files[path]; !watched {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.pending[path] = struct{}{}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounceDelay, fw.flush)
}

// flush hands the pending changes to the reload function
func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	changed := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		changed = append(changed, p)
	}
	fw.pending = make(map[string]struct{})
	fw.mu.Unlock()

	if len(changed) == 0 || fw.ctx.Err() != nil {
		return
	}

	fw.logger.Info("Reference files changed", zap.String("files", strings.Join(changed, ",")))
	if err := fw.reload(fw.ctx, changed); err != nil {
		fw.logger.Error("Reload failed", zap.Error(err))
	}
}
