// Package watcher reports debounced changes of individual files.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/viewnav/internal/logging"
)

// FileWatcher watches files for changes with debouncing. Files are watched
// through their directories so that editors replacing a file by rename are
// still observed.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    logging.Logger

	mutex    sync.RWMutex
	files    map[string]bool
	handlers []ChangeHandler
	cancel   context.CancelFunc
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeHandler handles a batch of debounced changes, one event per path.
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// Debouncer groups rapid file changes together
type Debouncer struct {
	delay   time.Duration
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// NewFileWatcher creates a watcher that delivers changes once no further
// change arrived for debounceDelay.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &FileWatcher{
		watcher: w,
		debouncer: &Debouncer{
			delay:  debounceDelay,
			output: make(chan []ChangeEvent, 10),
		},
		logger: logger.WithComponent("watcher"),
		files:  make(map[string]bool),
	}, nil
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddFile watches path. The file itself may not exist yet; its directory must.
func (fw *FileWatcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	fw.mutex.Lock()
	fw.files[abs] = true
	fw.mutex.Unlock()

	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return nil
}

// Files returns the watched files.
func (fw *FileWatcher) Files() []string {
	fw.mutex.RLock()
	defer fw.mutex.RUnlock()
	files := make([]string, 0, len(fw.files))
	for f := range fw.files {
		files = append(files, f)
	}
	return files
}

// Start delivers changes until ctx is done or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	fw.mutex.Lock()
	fw.cancel = cancel
	fw.mutex.Unlock()

	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	fw.mutex.Lock()
	if fw.cancel != nil {
		fw.cancel()
	}
	fw.mutex.Unlock()

	fw.debouncer.stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	fw.mutex.RLock()
	watched := fw.files[abs]
	fw.mutex.RUnlock()
	if !watched {
		return
	}

	change := ChangeEvent{Path: abs}
	if info, err := os.Stat(abs); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		change.Type = EventTypeCreated
	case event.Op&fsnotify.Write == fsnotify.Write:
		change.Type = EventTypeModified
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		change.Type = EventTypeDeleted
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		change.Type = EventTypeRenamed
	default:
		change.Type = EventTypeModified
	}

	fw.debouncer.addEvent(change)
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.logger.Error(ctx, err, "file change handler failed", "files", len(events))
				}
			}
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// last event per path wins, first-seen order is kept
	index := make(map[string]int, len(d.pending))
	events := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		if i, ok := index[event.Path]; ok {
			events[i] = event
			continue
		}
		index[event.Path] = len(events)
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
		// consumer is behind; the next change delivers a fresh batch
	}
	d.pending = d.pending[:0]
}
