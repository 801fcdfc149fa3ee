package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/viewnav/internal/logging"
)

// File keeps the current path in a state file. Edits made to the file by
// other processes are reported as changes.
type File struct {
	path     string
	onChange ChangeFunc
	logger   logging.Logger

	mu      sync.Mutex
	current string

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewFile opens or creates the state file at path and starts watching it.
func NewFile(path string, onChange ChangeFunc, logger logging.Logger) (*File, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	current, err := readState(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// watch the directory so replaced files keep being observed
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &File{
		path:     path,
		onChange: onChange,
		logger:   logger,
		current:  current,
		watcher:  watcher,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go f.watchLoop(ctx)
	return f, nil
}

func readState(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Path returns the state file location.
func (f *File) Path() string { return f.path }

func (f *File) Get() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Set writes path to the state file. The watcher ignores the echo of this
// write; a non-silent Set notifies directly.
func (f *File) Set(path string, opts SetOptions) {
	f.mu.Lock()
	f.current = path
	err := os.WriteFile(f.path, []byte(path+"\n"), 0o644)
	f.mu.Unlock()

	if err != nil {
		f.logger.Error(context.Background(), err, "failed to write state file", "path", f.path)
	}
	if !opts.Silent {
		notify(f.onChange, path)
	}
}

func (f *File) watchLoop(ctx context.Context) {
	defer close(f.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			f.handleEvent(ctx, event)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn(ctx, err, "state file watcher error")
		}
	}
}

func (f *File) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != f.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path, err := readState(f.path)
	if err != nil {
		f.logger.Warn(ctx, err, "failed to read changed state file")
		return
	}

	f.mu.Lock()
	if path == "" || path == f.current {
		f.mu.Unlock()
		return
	}
	f.current = path
	f.mu.Unlock()

	f.logger.Debug(ctx, "state file changed", "path", path)
	notify(f.onChange, path)
}

// Close stops watching the state file.
func (f *File) Close() error {
	var err error
	f.once.Do(func() {
		f.cancel()
		err = f.watcher.Close()
		<-f.done
	})
	return err
}
