package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"esn-monitor/agent/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// ActionType is what happened to an alert file.
type ActionType string

const (
	ActionReady  ActionType = "ready"
	ActionRemove ActionType = "remove"
)

// FileEvent is emitted once a file has settled or has gone away.
type FileEvent struct {
	Action    ActionType
	Path      string
	Timestamp time.Time
}

const (
	eventQueueSize = 128
	alertExt       = ".json"
)

// AlertWatcher follows a single alert directory. Files are reported as ready
// after no write has touched them for the settle period.
type AlertWatcher struct {
	dir     string
	settle  time.Duration
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewAlertWatcher(dir string, settle time.Duration) (*AlertWatcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(abs); err != nil {
		_ = w.Close()
		return nil, err
	}
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	logger.Infof("Watching alert dir: %s", abs)
	return &AlertWatcher{
		dir:     abs,
		settle:  settle,
		watcher: w,
		pending: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}, nil
}

func (a *AlertWatcher) Dir() string { return a.dir }

// Existing lists alert files already present in the directory.
func (a *AlertWatcher) Existing() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && isAlertFile(e.Name()) {
			out = append(out, filepath.Join(a.dir, e.Name()))
		}
	}
	return out, nil
}

// Events starts the watch loop. The channel is closed after Close.
func (a *AlertWatcher) Events() <-chan FileEvent {
	out := make(chan FileEvent, eventQueueSize)
	a.wg.Add(1)
	go a.loop(out)
	go func() {
		a.wg.Wait()
		close(out)
	}()
	return out
}

func (a *AlertWatcher) loop(out chan<- FileEvent) {
	defer a.wg.Done()
	tick := time.NewTicker(a.settle / 2)
	defer tick.Stop()
	for {
		select {
		case <-a.stop:
			return
		case evt, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			a.handle(evt, out)
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Alert watcher error: %v", err)
		case now := <-tick.C:
			a.flush(now, out)
		}
	}
}

func (a *AlertWatcher) handle(evt fsnotify.Event, out chan<- FileEvent) {
	path := filepath.Clean(evt.Name)
	if !isAlertFile(path) {
		return
	}
	switch {
	case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
		a.mu.Lock()
		a.pending[path] = time.Now()
		a.mu.Unlock()
	case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		a.mu.Lock()
		delete(a.pending, path)
		a.mu.Unlock()
		emit(out, FileEvent{Action: ActionRemove, Path: path, Timestamp: time.Now()})
	}
}

func (a *AlertWatcher) flush(now time.Time, out chan<- FileEvent) {
	var ready []string
	a.mu.Lock()
	for p, last := range a.pending {
		if now.Sub(last) >= a.settle {
			ready = append(ready, p)
			delete(a.pending, p)
		}
	}
	a.mu.Unlock()
	for _, p := range ready {
		emit(out, FileEvent{Action: ActionReady, Path: p, Timestamp: now})
	}
}

func emit(out chan<- FileEvent, ev FileEvent) {
	select {
	case out <- ev:
	default:
		logger.Warnf("Alert event queue full, dropping %s %s", ev.Action, ev.Path)
	}
}

func (a *AlertWatcher) Close() error {
	var err error
	a.once.Do(func() {
		close(a.stop)
		err = a.watcher.Close()
	})
	return err
}

func isAlertFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(strings.ToLower(base), alertExt) && !strings.HasPrefix(base, ".")
}

// ErrOutsideDir is returned when a name would resolve outside the alert dir.
var ErrOutsideDir = errors.New("path escapes alert directory")

// Resolve maps a bare file name onto the alert directory, refusing anything
// that contains a path separator or parent reference.
func Resolve(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", ErrOutsideDir
	}
	full := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrOutsideDir
	}
	return full, nil
}
