// Package watcher monitors a single file for changes, preferring fsnotify
// and falling back to mtime polling on filesystems where inotify is
// unreliable. The session package uses it to follow the browser session
// file that feeds tab events into the background context.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
)

// DefaultPollInterval is the stat cadence when polling.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that coalesces event bursts. Browsers
// rewrite the session file several times per navigation; one notification
// per burst is enough.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat cadence used when polling.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback invoked after the file settles.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on watch errors, including the
// watched file disappearing.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// snapshot is the last observed stat of the watched file. A zero snapshot
// means the file did not exist.
type snapshot struct {
	mtime time.Time
	size  int64
}

func statFile(path string) snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}
	}
	return snapshot{mtime: info.ModTime(), size: info.Size()}
}

// Watcher monitors one file. Callbacks run on the watcher's goroutine after
// the debounce period; they must not block for long.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func()
	onError      func(error)

	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool

	mu      sync.RWMutex
	last    snapshot
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a watcher for path. The file does not have to exist yet; a
// later create counts as a change.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func() {},
		onError:      func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. The mode is decided per start: remote filesystems
// and A11Y_FORCE_POLLING=1 poll, everything else uses fsnotify on the
// file's directory (watching the directory survives the atomic
// write-then-rename most browsers use for session files).
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	if _, err := os.Stat(w.path); os.IsPermission(err) {
		return ErrPermission
	}
	w.last = statFile(w.path)
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.polling = w.mustPoll()
	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(filepath.Dir(w.path))
		}
		if err != nil {
			if fsw != nil {
				fsw.Close()
			}
			debug.Log("watcher: fsnotify unavailable (%v), polling %s", err, w.path)
			w.polling = true
		} else {
			w.fsw = fsw
			go w.runFsnotify(fsw)
		}
	}
	if w.polling {
		go w.runPolling()
	}

	w.started = true
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// Polling reports whether the watcher is in polling mode.
func (w *Watcher) Polling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// mustPoll decides whether fsnotify can be trusted for this path.
func (w *Watcher) mustPoll() bool {
	if forcePollEnv() {
		return true
	}
	fs := detectFilesystemTypeFunc(w.path)
	if isRemoteFilesystem(fs) {
		debug.Log("watcher: %s filesystem at %s, polling", fs, w.path)
		return true
	}
	return false
}

func forcePollEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("A11Y_FORCE_POLLING"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// runFsnotify drains directory events, reacting only to the watched file.
func (w *Watcher) runFsnotify(fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notify)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// runPolling stats the file on a ticker and compares against the last
// snapshot.
func (w *Watcher) runPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				switch {
				case os.IsNotExist(err):
					w.mu.Lock()
					existed := !w.last.mtime.IsZero()
					w.last = snapshot{}
					w.mu.Unlock()
					if existed {
						w.onError(ErrFileRemoved)
					}
				case os.IsPermission(err):
					w.onError(ErrPermission)
				default:
					w.onError(err)
				}
				continue
			}

			cur := snapshot{mtime: info.ModTime(), size: info.Size()}
			w.mu.Lock()
			changed := cur != w.last
			w.last = cur
			w.mu.Unlock()
			if changed {
				w.debouncer.Trigger(w.notify)
			}
		}
	}
}

// notify runs the change callback unless the watcher stopped while the
// debounce timer was pending.
func (w *Watcher) notify() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if started {
		w.onChange()
	}
}
