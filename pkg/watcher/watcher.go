// Package watcher reports changes to the dashboard's config file so API and
// export settings can be reloaded without a restart. It watches the parent
// directory with fsnotify, which also sees editors that save by renaming a
// temp file over the original, and falls back to polling the file's size
// and mtime when fsnotify is unavailable.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often the polling fallback stats the file.
const DefaultPollInterval = 2 * time.Second

// EnvForcePoll forces polling when set to a true value (1, true).
const EnvForcePoll = "READMIT_FORCE_POLL"

var (
	ErrFileRemoved    = errors.New("watcher: config file was removed")
	ErrAlreadyStarted = errors.New("watcher: already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a burst of events must be quiet before a
// change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling fallback interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithForcePoll skips fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithOnError receives watch errors, including ErrFileRemoved.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher reports changes of one file on Changed.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	onError      func(error)

	changed   chan struct{}
	debouncer *Debouncer

	mu     sync.Mutex
	cancel context.CancelFunc
	fsw    *fsnotify.Watcher
}

// NewWatcher returns a stopped watcher for path.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onError:      func(error) {},
		changed:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. The file does not need to exist yet.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if !w.forcePoll && !envBool(EnvForcePoll) {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(filepath.Dir(w.path)); err == nil {
				w.fsw = fsw
				go w.watchEvents(ctx, fsw)
				return nil
			}
			fsw.Close()
		}
		w.onError(err)
	}
	go w.poll(ctx, stat(w.path))
	return nil
}

// Stop ends watching. Changed is left open; a pending receive simply
// never completes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
}

// Changed receives once per debounced change. Changes that arrive while
// one is still unread are merged into it.
func (w *Watcher) Changed() <-chan struct{} { return w.changed }

func (w *Watcher) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func (w *Watcher) watchEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
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

// fileState is what polling compares between ticks.
type fileState struct {
	exists bool
	size   int64
	mtime  time.Time
}

func (s fileState) same(o fileState) bool {
	return s.exists == o.exists && s.size == o.size && s.mtime.Equal(o.mtime)
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), mtime: info.ModTime()}
}

func (w *Watcher) poll(ctx context.Context, last fileState) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := stat(w.path)
			switch {
			case cur.same(last):
				continue
			case last.exists && !cur.exists:
				w.onError(ErrFileRemoved)
			case cur.exists:
				w.debouncer.Trigger(w.notify)
			}
			last = cur
		}
	}
}

func envBool(name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(name)))
	return b
}
