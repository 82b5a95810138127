package analyze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher re-analyses source files when they change. Bursts of events for
// the same file are coalesced by a debounce delay.
type Watcher struct {
	analyzer  *Analyzer
	fsWatcher *fsnotify.Watcher
	logger    *zap.Logger

	// files restricts events to explicitly watched files; directories
	// watched as a whole accept any supported file. mu guards both, since
	// the event loop adds directories created under a watched one.
	mu    sync.RWMutex
	files map[string]bool
	dirs  map[string]bool

	debounce time.Duration
	onResult func(*Result)
	onRemove func(path string)
	onError  func(error)

	started  atomic.Bool
	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnResult sets the callback receiving each fresh model.
func WithOnResult(fn func(*Result)) WatchOption {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// WithOnRemove sets the callback for watched files that disappear.
func WithOnRemove(fn func(path string)) WatchOption {
	return func(w *Watcher) {
		w.onRemove = fn
	}
}

// WithOnError sets the callback for analysis and watch errors.
func WithOnError(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher watches paths, which may be files or directories. Directories
// are watched recursively, skipping hidden, vendor, node_modules and
// testdata directories.
func NewWatcher(a *Analyzer, paths []string, opts ...WatchOption) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		analyzer:  a,
		fsWatcher: fsWatcher,
		logger:    a.logger,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		debounce:  DefaultDebounce,
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if !info.IsDir() {
		// Editors often replace files, so the parent directory is watched.
		w.mu.Lock()
		w.files[abs] = true
		w.mu.Unlock()
		return w.fsWatcher.Add(filepath.Dir(abs))
	}
	return filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != abs && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		w.mu.Lock()
		w.dirs[p] = true
		w.mu.Unlock()
		return w.fsWatcher.Add(p)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "testdata"
}

// Watched returns the watched files and directories, sorted. It is safe to
// call while the watcher runs.
func (w *Watcher) Watched() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.files)+len(w.dirs))
	for f := range w.files {
		out = append(out, f)
	}
	for d := range w.dirs {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	if w.started.CompareAndSwap(false, true) {
		go w.loop(ctx)
	}
}

// Stop ends the event loop and releases the fsnotify watcher. It waits for
// an in-flight analysis to finish and may be called more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	if w.started.Load() {
		<-w.finished
	}
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.finished)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.handle(event) {
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.fail(fmt.Errorf("watch: %w", err))

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			clear(pending)
			slices.Sort(files)
			w.flush(ctx, files)
		}
	}
}

// handle filters an event and reports whether the file needs analysis.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 && w.inWatchedDir(event.Name) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
			w.mu.Lock()
			w.dirs[event.Name] = true
			w.mu.Unlock()
			if err := w.fsWatcher.Add(event.Name); err != nil {
				w.fail(fmt.Errorf("watch %s: %w", event.Name, err))
			}
			return false
		}
	}
	if !w.wants(event.Name) {
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	w.logger.Debug("file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
	return true
}

func (w *Watcher) inWatchedDir(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dirs[filepath.Dir(path)]
}

func (w *Watcher) wants(path string) bool {
	w.mu.RLock()
	file, dir := w.files[path], w.dirs[filepath.Dir(path)]
	w.mu.RUnlock()
	return file || dir && w.analyzer.Supports(path)
}

func (w *Watcher) flush(ctx context.Context, files []string) {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			w.logger.Info("watched file removed", zap.String("file", f))
			if w.onRemove != nil {
				w.onRemove(f)
			}
			continue
		}

		start := time.Now()
		res, err := w.analyzer.AnalyzeFile(ctx, f)
		if err != nil {
			w.fail(err)
			continue
		}
		w.logger.Info("file re-analyzed",
			zap.String("file", f),
			zap.Int("informations", res.Code.InformationCount(codemodel.InfoAll)),
			zap.Int("diagnostics", len(res.Report.Diagnostics)),
			zap.Duration("took", time.Since(start)),
		)
		if w.onResult != nil {
			w.onResult(res)
		}
	}
}

func (w *Watcher) fail(err error) {
	w.logger.Warn("watch error", zap.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}
