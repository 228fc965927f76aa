package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Dicklesworthstone/nbview/internal/document"
)

// ChangeType classifies a watched-document change.
type ChangeType int

const (
	DocumentModified ChangeType = iota
	DocumentDeleted
)

func (t ChangeType) String() string {
	switch t {
	case DocumentModified:
		return "document_modified"
	case DocumentDeleted:
		return "document_deleted"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Change is a debounced change to an open document.
type Change struct {
	Type ChangeType
	URI  string
}

const (
	defaultChangesBuffer = 100
	defaultErrorsBuffer  = 10
)

// Watcher monitors open local documents on disk and emits debounced change
// events so the host can trigger re-resolution. Watches are added per
// document; the parent directory is watched because editors typically
// replace files by rename.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	changes   chan Change
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once

	debouncer *debouncer

	mu          sync.Mutex
	watchedDirs map[string]int    // dir -> document refcount
	pathToURI   map[string]string // clean absolute path -> uri

	wg sync.WaitGroup
}

// NewWatcher creates a document watcher with the default debounce delay.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher:   fsw,
		changes:     make(chan Change, defaultChangesBuffer),
		errors:      make(chan error, defaultErrorsBuffer),
		done:        make(chan struct{}),
		debouncer:   newDebouncer(0),
		watchedDirs: make(map[string]int),
		pathToURI:   make(map[string]string),
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()

	return w, nil
}

// Add starts watching the document behind a URI. Non-local URIs are ignored
// without error; remote documents have no change feed.
func (w *Watcher) Add(uri string) error {
	path, err := document.LocalPath(uri)
	if err != nil {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("abs %s: %w", path, err)
	}
	abs = filepath.Clean(abs)
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.pathToURI[abs]; ok {
		return nil
	}

	if w.watchedDirs[dir] == 0 {
		if err := w.fsWatcher.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.watchedDirs[dir]++
	w.pathToURI[abs] = uri
	return nil
}

// Remove stops watching the document behind a URI.
func (w *Watcher) Remove(uri string) {
	path, err := document.LocalPath(uri)
	if err != nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	abs = filepath.Clean(abs)
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.pathToURI[abs]; !ok {
		return
	}
	delete(w.pathToURI, abs)

	w.watchedDirs[dir]--
	if w.watchedDirs[dir] <= 0 {
		delete(w.watchedDirs, dir)
		_ = w.fsWatcher.Remove(dir)
	}
}

// Changes returns the channel of debounced document changes.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and releases OS resources.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}

	w.closeOnce.Do(func() {
		close(w.done)
	})

	// Closing the underlying watcher unblocks the run loop.
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer close(w.changes)
	defer close(w.errors)

	for {
		select {
		case <-w.done:
			return
		case evt, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if translated := w.translateEvent(evt); translated != nil {
				w.emitChange(*translated)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

func (w *Watcher) translateEvent(e fsnotify.Event) *Change {
	if e.Name == "" {
		return nil
	}
	clean := filepath.Clean(e.Name)

	w.mu.Lock()
	uri, ok := w.pathToURI[clean]
	w.mu.Unlock()
	if !ok {
		return nil
	}

	switch {
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename is usually half of an editor's atomic replace; the
		// following Create lands as a modification. Deletes without a
		// follow-up write stay deletes.
		if _, err := os.Stat(clean); err == nil {
			return nil
		}
		return &Change{Type: DocumentDeleted, URI: uri}
	case e.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if !w.debouncer.ShouldEmit(uri) {
			return nil
		}
		return &Change{Type: DocumentModified, URI: uri}
	default:
		return nil
	}
}

func (w *Watcher) emitChange(c Change) {
	select {
	case w.changes <- c:
	default:
		// Best-effort: drop if consumer is stalled.
	}
}

func (w *Watcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
		// Best-effort: drop if consumer is stalled.
	}
}
