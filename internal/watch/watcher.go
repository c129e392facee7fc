// internal/watch/watcher.go
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/repo"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Change is one file update, named by its slash separated path relative
// to the watched root.
type Change struct {
	Name    string
	Content string
	Removed bool
}

// Watcher turns file system activity under a root directory into Changes.
// Events are delivered on Changes() from a background goroutine; callers
// apply them to a repository on their own goroutine.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	ignore  map[string]bool
	changes chan Change
	done    chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

func New(root string, ignore []string, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		root:    abs,
		watcher: watcher,
		ignore:  make(map[string]bool, len(ignore)),
		changes: make(chan Change, 64),
		done:    make(chan struct{}),
		logger:  logger.With(zap.String("root", abs)),
	}
	for _, dir := range ignore {
		w.ignore[dir] = true
	}

	go w.watchLoop()

	return w, nil
}

// Scan registers every directory under the root with the watcher and
// returns the current content of every file.
func (w *Watcher) Scan() ([]Change, error) {
	var changes []Change
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("getting relative path: %w", err)
		}

		if d.IsDir() {
			if rel != "." && w.ShouldIgnore(rel) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("adding directory to watcher: %w", err)
			}
			return nil
		}

		if w.ShouldIgnore(rel) {
			return nil
		}
		if c, ok := w.read(path, rel); ok {
			changes = append(changes, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", w.root, err)
	}
	return changes, nil
}

func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// watchLoop processes filesystem events until the watcher is closed
func (w *Watcher) watchLoop() {
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		w.logger.Error("getting relative path", zap.Error(err))
		return
	}
	if w.ShouldIgnore(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.send(Change{Name: filepath.ToSlash(rel), Removed: true})

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("adding new directory to watcher", zap.Error(err))
			}
			return
		}
		if c, ok := w.read(event.Name, rel); ok {
			w.send(c)
		}
	}
}

// send delivers c unless the watcher has been closed.
func (w *Watcher) send(c Change) {
	select {
	case w.changes <- c:
	case <-w.done:
		w.logger.Debug("dropping change after close", zap.String("name", c.Name))
	}
}

// read loads a text file. Binary files are skipped.
func (w *Watcher) read(path, rel string) (Change, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Debug("skipping unreadable file", zap.String("path", rel), zap.Error(err))
		return Change{}, false
	}
	if !utf8.Valid(data) {
		w.logger.Debug("skipping binary file", zap.String("path", rel))
		return Change{}, false
	}
	return Change{Name: filepath.ToSlash(rel), Content: string(data)}, true
}

// ShouldIgnore reports whether any element of the relative path is an
// ignored directory name.
func (w *Watcher) ShouldIgnore(rel string) bool {
	if rel == "" || rel == "." {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ignore[part] {
			return true
		}
	}
	return false
}

// Close stops the watcher. Changes() is closed once the event loop exits;
// changes nobody has received by then are dropped.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.done) })
	return w.watcher.Close()
}

// Apply saves c into the working directory of r as {"content": ...}, or
// deletes the record when the file is gone.
func Apply(r *repo.Repository, c Change) error {
	if c.Removed {
		err := r.Delete(c.Name)
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return nil
		}
		return err
	}

	if existing, ok := r.Working().Lookup(c.Name); ok && existing["content"] == c.Content {
		return nil
	}
	_, err := r.Save(c.Name, content.Record{"content": c.Content})
	return err
}
