package filesystem

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/patrickmn/go-cache"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileEventSource = (*Watcher)(nil)

const (
	// defaultSettle is how long a file must go without writes before it
	// is reported.
	defaultSettle = 500 * time.Millisecond

	// seenTTL is how long an emitted hash suppresses repeat events.
	seenTTL     = 10 * time.Minute
	seenCleanup = 20 * time.Minute

	eventBuffer = 64
)

// Watcher discovers files in the notes folder. Scan lists what is already
// there; Watch reports files as they are created or rewritten.
type Watcher struct {
	rootPath string
	settle   time.Duration

	// seen maps a path to the hash last reported for it.
	seen *cache.Cache

	mu        sync.Mutex
	closed    bool
	fsWatcher *fsnotify.Watcher
}

// New creates a watcher for rootPath.
func New(rootPath string) *Watcher {
	return &Watcher{
		rootPath: rootPath,
		settle:   defaultSettle,
		seen:     cache.New(seenTTL, seenCleanup),
	}
}

// Root returns the watched folder.
func (w *Watcher) Root() string {
	return w.rootPath
}

// Validate checks that the root path is a readable directory.
func (w *Watcher) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(w.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path does not exist: %s", w.rootPath)
		}
		return fmt.Errorf("cannot access root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path is not a directory: %s", w.rootPath)
	}
	return nil
}

// Scan lists every visible regular file under the root in lexical order.
func (w *Watcher) Scan(ctx context.Context) ([]string, error) {
	if err := w.Validate(ctx); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("scan: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != w.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Watch reports new and rewritten files until ctx is cancelled. A file is
// reported once it has settled, and only when its hash differs from the
// one last reported for that path.
func (w *Watcher) Watch(ctx context.Context) (<-chan driven.FileEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("watcher is closed")
	}
	if err := w.Validate(ctx); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fsWatcher, w.rootPath); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", w.rootPath, err)
	}
	w.fsWatcher = fsWatcher

	events := make(chan driven.FileEvent, eventBuffer)
	go w.loop(ctx, fsWatcher, events)

	logger.Info("watching %s", w.rootPath)
	return events, nil
}

// Close stops any active watch. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsWatcher != nil {
		err := w.fsWatcher.Close()
		w.fsWatcher = nil
		return err
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsWatcher *fsnotify.Watcher, events chan<- driven.FileEvent) {
	defer close(events)
	defer fsWatcher.Close()

	// pending holds paths waiting to settle, keyed to their last write.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			for _, path := range w.handleFsEvent(fsWatcher, event) {
				pending[path] = time.Now()
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				ev, ok := w.settled(path)
				if !ok {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the paths to queue for an event. A new directory
// is added to the watch and the files already inside it are queued, which
// covers a folder moved in whole.
func (w *Watcher) handleFsEvent(fsWatcher *fsnotify.Watcher, event fsnotify.Event) []string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}
	if isHidden(relative(w.rootPath, event.Name)) {
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone before we looked.
		return nil
	}
	if info.IsDir() {
		if !event.Has(fsnotify.Create) {
			return nil
		}
		if fsWatcher != nil {
			if err := w.addTree(fsWatcher, event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
		}
		return w.filesIn(event.Name)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return []string{event.Name}
}

// filesIn lists visible regular files below dir.
func (w *Watcher) filesIn(dir string) []string {
	var paths []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}

// settled hashes a file and reports whether it should be emitted.
func (w *Watcher) settled(path string) (driven.FileEvent, bool) {
	hash, err := hashFile(path)
	if err != nil {
		logger.Debug("watcher: %s vanished before processing: %v", path, err)
		return driven.FileEvent{}, false
	}
	if prev, ok := w.seen.Get(path); ok && prev.(string) == hash {
		logger.Debug("watcher: %s unchanged, skipping", path)
		return driven.FileEvent{}, false
	}
	w.seen.Set(path, hash, cache.DefaultExpiration)
	return driven.FileEvent{Path: path, Kind: domain.DetectKind(path), Hash: hash}, true
}

// addTree watches dir and every visible directory below it.
func (w *Watcher) addTree(fsWatcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return fsWatcher.Add(path)
	})
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // content fingerprint, not security
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// relative returns path relative to root, or path unchanged when it is
// not below root.
func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." do not count.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
