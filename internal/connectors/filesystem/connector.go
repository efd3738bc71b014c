// Package filesystem reads local files and directories as raw documents and
// watches them for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/logger"
)

// MaxFileSize is the largest file read; bigger files are skipped.
const MaxFileSize = 64 << 20

// Metadata keys set on every raw document.
const (
	MetaModifiedAt = "modified_at"
	metaURL        = "url"
)

// ChangeType describes a watched file event.
type ChangeType int

// Change types.
const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

// String returns the string representation.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a single watched file event. Deleted changes carry only the URI
// and URL of the document.
type Change struct {
	Type     ChangeType
	Document domain.RawDocument
}

// Connector reads files under a root path, which may be a single file.
type Connector struct {
	source string
	root   string
	accept func(path string) bool
	since  time.Time

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithFilter only yields files for which accept returns true.
func WithFilter(accept func(path string) bool) Option {
	return func(c *Connector) {
		c.accept = accept
	}
}

// WithModifiedSince skips files not modified after t during FullSync.
func WithModifiedSince(t time.Time) Option {
	return func(c *Connector) {
		c.since = t
	}
}

// New creates a connector. source is recorded on every document.
func New(source, root string, opts ...Option) *Connector {
	c := &Connector{source: source, root: root}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source name recorded on documents.
func (c *Connector) Source() string {
	return c.source
}

// FileURL returns the file:// URL used as the document URL for path.
func FileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// FullSync walks the root and streams every accepted file. Both channels
// are closed when the walk ends.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if _, err := os.Stat(c.root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				errs <- fmt.Errorf("path does not exist: %s", c.root)
			} else {
				errs <- fmt.Errorf("stat %s: %w", c.root, err)
			}
			return
		}

		err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("Skipping %s: %v", path, err)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != c.root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !c.accepts(path) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Warn("Skipping %s: %v", path, err)
				return nil
			}
			if !c.since.IsZero() && !info.ModTime().After(c.since) {
				return nil
			}

			doc, err := c.readFile(path)
			if err != nil {
				logger.Warn("Skipping %s: %v", path, err)
				return nil
			}

			select {
			case docs <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch reports changes to accepted files under the root until ctx is
// cancelled or Close is called. New subdirectories are watched as they
// appear.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	info, err := os.Stat(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("path does not exist: %s", c.root)
		}
		return nil, fmt.Errorf("stat %s: %w", c.root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if info.IsDir() {
		err = c.addTree(watcher, c.root)
	} else {
		err = watcher.Add(filepath.Dir(c.root))
	}
	if err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan Change)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && info.IsDir() {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() && !isHidden(fi.Name()) {
						if err := c.addTree(watcher, event.Name); err != nil {
							logger.Warn("Watching %s: %v", event.Name, err)
						}
					}
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watch error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops watching.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent converts an fsnotify event into a change, or nil for events
// on directories, hidden files and rejected paths.
func (c *Connector) handleFsEvent(event fsnotify.Event) *Change {
	path := event.Name
	if isHidden(filepath.Base(path)) || !c.underRoot(path) || !c.accepts(path) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Document: c.stub(path)}
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil
		}
		doc, err := c.readFile(path)
		if err != nil {
			logger.Warn("Reading %s: %v", path, err)
			return nil
		}
		kind := ChangeUpdated
		if event.Has(fsnotify.Create) {
			kind = ChangeCreated
		}
		return &Change{Type: kind, Document: doc}
	default:
		return nil
	}
}

func (c *Connector) readFile(path string) (domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.RawDocument{}, err
	}
	if info.Size() > MaxFileSize {
		return domain.RawDocument{}, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, err
	}

	doc := c.stub(path)
	doc.Content = content
	doc.Metadata[MetaModifiedAt] = info.ModTime().UTC().Format(time.RFC3339)
	return doc, nil
}

// stub is a raw document without content, identified by path and URL.
func (c *Connector) stub(path string) domain.RawDocument {
	return domain.RawDocument{
		URI:    path,
		Source: c.source,
		Metadata: map[string]any{
			metaURL:             FileURL(path),
			domain.MetaFilePath: path,
		},
	}
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (c *Connector) accepts(path string) bool {
	return c.accept == nil || c.accept(path)
}

// underRoot reports whether path is the root file or inside the root dir.
func (c *Connector) underRoot(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
