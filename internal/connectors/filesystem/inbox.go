package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is emitted.
const DefaultSettle = 500 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("inbox closed")

// File is a settled file read from the inbox.
type File struct {
	Path    string
	Name    string
	Content []byte
}

// Inbox watches a directory for new files.
type Inbox struct {
	root    string
	settle  time.Duration
	maxSize int64

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(i *Inbox) {
		if d > 0 {
			i.settle = d
		}
	}
}

// WithMaxSize skips files larger than n bytes.
func WithMaxSize(n int64) Option {
	return func(i *Inbox) {
		i.maxSize = n
	}
}

// New creates an inbox for root.
func New(root string, opts ...Option) *Inbox {
	i := &Inbox{root: root, settle: DefaultSettle}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Root returns the watched directory.
func (i *Inbox) Root() string {
	return i.root
}

// Validate checks that the root is a readable directory.
func (i *Inbox) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(i.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", i.root)
	}
	return nil
}

// Scan reads every visible regular file already in the root.
func (i *Inbox) Scan(ctx context.Context) ([]File, error) {
	if err := i.Validate(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(i.root)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		if f := i.read(filepath.Join(i.root, e.Name())); f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

// Watch emits files as they settle. The channel is closed when ctx is
// cancelled or the inbox is closed.
func (i *Inbox) Watch(ctx context.Context) (<-chan File, error) {
	if err := i.Validate(ctx); err != nil {
		return nil, err
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil, ErrClosed
	}
	if i.watcher != nil {
		i.mu.Unlock()
		return nil, errors.New("inbox already watching")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		i.mu.Unlock()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(i.root); err != nil {
		i.mu.Unlock()
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", i.root, err)
	}
	i.watcher = watcher
	i.mu.Unlock()

	out := make(chan File)
	go i.loop(ctx, watcher, out)
	return out, nil
}

func (i *Inbox) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- File) {
	defer close(out)
	defer i.stopWatcher(watcher)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(i.settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if path := i.handleFsEvent(event); path != "" {
				pending[path] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < i.settle {
					continue
				}
				delete(pending, path)
				f := i.read(path)
				if f == nil {
					continue
				}
				select {
				case out <- *f:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the path to (re)schedule, or "" when the event is
// irrelevant.
func (i *Inbox) handleFsEvent(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}
	if isHidden(filepath.Base(event.Name)) {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return ""
	}
	return event.Name
}

func (i *Inbox) read(path string) *File {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if i.maxSize > 0 && info.Size() > i.maxSize {
		logger.Warn("watch: skipping %s (%d bytes exceeds %d)", path, info.Size(), i.maxSize)
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watch: read %s: %v", path, err)
		return nil
	}
	return &File{Path: path, Name: filepath.Base(path), Content: content}
}

func (i *Inbox) stopWatcher(watcher *fsnotify.Watcher) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.watcher == watcher {
		i.watcher = nil
	}
	watcher.Close()
}

// Close stops any active watch. Further calls to Watch fail.
func (i *Inbox) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	if i.watcher != nil {
		err := i.watcher.Close()
		i.watcher = nil
		return err
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
