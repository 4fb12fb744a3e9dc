package vault

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called with the vault path of a note that changed on disk.
type ChangeFunc func(ctx context.Context, rel string)

// Watcher reports edits to notes in a vault. Bursts of events for the same
// note are collapsed into one call after the debounce window.
type Watcher struct {
	vault    *Vault
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(v *Vault, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{vault: v, fsw: fsw, debounce: debounce, logger: logger}, nil
}

// Close releases the underlying watcher. Run returns once it notices.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches the vault until ctx is cancelled. onChange is only ever called
// from Run's goroutine, so callers need no locking of their own.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	if err := w.addTree(w.vault.Root()); err != nil {
		return err
	}

	ready := make(chan firing)
	deb := newDebouncer(w.debounce, ready, ctx.Done())
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case f := <-ready:
			if deb.accept(f) {
				onChange(ctx, f.rel)
			}

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.noteEvent(event); ok {
				deb.schedule(rel)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watcher error", "error", err)
		}
	}
}

// firing is a debounce timer going off for a note. gen tells a stale firing
// from the current one.
type firing struct {
	rel string
	gen uint64
}

type pendingFiring struct {
	timer *time.Timer
	gen   uint64
}

// debouncer collapses bursts of events per note. It is owned by Run's
// goroutine; only the timers it starts touch other goroutines, and those
// only send on out.
type debouncer struct {
	delay   time.Duration
	out     chan<- firing
	done    <-chan struct{}
	gen     uint64
	pending map[string]pendingFiring
}

func newDebouncer(delay time.Duration, out chan<- firing, done <-chan struct{}) *debouncer {
	return &debouncer{delay: delay, out: out, done: done, pending: make(map[string]pendingFiring)}
}

func (d *debouncer) schedule(rel string) {
	if p, ok := d.pending[rel]; ok && p.timer.Stop() {
		p.timer.Reset(d.delay)
		return
	}
	// Either no timer, or it already fired and its send is in flight. That
	// send becomes stale once the entry carries a newer generation.
	d.gen++
	f := firing{rel: rel, gen: d.gen}
	d.pending[rel] = pendingFiring{
		timer: time.AfterFunc(d.delay, func() {
			select {
			case d.out <- f:
			case <-d.done:
			}
		}),
		gen: f.gen,
	}
}

// accept reports whether f is the current firing for its note and, if so,
// forgets the note.
func (d *debouncer) accept(f firing) bool {
	p, ok := d.pending[f.rel]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(d.pending, f.rel)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

// noteEvent filters raw events down to writes of note files. New directories
// are added to the watch as a side effect.
func (w *Watcher) noteEvent(event fsnotify.Event) (string, bool) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !isHidden(filepath.Base(event.Name)) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn("watching new folder", "path", event.Name, "error", err)
				}
			}
			return "", false
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return "", false
	}
	if !isNoteFile(filepath.Base(event.Name)) {
		return "", false
	}
	rel, err := w.vault.Rel(event.Name)
	if err != nil {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
