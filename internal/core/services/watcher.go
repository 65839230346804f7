package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// DefaultSettleDelay is how long a file must stay quiet before it is ingested.
const DefaultSettleDelay = 500 * time.Millisecond

var watchLog = logger.With("watch")

// Watcher ingests PDF and Word files dropped into an inbox directory.
// A file that changes after ingest replaces its previous units.
type Watcher struct {
	retrieval driving.RetrievalService
	dir       string
	settle    time.Duration

	mu       sync.Mutex
	stopped  bool
	pending  map[string]*pendingIngest
	ingested map[string]string // path -> document ID
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for dir.
func NewWatcher(retrieval driving.RetrievalService, dir string) *Watcher {
	return &Watcher{
		retrieval: retrieval,
		dir:       dir,
		settle:    DefaultSettleDelay,
		pending:   make(map[string]*pendingIngest),
		ingested:  make(map[string]string),
	}
}

// Run watches the directory until ctx is cancelled.
// Files already present are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	watchLog.Info("watching %s", w.dir)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && isIngestible(path) {
			w.schedule(ctx, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.stop()
				return nil
			}
			if path := w.handleEvent(event); path != "" {
				w.schedule(ctx, path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			watchLog.Warn("watch error: %v", err)
		}
	}
}

// handleEvent returns the path to ingest for event, or "" to ignore it.
func (w *Watcher) handleEvent(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}
	if !isIngestible(event.Name) {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return ""
	}
	return event.Name
}

// pendingIngest is the per-path state. At most one ingest of a path runs at
// a time; changes seen while it runs set dirty and re-arm the timer after.
type pendingIngest struct {
	timer   *time.Timer
	running bool
	dirty   bool
}

// schedule (re)starts the settle timer of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	p, ok := w.pending[path]
	if !ok {
		p = &pendingIngest{}
		w.pending[path] = p
		w.arm(ctx, path, p)
		return
	}
	if p.running {
		p.dirty = true
		return
	}
	if p.timer.Stop() {
		p.timer.Reset(w.settle)
		return
	}
	// The timer fired and its ingest is about to start.
	p.dirty = true
}

// arm starts the settle timer of p. Callers hold w.mu.
func (w *Watcher) arm(ctx context.Context, path string, p *pendingIngest) {
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.run(ctx, path, p)
	})
}

func (w *Watcher) run(ctx context.Context, path string, p *pendingIngest) {
	w.mu.Lock()
	if w.pending[path] != p {
		w.mu.Unlock()
		return
	}
	p.running = true
	p.dirty = false
	w.mu.Unlock()

	w.ingest(ctx, path)

	w.mu.Lock()
	defer w.mu.Unlock()
	p.running = false
	if w.pending[path] != p {
		return
	}
	if p.dirty && !w.stopped {
		p.dirty = false
		w.arm(ctx, path, p)
		return
	}
	delete(w.pending, path)
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	previous := w.ingested[path]
	w.mu.Unlock()

	result, err := w.retrieval.Ingest(ctx, domain.IngestRequest{Path: path})
	if err != nil {
		watchLog.Warn("ingest %s: %v", filepath.Base(path), err)
		return
	}
	watchLog.Info("ingested %s: %d units", filepath.Base(path), result.UnitsProcessed)

	if previous != "" {
		if err := w.retrieval.DeleteDocument(ctx, previous); err != nil {
			watchLog.Warn("remove previous version of %s: %v", filepath.Base(path), err)
		}
	}

	w.mu.Lock()
	w.ingested[path] = result.DocumentID
	w.mu.Unlock()
}

// stop cancels pending timers and waits for running ingests.
func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	for path, p := range w.pending {
		if !p.running && p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// isIngestible returns true for visible files with a supported extension.
func isIngestible(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	_, err := domain.ParseFileType(filepath.Ext(name))
	return err == nil
}
