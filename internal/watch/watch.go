// Package watch keeps a batch run alive after the initial pass,
// feeding audio files that later appear in the input directory to the
// same sequential job loop. Arrivals are debounced so a file is only
// handed over once its writer has gone quiet.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/snarg/batchscribe/internal/catalog"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher monitors one directory (non-recursive, matching discovery)
// for new audio files and emits them on Files. It never runs jobs
// itself; the single consumer of Files preserves sequential dispatch.
type Watcher struct {
	dir  string
	exts map[string]bool
	log  zerolog.Logger

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounce       time.Duration
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	watcher *fsnotify.Watcher
	files   chan catalog.AudioFile
}

// New creates a Watcher for dir, emitting files whose extension is in exts.
func New(dir string, exts map[string]bool, log zerolog.Logger) *Watcher {
	return &Watcher{
		dir:            dir,
		exts:           exts,
		log:            log,
		debounce:       defaultDebounce,
		debounceTimers: make(map[string]*time.Timer),
		files:          make(chan catalog.AudioFile, 16),
	}
}

// Files is the stream of settled arrivals. It is never closed; callers
// select against their context.
func (w *Watcher) Files() <-chan catalog.AudioFile { return w.files }

// Start begins watching. The watcher shuts itself down when ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}
	w.watcher = fsw

	w.log.Info().Str("watch_dir", w.dir).Msg("watching for new audio")
	go w.watchLoop(ctx)
	return nil
}

// watchLoop is the main event loop that processes fsnotify events.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.exts[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			w.scheduleEmit(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleEmit debounces an arrival. Each further event on the same
// path pushes its timer back, so a file still being written is not
// handed to the engine half-finished.
func (w *Watcher) scheduleEmit(ctx context.Context, path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(w.debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		w.emit(ctx, path)
	})
}

func (w *Watcher) emit(ctx context.Context, path string) {
	f, err := catalog.Resolve(path)
	if err != nil {
		// Vanished again between the event and its timer firing.
		w.log.Warn().Err(err).Str("path", path).Msg("arrival dropped")
		return
	}

	select {
	case w.files <- f:
		w.log.Debug().Str("file", f.Name).Msg("arrival queued")
	case <-ctx.Done():
	}
}
