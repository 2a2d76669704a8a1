// Package watch publishes files.changed events for a project's source,
// spec and config directories.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/internal/project"
)

// Options configures a Watcher.
type Options struct {
	// Dirs are watched recursively. Missing dirs are skipped.
	Dirs []string
	// Skip lists directories (and everything below them) never watched.
	Skip []string
	Bus  *event.Bus
}

// Watcher watches directory trees and publishes a files.changed event for
// every write, create, remove or rename below them.
type Watcher struct {
	watcher *fsnotify.Watcher
	skip    []string
	bus     *event.Bus
	log     *zerolog.Logger

	mu      sync.RWMutex
	dirs    map[string]bool
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// ForProject watches p's raw source dir, spec dir and config file dir. The
// coverage temp and report dirs are skipped so instrumenting and reporting
// do not feed back into the watcher.
func ForProject(p *project.Project, bus *event.Bus) (*Watcher, error) {
	return NewWatcher(Options{
		Dirs: []string{p.RawSrcDir(), p.SpecDir(), filepath.Dir(p.ConfigFile())},
		Skip: []string{
			p.Pipeline().Resolve(p.CoverageTempDir()),
			p.Pipeline().Resolve(p.CoverageReportDir()),
		},
		Bus: bus,
	})
}

// NewWatcher creates a watcher over opts.Dirs.
func NewWatcher(opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	bus := opts.Bus
	if bus == nil {
		bus = event.Default()
	}
	w := &Watcher{
		watcher: fw,
		bus:     bus,
		log:     logging.Component("watch"),
		dirs:    make(map[string]bool),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, s := range opts.Skip {
		w.skip = append(w.skip, filepath.Clean(s))
	}

	for _, dir := range opts.Dirs {
		if err := w.addTree(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	w.log.Info().Int("dirs", len(w.dirs)).Msg("watcher initialized")
	return w, nil
}

// addTree adds dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	dir = filepath.Clean(dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		w.log.Debug().Str("dir", dir).Msg("not watching missing dir")
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipped(path) || (path != dir && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}

		w.mu.Lock()
		seen := w.dirs[path]
		w.dirs[path] = true
		w.mu.Unlock()
		if seen {
			return nil
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) skipped(path string) bool {
	for _, s := range w.skip {
		if path == s || strings.HasPrefix(path, s+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Start begins publishing events.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.skipped(ev.Name) {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn().Err(err).Str("dir", ev.Name).Msg("cannot watch new dir")
			}
		}
	}
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.mu.Lock()
		delete(w.dirs, ev.Name)
		w.mu.Unlock()
	}

	w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("file changed")
	w.bus.Publish(event.Event{
		Type: event.FilesChanged,
		Data: event.FilesChangedData{Path: ev.Name, Op: ev.Op.String()},
	})
}

// Dirs returns the directories currently watched.
func (w *Watcher) Dirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	return out
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
