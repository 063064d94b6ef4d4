package def

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow swallows the burst of events most editors emit for a
// single save.
const debounceWindow = 100 * time.Millisecond

// ChangeKind classifies which half of a controller setup changed on disk.
type ChangeKind int

const (
	// ChangeDefinition is a controller definition file (.yaml/.yml).
	ChangeDefinition ChangeKind = iota
	// ChangeScript is a parameter driver script (.tengo).
	ChangeScript
)

// Change is one debounced file modification under a watched directory.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports changed controller definitions and driver scripts so a
// running viewer can hot-reload them. Events not matching either kind are
// dropped; repeats within the debounce window collapse into one Change.
type Watcher struct {
	fs      *fsnotify.Watcher
	Events  chan Change
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches the given directories (non-recursively) and starts
// delivering on Events until Close.
func NewWatcher(dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:      fs,
		Events:  make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	seen := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			kind, watched := classify(event.Name)
			if !watched {
				continue
			}
			now := time.Now()
			if t, dup := seen[event.Name]; dup && now.Sub(t) < debounceWindow {
				continue
			}
			seen[event.Name] = now
			w.Events <- Change{Path: event.Name, Kind: kind}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.Errors <- err
		case <-w.closeCh:
			return
		}
	}
}

func classify(path string) (ChangeKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ChangeDefinition, true
	case ".tengo":
		return ChangeScript, true
	}
	return 0, false
}
