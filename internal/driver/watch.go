package driver

import (
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Watcher re-runs Build for a file whenever its content actually changes.
// fsnotify fires on metadata-only touches too (many editors rewrite a file
// via a temp-file-plus-rename that still triggers Write/Create events with
// identical content); the hash cache filters those out so an unchanged file
// never re-triggers codegen.
type Watcher struct {
	fsw    *fsnotify.Watcher
	hashes *lru.Cache[string, uint64]
	done   chan struct{}
}

// Watch starts watching path's containing directory (fsnotify watches
// directories, not bare files, so renames-over-path are still seen) and
// calls onChange(path) each time path's content hash differs from the last
// observed value. The returned Watcher's goroutine exits when Close is
// called; callers that care about leaks (see the test suite) can assert
// that with leaktest.
func Watch(path string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := dirOf(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	cache, err := lru.New[string, uint64](64)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, hashes: cache, done: make(chan struct{})}

	if content, err := os.ReadFile(path); err == nil {
		cache.Add(path, xxhash.Sum64(content))
	}

	go w.loop(path, onChange)
	return w, nil
}

func (w *Watcher) loop(path string, onChange func(path string)) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			content, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			sum := xxhash.Sum64(content)
			if prev, ok := w.hashes.Get(path); ok && prev == sum {
				continue
			}
			w.hashes.Add(path, sum)
			onChange(path)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher and blocks until its goroutine has exited.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
