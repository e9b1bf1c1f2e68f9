package devserver

import (
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// pattern matches slash-separated paths against a watch glob. "**" spans
// directories, and "dir/**/*" also matches files directly inside dir.
type pattern struct {
	src   string
	globs []glob.Glob
}

func compilePattern(p string) (*pattern, error) {
	p = cleanPattern(p)
	variants := []string{p}
	if strings.Contains(p, "/**/") {
		variants = append(variants, strings.Replace(p, "/**/", "/", 1))
	}

	pat := &pattern{src: p}
	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, err
		}
		pat.globs = append(pat.globs, g)
	}
	return pat, nil
}

func (p *pattern) Match(name string) bool {
	for _, g := range p.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func hasMeta(part string) bool {
	return strings.ContainsAny(part, "*?[{\\")
}

// cleanPattern converts p to slashes and cleans its literal leading
// segments the way event names are cleaned, so "./public/**/*" matches
// "public/index.html".
func cleanPattern(p string) string {
	parts := strings.Split(filepath.ToSlash(p), "/")
	i := 0
	for i < len(parts) && !hasMeta(parts[i]) {
		i++
	}
	if i == 0 {
		return strings.Join(parts, "/")
	}
	prefix := strings.Join(parts[:i], "/")
	if prefix == "" {
		prefix = "/"
	}
	prefix = path.Clean(prefix)
	rest := strings.Join(parts[i:], "/")
	switch {
	case i == len(parts):
		return prefix
	case prefix == ".":
		return rest
	case strings.HasSuffix(prefix, "/"):
		return prefix + rest
	default:
		return prefix + "/" + rest
	}
}

// staticPrefix returns the leading directories of p that contain no glob
// metacharacters.
func staticPrefix(p string) string {
	parts := strings.Split(cleanPattern(p), "/")
	var keep []string
	for _, part := range parts {
		if hasMeta(part) {
			break
		}
		keep = append(keep, part)
	}
	// A pattern without metacharacters names a file; watch its directory.
	if len(keep) == len(parts) {
		keep = keep[:len(keep)-1]
	}
	if len(keep) == 0 {
		return "."
	}
	if len(keep) == 1 && keep[0] == "" {
		return "/"
	}
	return filepath.FromSlash(strings.Join(keep, "/"))
}

// Watcher reports file changes matching a set of glob patterns. Bursts of
// changes within the debounce window produce a single notification.
type Watcher struct {
	fsw      *fsnotify.Watcher
	patterns []*pattern
	debounce time.Duration
	onChange func(path string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	closed  bool
	wg      sync.WaitGroup
}

// NewWatcher starts watching the directories the patterns refer to.
func NewWatcher(patterns []string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	w := &Watcher{debounce: debounce, onChange: onChange}
	for _, p := range patterns {
		pat, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		w.patterns = append(w.patterns, pat)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw

	for _, p := range patterns {
		root := staticPrefix(p)
		if _, err := os.Stat(root); err != nil {
			log.Printf("Not watching %s: %v", root, err)
			continue
		}
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(name)
	})
}

// Match reports whether name matches any watch pattern.
func (w *Watcher) Match(name string) bool {
	name = filepath.ToSlash(filepath.Clean(name))
	for _, p := range w.patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				log.Printf("Failed to watch %s: %v", ev.Name, err)
			}
		}
	}
	if w.Match(ev.Name) {
		w.trigger(ev.Name)
	}
}

func (w *Watcher) trigger(name string) {
	if w.debounce <= 0 {
		w.onChange(name)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = name
	if w.timer != nil {
		return
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		name := w.pending
		w.timer = nil
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.onChange(name)
		}
	})
}

// Close stops watching and cancels any pending notification.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
