package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type proxyRoute struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// Server serves the static root with live reload and forwards proxied
// prefixes upstream.
type Server struct {
	cfg     *Config
	hub     *Hub
	root    fs.FS
	proxies []proxyRoute
	handler http.Handler
}

// New builds a server from a validated configuration.
func New(cfg *Config) (*Server, error) {
	return NewWithFS(cfg, os.DirFS(cfg.Server.Root))
}

// NewWithFS builds a server that serves files from root.
func NewWithFS(cfg *Config, root fs.FS) (*Server, error) {
	s := &Server{cfg: cfg, hub: NewHub(), root: root}

	for prefix, upstream := range cfg.Server.Proxy {
		u, err := url.Parse(upstream)
		if err != nil {
			return nil, fmt.Errorf("server.proxy %q: %w", prefix, err)
		}
		rp := httputil.NewSingleHostReverseProxy(u)
		rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("Proxy %s -> %s failed: %v", r.URL.Path, upstream, err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		}
		s.proxies = append(s.proxies, proxyRoute{prefix: prefix, proxy: rp})
	}
	// Longest prefix wins.
	sort.Slice(s.proxies, func(i, j int) bool {
		return len(s.proxies[i].prefix) > len(s.proxies[j].prefix)
	})

	mux := http.NewServeMux()
	mux.Handle(ReloadPath, s.hub)
	mux.HandleFunc("/", s.serve)
	s.handler = mux
	return s, nil
}

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	for _, p := range s.proxies {
		if strings.HasPrefix(r.URL.Path, p.prefix) {
			p.proxy.ServeHTTP(w, r)
			return
		}
	}
	s.serveStatic(w, r)
}

func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "."
	}
	if info, err := fs.Stat(s.root, name); err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
	}

	if !strings.HasSuffix(name, ".html") {
		http.FileServer(http.FS(s.root)).ServeHTTP(w, r)
		return
	}

	data, err := fs.ReadFile(s.root, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(InjectReloadScript(data))
}

// Run serves until ctx is cancelled, reloading connected browsers whenever a
// watched file changes.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	watcher, err := NewWatcher(s.cfg.Watch.Paths, s.cfg.Watch.Debounce.Duration, func(name string) {
		n := s.hub.Broadcast(Message{Type: FullReload.Type, Path: filepath.ToSlash(name)})
		log.Printf("%s changed, reloading %d client(s)", name, n)
	})
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Printf("Serving %s at %s", s.cfg.Server.Root, s.cfg.URL())
	for prefix, upstream := range s.cfg.Server.Proxy {
		log.Printf("Proxying %s to %s", prefix, upstream)
	}
	if s.cfg.Server.Open {
		if err := Open(s.cfg.URL()); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
