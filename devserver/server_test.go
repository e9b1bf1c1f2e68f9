package devserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServeStatic(t *testing.T) {
	root := fstest.MapFS{
		"index.html":      {Data: []byte("<html><body>root</body></html>")},
		"demo/index.html": {Data: []byte("<body>demo</body>")},
		"app.js":          {Data: []byte("console.log(1)")},
	}
	s, err := NewWithFS(Default(), root)
	require.NoError(t, err)

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "root")
	assert.Contains(t, rec.Body.String(), ReloadPath)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = get(t, s, "/demo/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demo")
	assert.Contains(t, rec.Body.String(), "<script>")

	rec = get(t, s, "/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = get(t, s, "/missing.html")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxyLongestPrefix(t *testing.T) {
	upstream := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, name+" "+r.URL.Path)
		}))
	}
	api := upstream("api")
	defer api.Close()
	v2 := upstream("v2")
	defer v2.Close()

	cfg := Default()
	cfg.Server.Proxy = map[string]string{
		"/api":    api.URL,
		"/api/v2": v2.URL,
	}
	require.NoError(t, cfg.Validate())
	s, err := NewWithFS(cfg, fstest.MapFS{})
	require.NoError(t, err)

	assert.Equal(t, "api /api/users", get(t, s, "/api/users").Body.String())
	assert.Equal(t, "v2 /api/v2/users", get(t, s, "/api/v2/users").Body.String())
}

func TestProxyUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	cfg := Default()
	cfg.Server.Proxy = map[string]string{"/api": "http://" + addr}
	s, err := NewWithFS(cfg, fstest.MapFS{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, get(t, s, "/api/x").Code)
}

func TestServeReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<body></body>"), 0o644))

	cfg := Default()
	cfg.Server.Root = dir
	cfg.Server.Open = false
	cfg.Watch.Paths = []string{filepath.ToSlash(dir) + "/**/*"}
	cfg.Watch.Debounce.Duration = 10 * time.Millisecond

	s, err := New(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), ReloadPath))

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+ReloadPath, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitClients(t, s.Hub(), 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<body>new</body>"), 0o644))

	var msg Message
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, FullReload.Type, msg.Type)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "index.html")), msg.Path)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
