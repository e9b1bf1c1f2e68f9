package devserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Empty(t, cfg.Server.Proxy)
	assert.Equal(t, "http://localhost:9999/", cfg.URL())
	assert.Equal(t, ":9999", cfg.Addr())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[server]
port = 3000
open = false

[server.proxy]
"/api" = "http://localhost:8080"

[build]
target = "ESSL"

[watch]
paths = ["public/**/*.html", "shaders/*.glsl"]
debounce = "250ms"
`))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.Server.Open)
	assert.Equal(t, "public", cfg.Server.Root, "missing keys keep defaults")
	assert.Equal(t, map[string]string{"/api": "http://localhost:8080"}, cfg.Server.Proxy)
	assert.Equal(t, "essl", cfg.Build.Target)
	assert.Equal(t, []string{"public/**/*.html", "shaders/*.glsl"}, cfg.Watch.Paths)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce.Duration)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", "[server"},
		{"port", "[server]\nport = 70000"},
		{"empty root", "[server]\nroot = \"\""},
		{"target", "[build]\ntarget = \"hlsl\""},
		{"prefix", "[server.proxy]\n\"api\" = \"http://localhost:8080\""},
		{"relative upstream", "[server.proxy]\n\"/api\" = \"localhost\""},
		{"self proxy", "[server.proxy]\n\"/api\" = \"http://localhost:9999\""},
		{"self proxy loopback", "[server]\nport = 80\n[server.proxy]\n\"/api\" = \"http://127.0.0.1\""},
		{"no watch paths", "[watch]\npaths = []"},
		{"bad glob", "[watch]\npaths = [\"public/[\"]"},
		{"bad debounce", "[watch]\ndebounce = \"soon\""},
		{"negative debounce", "[watch]\ndebounce = \"-1s\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestProxyToOtherHostOnSamePort(t *testing.T) {
	_, err := Parse([]byte("[server.proxy]\n\"/api\" = \"http://example.com:9999\""))
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devserver.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 4000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
