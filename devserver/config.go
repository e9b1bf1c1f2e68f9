package devserver

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/richinsley/shaderquad/translator"
)

// Config is the development server configuration, usually read from
// devserver.toml.
type Config struct {
	Server ServerConfig `toml:"server"`
	Build  BuildConfig  `toml:"build"`
	Watch  WatchConfig  `toml:"watch"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Open bool   `toml:"open"`
	Root string `toml:"root"`
	// Proxy forwards requests whose path starts with a key to the upstream
	// URL it maps to.
	Proxy map[string]string `toml:"proxy"`
}

type BuildConfig struct {
	// Target is the shader output compatibility level.
	Target string `toml:"target"`
}

type WatchConfig struct {
	Paths    []string `toml:"paths"`
	Debounce Duration `toml:"debounce"`
}

// Duration reads TOML strings such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 9999,
			Open: true,
			Root: "public",
		},
		Build: BuildConfig{Target: translator.TargetGLSL410},
		Watch: WatchConfig{
			Paths:    []string{"public/**/*"},
			Debounce: Duration{100 * time.Millisecond},
		},
	}
}

// Load reads a TOML configuration from path. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes Build.Target.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Root == "" {
		return fmt.Errorf("server.root must not be empty")
	}

	target, err := translator.ParseTarget(c.Build.Target)
	if err != nil {
		return fmt.Errorf("build.target: %w", err)
	}
	c.Build.Target = target

	for prefix, upstream := range c.Server.Proxy {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("server.proxy prefix %q must start with /", prefix)
		}
		u, err := url.Parse(upstream)
		if err != nil {
			return fmt.Errorf("server.proxy %q: %w", prefix, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.proxy %q: upstream %q is not an absolute URL", prefix, upstream)
		}
		if c.isSelf(u) {
			return fmt.Errorf("server.proxy %q: upstream %q points back at this server", prefix, upstream)
		}
	}

	if len(c.Watch.Paths) == 0 {
		return fmt.Errorf("watch.paths must name at least one pattern")
	}
	for _, p := range c.Watch.Paths {
		if _, err := compilePattern(p); err != nil {
			return fmt.Errorf("watch.paths %q: %w", p, err)
		}
	}
	if c.Watch.Debounce.Duration < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

func (c *Config) isSelf(u *url.URL) bool {
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	if port != strconv.Itoa(c.Server.Port) {
		return false
	}
	switch host := u.Hostname(); host {
	case "localhost", "":
		return true
	default:
		ip := net.ParseIP(host)
		return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// URL returns the local URL the server is reachable at.
func (c *Config) URL() string {
	return fmt.Sprintf("http://localhost:%d/", c.Server.Port)
}
