package devserver

import (
	"os/exec"
	"runtime"
)

// OpenCommand returns the command that opens a URL in the default browser
// on goos: open on Mac, xdg-open on Linux, and the URL protocol handler on
// Windows.
func OpenCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open launches the default browser on url without waiting for it.
func Open(url string) error {
	name, args := OpenCommand(runtime.GOOS, url)
	return startCommand(name, args...)
}
