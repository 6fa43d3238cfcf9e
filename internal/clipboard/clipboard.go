// Package clipboard provides cross-platform clipboard access via shell commands.
package clipboard

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Overridable for tests.
var (
	goos     = runtime.GOOS
	lookPath = exec.LookPath
	getenv   = os.Getenv
)

// tool is a clipboard writer program and its arguments.
type tool struct {
	name string
	args []string
}

// candidates lists the writers to try on the current platform, in order.
// Wayland sessions prefer wl-copy; X11 uses xclip then xsel.
func candidates() []tool {
	switch goos {
	case "darwin":
		return []tool{{"pbcopy", nil}}
	case "windows":
		return []tool{{"clip", nil}}
	case "linux", "freebsd", "openbsd", "netbsd":
		x11 := []tool{
			{"xclip", []string{"-selection", "clipboard"}},
			{"xsel", []string{"--clipboard", "--input"}},
		}
		wl := tool{"wl-copy", nil}
		if getenv("WAYLAND_DISPLAY") != "" {
			return append([]tool{wl}, x11...)
		}
		return append(x11, wl)
	default:
		return nil
	}
}

// clipboardCommand returns the command that writes stdin to the clipboard.
func clipboardCommand() (*exec.Cmd, error) {
	for _, t := range candidates() {
		if _, err := lookPath(t.name); err == nil {
			return exec.Command(t.name, t.args...), nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, err := clipboardCommand()
	return err == nil
}

// Copy copies the given text to the system clipboard.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Copy(text string) error {
	cmd, err := clipboardCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
