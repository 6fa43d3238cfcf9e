// Package executor delivers a finished command: to the clipboard, to
// standard output, to a local shell, or to remote hosts over SSH.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/cmdvault/cv/internal/clipboard"
)

// Delivery modes accepted in configuration.
const (
	ModeClipboard = "clipboard"
	ModeStdout    = "stdout"
	ModeShell     = "shell"
	ModeSSH       = "ssh"
)

// Modes lists every delivery mode.
var Modes = []string{ModeClipboard, ModeStdout, ModeShell, ModeSSH}

// Deliverer hands a fully expanded command to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// Clipboard copies the command to the system clipboard.
type Clipboard struct {
	copy func(string) error
}

// NewClipboard returns a Clipboard using the system clipboard tools.
func NewClipboard() *Clipboard {
	return &Clipboard{copy: clipboard.Copy}
}

// Deliver implements Deliverer.
func (c *Clipboard) Deliver(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.copy(text); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}

// Stdout prints the command followed by a newline.
type Stdout struct {
	W io.Writer
}

// Deliver implements Deliverer.
func (s Stdout) Deliver(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(s.W, text)
	return err
}

// Shell runs the command through a local shell with "-c".
type Shell struct {
	Path   string // defaults to DefaultShell()
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultShell returns $SHELL, or the platform default.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "/bin/sh"
}

// Deliver implements Deliverer. A non-zero exit is returned as an
// *exec.ExitError.
func (s Shell) Deliver(ctx context.Context, text string) error {
	path := s.Path
	if path == "" {
		path = DefaultShell()
	}

	flag := "-c"
	if strings.EqualFold(strings.TrimSuffix(baseName(path), ".exe"), "cmd") {
		flag = "/C"
	}

	cmd := exec.CommandContext(ctx, path, flag, text)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running with %s: %w", path, err)
	}
	return nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
