package main

import (
	"io"

	"github.com/cmdvault/cv/internal/config"
	"github.com/cmdvault/cv/internal/display"
	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/executor"
	"github.com/cmdvault/cv/internal/prompt"
	"github.com/cmdvault/cv/internal/template"
	"golang.org/x/time/rate"
)

// newPrompter returns the prompter for the configured prompt mode. Values
// given with --var always answer first. The console reads answers from in.
func newPrompter(mode string, values map[string]string, in io.Reader) prompt.Prompter {
	static := prompt.Static(values)
	if mode == config.PromptStatic {
		return static
	}
	console := prompt.NewConsole(in, stderr)
	console.Style = display.Placeholder
	return prompt.Chain{static, console}
}

// expandEntry fills the entry's variables, prompting on in. A cancelled
// prompt aborts with template.ErrCancelled unless emptyOnCancel is set.
func expandEntry(cfg *config.Config, e entry.Entry, vars []string, emptyOnCancel bool, in io.Reader) (string, error) {
	values, err := template.ParseAssignments(vars)
	if err != nil {
		return "", err
	}
	valueOf := prompt.ValueFunc(newPrompter(cfg.Prompt, values, in), e.Title, e.Command)
	if emptyOnCancel {
		valueOf = template.EmptyOnCancel(valueOf)
	}
	return template.Expand(e.Command, valueOf)
}

// copyMode picks where copy sends the command: clipboard unless printing
// was asked for.
func copyMode(deliver string, printOnly bool) string {
	if printOnly || deliver == executor.ModeStdout {
		return executor.ModeStdout
	}
	return executor.ModeClipboard
}

// runHosts returns the SSH targets for run: the --host flags, else the
// configured hosts when deliver is ssh. Empty means run locally.
func runHosts(cfg *config.Config, flagHosts []string) []string {
	if len(flagHosts) > 0 {
		return flagHosts
	}
	if cfg.Deliver == executor.ModeSSH {
		return cfg.SSH.Hosts
	}
	return nil
}

// newLimiter paces SSH connections at perSecond. Zero means unpaced.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func sshConfig(cfg *config.Config) executor.SSHConfig {
	return executor.SSHConfig{
		User:           cfg.SSH.User,
		ProxyJump:      cfg.SSH.ProxyJump,
		ConnectTimeout: cfg.SSH.Timeout(),

		KnownHosts:            config.ExpandTilde(cfg.SSH.KnownHosts),
		InsecureIgnoreHostKey: cfg.SSH.InsecureIgnoreHostKey,
	}
}
