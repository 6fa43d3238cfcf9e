// Package config handles the global cv configuration and data paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmdvault/cv/internal/executor"
	"github.com/mitchellh/go-homedir"
)

const (
	// AppDir is the directory name under the XDG config and data homes.
	AppDir = "cv"
	// DBFile is the default database file name.
	DBFile = "vault.db"
)

// Prompt modes.
const (
	PromptConsole = "console"
	PromptStatic  = "static"
)

// ValidPrompts lists the supported prompt values.
var ValidPrompts = []string{PromptConsole, PromptStatic}

// ValidLogLevels lists the supported log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Environment overrides.
const (
	EnvDB       = "CV_DB"
	EnvLogLevel = "CV_LOG_LEVEL"
)

// DataDir returns the directory holding the database.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/cv.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := homedir.Dir()
		if err != nil {
			return AppDir
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppDir)
}

// DefaultDBPath returns the database path used when none is configured.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), DBFile)
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// ValidateChoice returns an error naming the allowed values when value is
// not one of them.
func ValidateChoice(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (valid: %s)", key, value, strings.Join(allowed, ", "))
}

// Validate checks enum-valued settings.
func (c *Config) Validate() error {
	if c.Prompt != "" {
		if err := ValidateChoice("prompt", c.Prompt, ValidPrompts); err != nil {
			return err
		}
	}
	if c.Deliver != "" {
		if err := ValidateChoice("deliver", c.Deliver, executor.Modes); err != nil {
			return err
		}
	}
	if c.LogLevel != "" {
		if err := ValidateChoice("log_level", strings.ToLower(c.LogLevel), ValidLogLevels); err != nil {
			return err
		}
	}
	if c.SSH.Rate < 0 {
		return fmt.Errorf("invalid ssh.rate %v (must be >= 0)", c.SSH.Rate)
	}
	if c.SSH.ConnectTimeout < 0 {
		return fmt.Errorf("invalid ssh.connect_timeout %d (must be >= 0)", c.SSH.ConnectTimeout)
	}
	return nil
}
