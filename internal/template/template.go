// Package template detects and fills {name} placeholders in stored commands.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrCancelled is returned by a ValueFunc when the user dismissed the prompt
// without providing a value.
var ErrCancelled = errors.New("input cancelled")

// placeholderRe matches {name} tokens where name is [A-Za-z0-9_]+.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValueFunc supplies the value for a placeholder name.
// Returning ErrCancelled aborts the expansion.
type ValueFunc func(name string) (string, error)

// Placeholders returns the distinct placeholder names in command,
// in order of first appearance.
func Placeholders(command string) []string {
	matches := placeholderRe.FindAllStringSubmatch(command, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// HasPlaceholders reports whether command contains at least one placeholder.
func HasPlaceholders(command string) bool {
	return placeholderRe.MatchString(command)
}

// Expand asks valueOf once per distinct placeholder and substitutes every
// occurrence. A command without placeholders is returned unchanged and
// valueOf is never called.
//
// If valueOf returns an error (ErrCancelled included) the original command
// is returned together with that error, so nothing half-filled escapes.
func Expand(command string, valueOf ValueFunc) (string, error) {
	names := Placeholders(command)
	if len(names) == 0 {
		return command, nil
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		v, err := valueOf(name)
		if err != nil {
			return command, err
		}
		values[name] = v
	}

	return Fill(command, values), nil
}

// Fill substitutes placeholders found in values. Placeholders missing from
// values are left as-is.
func Fill(command string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(command, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return tok
	})
}

// Highlight rewrites each placeholder token through style, leaving the rest
// of the command untouched. Used to mark variables in previews.
func Highlight(command string, style func(string) string) string {
	return placeholderRe.ReplaceAllStringFunc(command, style)
}

// EmptyOnCancel wraps valueOf so that a cancelled prompt yields an empty
// string instead of aborting the expansion. Other errors pass through.
func EmptyOnCancel(valueOf ValueFunc) ValueFunc {
	return func(name string) (string, error) {
		v, err := valueOf(name)
		if errors.Is(err, ErrCancelled) {
			return "", nil
		}
		return v, err
	}
}

// FromMap returns a ValueFunc that looks names up in values and reports
// ErrCancelled for names that are absent.
func FromMap(values map[string]string) ValueFunc {
	return func(name string) (string, error) {
		v, ok := values[name]
		if !ok {
			return "", ErrCancelled
		}
		return v, nil
	}
}

// ParseAssignments parses "name=value" pairs as given on the command line.
// The value may itself contain '=' characters.
func ParseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || !nameRe.MatchString(name) {
			return nil, &AssignmentError{Raw: p}
		}
		values[name] = value
	}
	return values, nil
}

// AssignmentError reports a malformed name=value pair.
type AssignmentError struct {
	Raw string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("invalid variable assignment %q (expected name=value)", e.Raw)
}
