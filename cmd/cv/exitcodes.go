package main

import (
	"errors"
	"fmt"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/storage"
	"github.com/cmdvault/cv/internal/template"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Invalid configuration or store unreachable
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitNotFound    = 4 // No entry with the given id
	ExitCancelled   = 5 // Variable input or confirmation cancelled
)

// codedError pins an exit code to an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// exitStatus ends the process with a code after the command has already
// reported its result.
type exitStatus int

func (s exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(s)) }

// exitCodeFor maps an error returned by a command to a process exit code.
func exitCodeFor(err error) int {
	var (
		ce *codedError
		st exitStatus
		ve *entry.ValidationError
		ae *template.AssignmentError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &st):
		return int(st)
	case errors.As(err, &ce):
		return ce.code
	case errors.Is(err, template.ErrCancelled):
		return ExitCancelled
	case errors.Is(err, storage.ErrNotFound):
		return ExitNotFound
	case errors.As(err, &ve), errors.As(err, &ae):
		return ExitDataError
	case errors.Is(err, storage.ErrUnavailable):
		return ExitConfigError
	}
	return ExitError
}
