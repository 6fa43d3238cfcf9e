package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cmdvault/cv/internal/display"
	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/search"
)

// Standard streams, swapped out by tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format, args...)
}

// printer returns a display.Printer on stdout.
func printer() *display.Printer {
	return display.New(stdout)
}

// reportError writes an error in the appropriate format (human or JSON).
func reportError(code int, msg string) {
	if humanOutput {
		fmt.Fprintf(stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg, Code: code})
	}
}

// exitWithError reports an error and exits.
func exitWithError(code int, format string, args ...interface{}) {
	reportError(code, fmt.Sprintf(format, args...))
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// SearchResponse is the response for search.
type SearchResponse struct {
	*search.Result
	Count int `json:"count"`
	Total int `json:"total"`
}

// InitResponse is the response for init.
type InitResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Seeded int    `json:"seeded"`
	Total  int    `json:"total"`
}

// BulkResponse is the response for commands that add several entries.
type BulkResponse struct {
	Status string  `json:"status"`
	Count  int     `json:"count"`
	IDs    []int64 `json:"ids"`
}

// FavoriteResponse is the response for fav.
type FavoriteResponse struct {
	ID         int64 `json:"id"`
	IsFavorite bool  `json:"is_favorite"`
}

// CopyResponse is the response for copy.
type CopyResponse struct {
	ID        int64  `json:"id"`
	Command   string `json:"command"`
	Delivered string `json:"delivered"`
}

// InfoResponse is the response for info.
type InfoResponse struct {
	Path       string `json:"path"`
	Total      int    `json:"total"`
	Favorites  int    `json:"favorites"`
	Categories int    `json:"categories"`
	Index      string `json:"index"`
	IndexError string `json:"index_error,omitempty"`
}

// TransferResponse is the response for export and import.
type TransferResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Format string `json:"format"`
	Count  int    `json:"count"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// printEntryLine prints the one-line summary used after mutations.
func printEntryLine(verb string, e entry.Entry) {
	outputHuman("%s %d: %s\n", verb, e.ID, display.Title(e))
}
