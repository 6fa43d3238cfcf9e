package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmdvault/cv/internal/config"
	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/seed"
	"github.com/cmdvault/cv/internal/storage"
	"github.com/spf13/cobra"
)

// Transfer formats.
const (
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"
)

var validFormats = []string{FormatJSONL, FormatYAML}

var (
	exportFormat string
	importFormat string
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: jsonl or yaml (default from file extension)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format: jsonl or yaml (default from file extension)")
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all commands to a file",
	Long: `Export every command to a file. JSONL keeps one entry per line with ids
and timestamps; YAML writes a library grouped by category that 'cv add
--from-file' and 'cv import' read back. Use - to write to stdout.

Examples:
  cv export backup.jsonl
  cv export --format yaml - > library.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import commands from a file",
	Long: `Import commands from a JSONL export or a YAML library. Imported commands
always get new ids. The import is all or nothing.

Examples:
  cv import backup.jsonl
  cv import team-library.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// transferFormat resolves the format from the flag, else the file extension.
func transferFormat(flag, path string) (string, error) {
	if flag != "" {
		f := strings.ToLower(flag)
		if f == "yml" {
			f = FormatYAML
		}
		if err := config.ValidateChoice("format", f, validFormats); err != nil {
			return "", withCode(ExitDataError, err)
		}
		return f, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	}
	return FormatJSONL, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := transferFormat(exportFormat, path)
	if err != nil {
		return err
	}

	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListAll(0)
	if err != nil {
		return err
	}

	if path == "-" {
		return writeEntries(stdout, format, entries)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()
	if err := writeEntries(f, format, entries); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Exported %d commands to %s\n", len(entries), path)
		return nil
	}
	return outputJSON(TransferResponse{Status: "exported", Path: path, Format: format, Count: len(entries)})
}

func writeEntries(w io.Writer, format string, entries []entry.Entry) error {
	if format == FormatYAML {
		return seed.Encode(w, entries)
	}
	return storage.EncodeJSONL(w, entries)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := transferFormat(importFormat, path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return withCode(ExitDataError, fmt.Errorf("reading import file: %w", err))
	}

	drafts, err := readDrafts(format, path)
	if err != nil {
		return withCode(ExitDataError, err)
	}

	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	ids, err := db.CreateMany(drafts)
	if err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Imported %d commands from %s\n", len(ids), path)
		return nil
	}
	return outputJSON(TransferResponse{Status: "imported", Path: path, Format: format, Count: len(ids)})
}

func readDrafts(format, path string) ([]entry.Draft, error) {
	if format == FormatYAML {
		return seed.LoadFile(path)
	}
	entries, err := storage.ReadAll(path)
	if err != nil {
		return nil, err
	}
	drafts := make([]entry.Draft, len(entries))
	for i, e := range entries {
		drafts[i] = e.Draft()
	}
	return drafts, nil
}
