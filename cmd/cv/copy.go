package main

import (
	"errors"

	"github.com/cmdvault/cv/internal/clipboard"
	"github.com/cmdvault/cv/internal/executor"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	copyVars          []string
	copyEmptyOnCancel bool
	copyPrint         bool
)

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().StringArrayVar(&copyVars, "var", nil, "Variable value as name=value (repeatable)")
	copyCmd.Flags().BoolVar(&copyEmptyOnCancel, "empty-on-cancel", false, "Use an empty value for cancelled variables instead of aborting")
	copyCmd.Flags().BoolVarP(&copyPrint, "print", "p", false, "Print the command instead of copying it")
}

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Fill in variables and copy a command to the clipboard",
	Long: `Fill in a command's {variables} and copy the result to the clipboard.

Values come from --var first; any left are asked for on the terminal
(when prompt is "console"). Enter "." or end input to cancel, which
aborts without copying anything (exit code 5).

When no clipboard tool is available the command is printed instead.

Examples:
  cv copy 42
  cv copy 17 --var vlan_id=20 --var vlan_name=users
  cv copy 17 --print --var vlan_id=20 --empty-on-cancel`,
	Args: cobra.ExactArgs(1),
	RunE: runCopy,
}

func runCopy(cmd *cobra.Command, args []string) error {
	cfg, db, e, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	text, err := expandEntry(cfg, *e, copyVars, copyEmptyOnCancel, stdin)
	if err != nil {
		return err
	}

	mode := copyMode(cfg.Deliver, copyPrint)
	if mode == executor.ModeClipboard {
		err := executor.NewClipboard().Deliver(cmd.Context(), text)
		if errors.Is(err, clipboard.ErrClipboardUnavailable) {
			log.Warn().Err(err).Msg("printing command instead")
			mode = executor.ModeStdout
		} else if err != nil {
			return err
		}
	}
	if mode == executor.ModeStdout {
		// The command itself is the output
		return executor.Stdout{W: stdout}.Deliver(cmd.Context(), text)
	}

	if humanOutput {
		printEntryLine("Copied", *e)
		return nil
	}
	return outputJSON(CopyResponse{ID: e.ID, Command: text, Delivered: mode})
}
