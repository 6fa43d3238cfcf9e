package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dupCmd)
}

var dupCmd = &cobra.Command{
	Use:   "dup <id>",
	Short: "Duplicate a command",
	Long: `Duplicate a command. The copy gets a new id, a title ending in
" (copy)", and is not a favorite.

Example:
  cv dup 42`,
	Args: cobra.ExactArgs(1),
	RunE: runDup,
}

func runDup(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	newID, err := db.Duplicate(id)
	if err != nil {
		return err
	}
	e, err := db.GetByID(newID)
	if err != nil {
		return err
	}

	if humanOutput {
		printEntryLine("Created", *e)
		return nil
	}
	return outputJSON(e)
}
