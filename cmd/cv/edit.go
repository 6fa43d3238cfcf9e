package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var editFlags draftFlags

func init() {
	rootCmd.AddCommand(editCmd)
	editFlags.register(editCmd.Flags())
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a command",
	Long: `Change fields of a command. Only the flags given are changed; every
other field keeps its current value.

Examples:
  cv edit 42 --title "Show VLAN brief (all)"
  cv edit 42 --subcategory "" --tags vlan,show,l2`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	_, db, e, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	d := e.Draft()
	changed, err := editFlags.apply(cmd.Flags(), &d)
	if err != nil {
		return err
	}
	if !changed {
		return withCode(ExitDataError, errors.New("nothing to change: give at least one field flag"))
	}

	if err := db.Update(e.ID, d); err != nil {
		return err
	}
	updated, err := db.GetByID(e.ID)
	if err != nil {
		return err
	}

	if humanOutput {
		printEntryLine("Updated", *updated)
		return nil
	}
	return outputJSON(updated)
}
