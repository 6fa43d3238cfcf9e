package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single command by ID",
	Long: `Show every field of a single command.

Example:
  cv get 42`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	_, db, e, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	if humanOutput {
		printer().Detail(*e)
		return nil
	}
	return outputJSON(e)
}
