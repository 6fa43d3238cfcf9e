package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a command",
	Long: `Delete a command permanently. Asks for confirmation unless --yes is given.

Example:
  cv delete 42 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	_, db, e, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	if !deleteYes && !confirm(fmt.Sprintf("Delete %q?", e.Title)) {
		return withCode(ExitCancelled, errors.New("delete not confirmed"))
	}

	if err := db.Delete(e.ID); err != nil {
		return err
	}

	if humanOutput {
		printEntryLine("Deleted", *e)
		return nil
	}
	return outputJSON(StatusResponse{Status: "deleted", ID: e.ID})
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
func confirm(question string) bool {
	fmt.Fprintf(stderr, "%s [y/N] ", question)
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
