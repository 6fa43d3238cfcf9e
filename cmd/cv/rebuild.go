package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the full-text search index",
	Long: `Recreate the full-text index from the stored commands. Use this when
'cv info' reports the index as unavailable or corrupt.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RebuildIndex(); err != nil {
		return err
	}
	if err := db.CheckIndex(); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Rebuilt index for %s\n", db.Path())
		return nil
	}
	return outputJSON(StatusResponse{Status: "rebuilt", Path: db.Path()})
}
