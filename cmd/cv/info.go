package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show vault statistics and index health",
	Long: `Show the database path, entry counts and the state of the full-text
index. Index states:
  ok           index matches the stored commands
  unavailable  no index; search uses substring matching
  corrupt      index out of step; run 'cv rebuild'`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	resp := InfoResponse{Path: db.Path(), Index: "ok"}
	if resp.Total, err = db.Count(); err != nil {
		return err
	}
	if resp.Favorites, err = db.CountFavorites(); err != nil {
		return err
	}
	cats, err := db.Categories()
	if err != nil {
		return err
	}
	resp.Categories = len(cats)

	if !db.IndexAvailable() {
		resp.Index = "unavailable"
	} else if err := db.CheckIndex(); err != nil {
		resp.Index = "corrupt"
		resp.IndexError = err.Error()
	}

	if humanOutput {
		tbl := uitable.New()
		tbl.AddRow("Database:", resp.Path)
		tbl.AddRow("Commands:", resp.Total)
		tbl.AddRow("Favorites:", resp.Favorites)
		tbl.AddRow("Categories:", resp.Categories)
		tbl.AddRow("Index:", resp.Index)
		fmt.Fprintln(stdout, tbl)
		return nil
	}
	return outputJSON(resp)
}
