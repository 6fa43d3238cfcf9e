package main

import (
	"github.com/cmdvault/cv/internal/display"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cats"},
	Short:   "List categories and their subcategories",
	Args:    cobra.NoArgs,
	RunE:    runCategories,
}

func runCategories(cmd *cobra.Command, args []string) error {
	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	cats, err := db.Categories()
	if err != nil {
		return err
	}
	groups := make([]display.CategoryGroup, 0, len(cats))
	for _, c := range cats {
		subs, err := db.Subcategories(c)
		if err != nil {
			return err
		}
		groups = append(groups, display.CategoryGroup{Category: c, Subcategories: subs})
	}

	if humanOutput {
		printer().Categories(groups)
		return nil
	}
	return outputJSON(groups)
}
