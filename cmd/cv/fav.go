package main

import (
	"github.com/spf13/cobra"
)

var (
	favOn  bool
	favOff bool
)

func init() {
	rootCmd.AddCommand(favCmd)
	favCmd.Flags().BoolVar(&favOn, "on", false, "Add to favorites")
	favCmd.Flags().BoolVar(&favOff, "off", false, "Remove from favorites")
	favCmd.MarkFlagsMutuallyExclusive("on", "off")
}

var favCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Toggle a command's favorite flag",
	Long: `Toggle whether a command is a favorite. Favorites sort first in every
listing. Use --on or --off to set the flag explicitly.

Examples:
  cv fav 42
  cv fav 42 --off`,
	Args: cobra.ExactArgs(1),
	RunE: runFav,
}

func runFav(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	var fav bool
	switch {
	case favOn, favOff:
		fav = favOn
		err = db.SetFavorite(id, fav)
	default:
		fav, err = db.ToggleFavorite(id)
	}
	if err != nil {
		return err
	}

	if humanOutput {
		e, err := db.GetByID(id)
		if err != nil {
			return err
		}
		if fav {
			printEntryLine("Added to favorites:", *e)
		} else {
			printEntryLine("Removed from favorites:", *e)
		}
		return nil
	}
	return outputJSON(FavoriteResponse{ID: id, IsFavorite: fav})
}
