package main

import (
	"fmt"
	"strings"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/query"
	"github.com/cmdvault/cv/internal/search"
	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", search.MaxResults, "Maximum results (at most 50)")
}

var searchCmd = &cobra.Command{
	Use:     "search [query...]",
	Aliases: []string{"list", "ls"},
	Short:   "Search commands by text and filters",
	Long: `Search the vault. Without a query, lists everything (favorites first).

Filters:
` + filterHelp() + `
Remaining words are matched against the full-text index, falling back to
substring matching when the index finds nothing.

Examples:
  cv search vlan
  cv search cat:cisco sub:vlan
  cv search fav: disk`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

// filterHelp lists every filter operator alias, one family per line.
func filterHelp() string {
	var b strings.Builder
	for _, f := range []struct{ family, desc string }{
		{query.FieldCategory, "category contains the value"},
		{query.FieldSubcategory, "subcategory contains the value"},
		{query.FieldTag, "tags contain the value"},
		{query.FieldFavorites, "favorites only"},
	} {
		ops := query.Aliases(f.family)
		for i := range ops {
			ops[i] += ":"
		}
		fmt.Fprintf(&b, "  %-28s %s\n", strings.Join(ops, " "), f.desc)
	}
	return b.String()
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	r := search.New(db)
	r.Limit = searchLimit
	res, err := r.Search(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if res.Entries == nil {
		res.Entries = []entry.Entry{}
	}

	total, err := db.Count()
	if err != nil {
		return err
	}

	if humanOutput {
		p := printer()
		p.List(res.Entries)
		if len(res.Entries) > 0 {
			p.Status(len(res.Entries), total)
		}
		return nil
	}
	return outputJSON(SearchResponse{Result: res, Count: len(res.Entries), Total: total})
}
