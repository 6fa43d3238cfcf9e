package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/seed"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// draftFlags are the entry fields settable from the command line.
type draftFlags struct {
	category    string
	subcategory string
	title       string
	command     string
	description string
	tags        string
	favorite    bool
}

func (f *draftFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.category, "category", "c", "", "Category (e.g. Cisco, Linux)")
	fs.StringVarP(&f.subcategory, "subcategory", "s", "", "Subcategory (e.g. VLAN)")
	fs.StringVarP(&f.title, "title", "t", "", "Short title")
	fs.StringVarP(&f.command, "command", "x", "", "Command text; use - to read it from stdin")
	fs.StringVarP(&f.description, "description", "d", "", "Longer description")
	fs.StringVar(&f.tags, "tags", "", "Comma-separated tags")
	fs.BoolVar(&f.favorite, "favorite", false, "Mark as favorite")
}

// apply copies the flags that were set on fs into d.
func (f *draftFlags) apply(fs *pflag.FlagSet, d *entry.Draft) (changed bool, err error) {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
			changed = true
		}
	}
	set("category", &d.Category, f.category)
	set("subcategory", &d.Subcategory, f.subcategory)
	set("title", &d.Title, f.title)
	set("description", &d.Description, f.description)
	set("tags", &d.Tags, f.tags)
	if fs.Changed("favorite") {
		d.IsFavorite = f.favorite
		changed = true
	}
	if fs.Changed("command") {
		cmdText := f.command
		if cmdText == "-" {
			if cmdText, err = readAll(stdin); err != nil {
				return changed, err
			}
		}
		d.Command = cmdText
		changed = true
	}
	return changed, nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var (
	addFlags    draftFlags
	addFromFile string
)

func init() {
	rootCmd.AddCommand(addCmd)
	addFlags.register(addCmd.Flags())
	addCmd.Flags().StringVarP(&addFromFile, "from-file", "f", "", "Add every command from a YAML library file")
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a command",
	Long: `Add a command to the vault. Category, title and command are required.

Use {name} in the command for values to fill in on copy or run.

Examples:
  cv add -c Cisco -s VLAN -t "Show VLAN brief" -x "show vlan brief" --tags vlan,show
  cv add -c Linux -t "Ping host" -x "ping -c 4 {host}"
  cv add --from-file my-commands.yml`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addFromFile != "" {
		return addFromLibrary(addFromFile)
	}

	var d entry.Draft
	if _, err := addFlags.apply(cmd.Flags(), &d); err != nil {
		return err
	}
	// Fail before touching the store
	d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}

	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.Create(d)
	if err != nil {
		return err
	}
	e, err := db.GetByID(id)
	if err != nil {
		return err
	}

	if humanOutput {
		printEntryLine("Added", *e)
		return nil
	}
	return outputJSON(e)
}

func addFromLibrary(path string) error {
	drafts, err := seed.LoadFile(path)
	if err != nil {
		return withCode(ExitDataError, err)
	}
	if len(drafts) == 0 {
		return withCode(ExitDataError, errors.New(path+": no commands found"))
	}

	_, db, err := openVault()
	if err != nil {
		return err
	}
	defer db.Close()

	ids, err := db.CreateMany(drafts)
	if err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Added %d commands from %s\n", len(ids), path)
		return nil
	}
	return outputJSON(BulkResponse{Status: "added", Count: len(ids), IDs: ids})
}
