// Package seed reads and writes command libraries in YAML, including the
// embedded starter library.
package seed

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/cmdvault/cv/internal/entry"
	"gopkg.in/yaml.v3"
)

//go:embed starter.yml
var starterYAML []byte

// Group is a run of commands sharing a category and subcategory.
// Commands may override either field.
type Group struct {
	Category    string        `yaml:"category"`
	Subcategory string        `yaml:"subcategory,omitempty"`
	Commands    []entry.Draft `yaml:"commands"`
}

// Starter returns the drafts of the embedded starter library.
func Starter() ([]entry.Draft, error) {
	return Parse(starterYAML)
}

// LoadFile reads a YAML library from path.
func LoadFile(path string) ([]entry.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	drafts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return drafts, nil
}

// Parse decodes a YAML library and validates every draft. Drafts inherit
// category and subcategory from their group unless they set their own.
func Parse(data []byte) ([]entry.Draft, error) {
	var groups []Group
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing library: %w", err)
	}

	var drafts []entry.Draft
	for gi, g := range groups {
		for ci, d := range g.Commands {
			if d.Category == "" {
				d.Category = g.Category
			}
			if d.Subcategory == "" {
				d.Subcategory = g.Subcategory
			}
			d.Normalize()
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("group %d command %d: %w", gi+1, ci+1, err)
			}
			drafts = append(drafts, d)
		}
	}
	return drafts, nil
}

// Encode writes entries as a grouped YAML library, one group per
// consecutive category and subcategory pair.
func Encode(w io.Writer, entries []entry.Entry) error {
	var groups []Group
	for _, e := range entries {
		d := e.Draft()
		n := len(groups)
		if n == 0 || groups[n-1].Category != d.Category || groups[n-1].Subcategory != d.Subcategory {
			groups = append(groups, Group{Category: d.Category, Subcategory: d.Subcategory})
			n++
		}
		d.Category, d.Subcategory = "", ""
		groups[n-1].Commands = append(groups[n-1].Commands, d)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(groups); err != nil {
		return fmt.Errorf("encoding library: %w", err)
	}
	return enc.Close()
}
