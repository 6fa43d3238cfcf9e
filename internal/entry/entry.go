// Package entry defines the core domain type for stored commands.
package entry

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmdvault/cv/internal/template"
)

// CopySuffix is appended to the title of a duplicated entry.
const CopySuffix = " (copy)"

// Entry is one reusable command in the vault.
type Entry struct {
	// Identity
	ID int64 `json:"id"` // Assigned by the store, never reused

	// Grouping
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`

	// Content
	Title       string `json:"title"`
	Command     string `json:"command"` // May span lines and contain {placeholders}
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"` // Comma-separated

	IsFavorite bool `json:"is_favorite"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft holds the mutable fields of an entry, as supplied on create or update.
type Draft struct {
	Category    string `json:"category" yaml:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        string `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsFavorite  bool   `json:"is_favorite,omitempty" yaml:"favorite,omitempty"`
}

// ValidationError reports a required field that is empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Normalize trims surrounding whitespace from all text fields.
func (d *Draft) Normalize() {
	d.Category = strings.TrimSpace(d.Category)
	d.Subcategory = strings.TrimSpace(d.Subcategory)
	d.Title = strings.TrimSpace(d.Title)
	d.Command = strings.TrimSpace(d.Command)
	d.Description = strings.TrimSpace(d.Description)
	d.Tags = strings.TrimSpace(d.Tags)
}

// Validate checks that category, title and command are present.
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Category) == "":
		return &ValidationError{Field: "category"}
	case strings.TrimSpace(d.Title) == "":
		return &ValidationError{Field: "title"}
	case strings.TrimSpace(d.Command) == "":
		return &ValidationError{Field: "command"}
	}
	return nil
}

// Draft returns the mutable fields of e.
func (e Entry) Draft() Draft {
	return Draft{
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Title:       e.Title,
		Command:     e.Command,
		Description: e.Description,
		Tags:        e.Tags,
		IsFavorite:  e.IsFavorite,
	}
}

// Copy returns the draft used to duplicate e: same content, non-favorite,
// title marked as a copy.
func (e Entry) Copy() Draft {
	d := e.Draft()
	d.Title += CopySuffix
	d.IsFavorite = false
	return d
}

// Placeholders returns the distinct {name} placeholders in the command.
func (e Entry) Placeholders() []string {
	return template.Placeholders(e.Command)
}

// IsTemplate reports whether the command needs expansion before use.
func (e Entry) IsTemplate() bool {
	return template.HasPlaceholders(e.Command)
}

// TagList splits the comma-separated tags, dropping blanks.
func (e Entry) TagList() []string {
	return SplitTags(e.Tags)
}

// SplitTags splits a comma-separated tag string, dropping blanks.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
