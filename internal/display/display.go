// Package display renders entries for people: launcher-style titles and
// subtitles, tables and detail views.
package display

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/template"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

const (
	favoriteMark = "★ "
	crumbSep     = "  ›  "
	newlineMark  = "  ↵  "
	hintSep      = "   ·   "
	templateHint = "✎ template"
)

// EmptyHint is shown when a search has no results.
const EmptyHint = "cv search [text]  ·  cat:cisco  ·  sub:vlan  ·  tag:ccna  ·  fav:"

// categoryPrefixes are the short labels of well-known categories.
var categoryPrefixes = map[string]string{
	"Cisco":   "[C]",
	"Linux":   "[L]",
	"Proxmox": "[P]",
	"Ansible": "[A]",
}

// Prefix returns the short label for a category: a known label, or the
// upper-cased first letter in brackets.
func Prefix(category string) string {
	if p, ok := categoryPrefixes[category]; ok {
		return p
	}
	r, _ := utf8.DecodeRuneInString(category)
	if r == utf8.RuneError {
		return "[?]"
	}
	return "[" + string(unicode.ToUpper(r)) + "]"
}

// Title renders "★ [C]  VLAN  ›  Show VLAN brief". The star appears only
// for favorites and the subcategory only when set.
func Title(e entry.Entry) string {
	var b strings.Builder
	if e.IsFavorite {
		b.WriteString(favoriteMark)
	}
	b.WriteString(Prefix(e.Category))
	b.WriteString("  ")
	if e.Subcategory != "" {
		b.WriteString(e.Subcategory)
		b.WriteString(crumbSep)
	}
	b.WriteString(e.Title)
	return b.String()
}

// Subtitle renders the command on one line followed by hints: a template
// marker when the command has placeholders, and the description.
func Subtitle(e entry.Entry) string {
	cmd := strings.ReplaceAll(e.Command, "\n", newlineMark)

	var hints []string
	if template.HasPlaceholders(e.Command) {
		hints = append(hints, templateHint)
	}
	if e.Description != "" {
		hints = append(hints, e.Description)
	}
	if len(hints) == 0 {
		return cmd
	}
	return cmd + "   " + strings.Join(hints, hintSep)
}

var (
	favoriteColor    = color.New(color.FgHiYellow)
	placeholderColor = color.New(color.FgYellow, color.Bold)
	dimColor         = color.New(color.Faint)
	boldColor        = color.New(color.Bold)
	idColor          = color.New(color.FgHiYellow, color.Italic, color.Faint)
)

// Placeholder styles a {name} token.
func Placeholder(s string) string {
	return placeholderColor.Sprint(s)
}

// Printer writes human-readable output.
type Printer struct {
	W io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{W: w}
}

// List prints entries as a two-line listing: styled title, then subtitle.
func (p *Printer) List(entries []entry.Entry) {
	if len(entries) == 0 {
		f := color.New(color.Faint, color.Italic)
		fmt.Fprintln(p.W, f.Sprint("No commands found"))
		fmt.Fprintln(p.W, f.Sprint(EmptyHint))
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = false
	for _, e := range entries {
		title := Title(e)
		if e.IsFavorite {
			title = favoriteColor.Sprint(title)
		}
		tbl.AddRow(idColor.Sprint(e.ID), title)
		tbl.AddRow("", dimColor.Sprint(Subtitle(e)))
	}
	fmt.Fprintln(p.W, tbl)
}

// Detail prints every field of one entry, placeholders highlighted.
func (p *Printer) Detail(e entry.Entry) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 80

	fav := "no"
	if e.IsFavorite {
		fav = favoriteColor.Sprint("★ yes")
	}
	tbl.AddRow(boldColor.Sprint("ID"), e.ID)
	tbl.AddRow(boldColor.Sprint("Category"), e.Category)
	if e.Subcategory != "" {
		tbl.AddRow(boldColor.Sprint("Subcategory"), e.Subcategory)
	}
	tbl.AddRow(boldColor.Sprint("Title"), e.Title)
	if e.Description != "" {
		tbl.AddRow(boldColor.Sprint("Description"), e.Description)
	}
	if tags := e.TagList(); len(tags) > 0 {
		tbl.AddRow(boldColor.Sprint("Tags"), strings.Join(tags, ", "))
	}
	if names := e.Placeholders(); len(names) > 0 {
		tbl.AddRow(boldColor.Sprint("Variables"), strings.Join(names, ", "))
	}
	tbl.AddRow(boldColor.Sprint("Favorite"), fav)
	tbl.AddRow(boldColor.Sprint("Updated"), e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintln(p.W, tbl)

	fmt.Fprintln(p.W)
	for _, line := range strings.Split(template.Highlight(e.Command, Placeholder), "\n") {
		fmt.Fprintf(p.W, "    %s\n", line)
	}
}

// CategoryGroup is one row of the category overview.
type CategoryGroup struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// Categories prints categories with their prefixes and subcategories.
func (p *Printer) Categories(cats []CategoryGroup) {
	if len(cats) == 0 {
		fmt.Fprintln(p.W, dimColor.Sprint("No categories"))
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(boldColor.Sprint(""), boldColor.Sprint("Category"), boldColor.Sprint("Subcategories"))
	for _, c := range cats {
		tbl.AddRow(Prefix(c.Category), c.Category, strings.Join(c.Subcategories, ", "))
	}
	fmt.Fprintln(p.W, tbl)
}

// Status prints the "N shown / M total" summary line.
func (p *Printer) Status(shown, total int) {
	fmt.Fprintln(p.W, dimColor.Sprintf("%d shown / %d total", shown, total))
}
