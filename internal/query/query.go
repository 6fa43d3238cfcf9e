// Package query parses the search mini-language: free text mixed with
// key:value operator filters such as cat:cisco, sub:vlan, tag:ccna and fav:.
package query

import (
	"sort"
	"strings"
)

// Filter families recognized by the parser.
const (
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldTag         = "tag"
	FieldFavorites   = "favorites"
)

// operators maps every accepted alias (lowercase) to its filter family.
var operators = map[string]string{
	"cat":      FieldCategory,
	"c":        FieldCategory,
	"category": FieldCategory,

	"sub":         FieldSubcategory,
	"s":           FieldSubcategory,
	"subcategory": FieldSubcategory,

	"tag": FieldTag,
	"t":   FieldTag,

	"fav":       FieldFavorites,
	"f":         FieldFavorites,
	"favorite":  FieldFavorites,
	"favorites": FieldFavorites,
}

// Filters holds at most one value per structured filter family.
type Filters struct {
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Favorites   bool   `json:"favorites,omitempty"`
}

// Any reports whether at least one filter is set.
func (f Filters) Any() bool {
	return f.Favorites || f.Category != "" || f.Subcategory != "" || f.Tag != ""
}

// Request is a parsed query: the free-text remainder plus filters.
type Request struct {
	Text    string  `json:"text"`
	Filters Filters `json:"filters"`
}

// IsEmpty reports whether the request has neither text nor filters.
func (r Request) IsEmpty() bool {
	return r.Text == "" && !r.Filters.Any()
}

// String renders the request back into query syntax, filters first.
func (r Request) String() string {
	var parts []string
	if r.Filters.Favorites {
		parts = append(parts, "fav:")
	}
	if r.Filters.Category != "" {
		parts = append(parts, "cat:"+r.Filters.Category)
	}
	if r.Filters.Subcategory != "" {
		parts = append(parts, "sub:"+r.Filters.Subcategory)
	}
	if r.Filters.Tag != "" {
		parts = append(parts, "tag:"+r.Filters.Tag)
	}
	if r.Text != "" {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, " ")
}

// Parse splits raw on whitespace and pulls out operator tokens.
//
// A key:value token is a filter when key (case-insensitive) is a known alias.
// The favorites family only needs the key to be present; the other families
// need a non-empty value, otherwise the token stays in the text verbatim.
// Unknown keys and plain words are joined with single spaces into Text.
// When a family appears twice the last value wins.
func Parse(raw string) Request {
	var req Request
	var text []string

	for _, tok := range strings.Fields(raw) {
		key, val, ok := strings.Cut(tok, ":")
		if !ok {
			text = append(text, tok)
			continue
		}

		family := operators[strings.ToLower(strings.TrimSpace(key))]
		val = strings.TrimSpace(val)

		switch {
		case family == FieldFavorites:
			req.Filters.Favorites = true
		case family != "" && val != "":
			req.Filters.set(family, val)
		default:
			text = append(text, tok)
		}
	}

	req.Text = strings.Join(text, " ")
	return req
}

func (f *Filters) set(family, val string) {
	switch family {
	case FieldCategory:
		f.Category = val
	case FieldSubcategory:
		f.Subcategory = val
	case FieldTag:
		f.Tag = val
	}
}

// Aliases returns the accepted operator aliases for a filter family.
func Aliases(family string) []string {
	var out []string
	for alias, fam := range operators {
		if fam == family {
			out = append(out, alias)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
