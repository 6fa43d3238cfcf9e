package query

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw         string
		wantText    string
		wantFilters Filters
	}{
		// Operators mixed with text
		{"cat:Cisco vlan", "vlan", Filters{Category: "Cisco"}},
		{"fav: show mac", "show mac", Filters{Favorites: true}},
		{"tag:ccna sub:vlan", "", Filters{Tag: "ccna", Subcategory: "vlan"}},
		{"show C:cisco s:arp", "show", Filters{Category: "cisco", Subcategory: "arp"}},
		{"CATEGORY:Linux disk t:storage", "disk", Filters{Category: "Linux", Tag: "storage"}},

		// Favorites ignores its value
		{"f:", "", Filters{Favorites: true}},
		{"favorites:no route", "route", Filters{Favorites: true}},
		{"fav: fav:", "", Filters{Favorites: true}},

		// Empty values fall back to text verbatim
		{"cat: vlan", "cat: vlan", Filters{}},
		{"sub: tag: x", "sub: tag: x", Filters{}},

		// Unknown keys are text
		{"http://10.0.0.1 curl", "http://10.0.0.1 curl", Filters{}},
		{"vlan:10 show", "vlan:10 show", Filters{}},
		{":x", ":x", Filters{}},

		// Last occurrence wins
		{"cat:Cisco cat:Linux", "", Filters{Category: "Linux"}},

		// Whitespace normalization
		{"  show   ip\troute  ", "show ip route", Filters{}},
		{"", "", Filters{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Text != tt.wantText {
				t.Errorf("Parse(%q).Text = %q, want %q", tt.raw, got.Text, tt.wantText)
			}
			if got.Filters != tt.wantFilters {
				t.Errorf("Parse(%q).Filters = %+v, want %+v", tt.raw, got.Filters, tt.wantFilters)
			}
		})
	}
}

func TestFilters_Any(t *testing.T) {
	if (Filters{}).Any() {
		t.Error("empty Filters.Any() = true")
	}
	for _, f := range []Filters{{Favorites: true}, {Category: "x"}, {Subcategory: "x"}, {Tag: "x"}} {
		if !f.Any() {
			t.Errorf("%+v.Any() = false", f)
		}
	}
}

func TestRequest_String(t *testing.T) {
	req := Parse("vlan cat:Cisco fav: t:l2")
	want := "fav: cat:Cisco tag:l2 vlan"
	if got := req.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if again := Parse(req.String()); again != req {
		t.Errorf("re-parse = %+v, want %+v", again, req)
	}
}

func TestAliases(t *testing.T) {
	tests := []struct {
		family string
		want   []string
	}{
		{FieldCategory, []string{"c", "cat", "category"}},
		{FieldSubcategory, []string{"s", "sub", "subcategory"}},
		{FieldTag, []string{"t", "tag"}},
		{FieldFavorites, []string{"f", "fav", "favorite", "favorites"}},
	}
	for _, tt := range tests {
		if got := Aliases(tt.family); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Aliases(%q) = %v, want %v", tt.family, got, tt.want)
		}
	}
}
