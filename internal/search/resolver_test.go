package search

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/query"
	"github.com/cmdvault/cv/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	indexOK     bool
	fullText    []entry.Entry
	fullTextErr error
	filter      []entry.Entry
	filterErr   error

	fullTextCalls int
	lastTerms     []string
	lastConds     *storage.Conditions
	lastLimit     int
}

func (f *fakeStore) IndexAvailable() bool { return f.indexOK }

func (f *fakeStore) FullText(terms []string, limit int) ([]entry.Entry, error) {
	f.fullTextCalls++
	f.lastTerms = terms
	f.lastLimit = limit
	return f.fullText, f.fullTextErr
}

func (f *fakeStore) Filter(c storage.Conditions, limit int) ([]entry.Entry, error) {
	f.lastConds = &c
	f.lastLimit = limit
	return f.filter, f.filterErr
}

func TestResolve_IndexedWhenNoFilters(t *testing.T) {
	hit := entry.Entry{ID: 1, Title: "Show VLAN brief"}
	fs := &fakeStore{indexOK: true, fullText: []entry.Entry{hit}}

	got, strategy, err := New(fs).Resolve(query.Parse("show  vlan"))
	require.NoError(t, err)
	assert.Equal(t, StrategyIndexed, strategy)
	assert.Equal(t, []entry.Entry{hit}, got)
	assert.Equal(t, []string{"show", "vlan"}, fs.lastTerms)
	assert.Equal(t, MaxResults, fs.lastLimit)
	assert.Nil(t, fs.lastConds, "Filter should not run when the index answers")
}

func TestResolve_FiltersSkipIndex(t *testing.T) {
	fs := &fakeStore{indexOK: true}

	_, strategy, err := New(fs).Resolve(query.Parse("cat:Cisco vlan"))
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, strategy)
	assert.Zero(t, fs.fullTextCalls)
	require.NotNil(t, fs.lastConds)
	assert.Equal(t, storage.Conditions{Category: "Cisco", Text: "vlan"}, *fs.lastConds)
}

func TestResolve_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"index unavailable", &fakeStore{indexOK: false}},
		{"index error", &fakeStore{indexOK: true, fullTextErr: fmt.Errorf("%w: malformed", storage.ErrIndexUnavailable)}},
		{"index empty", &fakeStore{indexOK: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := []entry.Entry{{ID: 2, Title: "Disk usage"}}
			tt.store.filter = want

			got, strategy, err := New(tt.store).Resolve(query.Parse("disk"))
			require.NoError(t, err)
			assert.Equal(t, StrategySubstring, strategy)
			assert.Equal(t, want, got)
			require.NotNil(t, tt.store.lastConds)
			assert.Equal(t, "disk", tt.store.lastConds.Text)
		})
	}
}

func TestResolve_FilterErrorPropagates(t *testing.T) {
	boom := errors.New("disk I/O error")
	fs := &fakeStore{indexOK: false, filterErr: boom}

	_, _, err := New(fs).Resolve(query.Parse("anything"))
	assert.ErrorIs(t, err, boom)
}

func TestResolve_StrategyNames(t *testing.T) {
	tests := []struct {
		raw  string
		want Strategy
	}{
		{"", StrategyAll},
		{"fav:", StrategyFiltered},
		{"tag:ccna", StrategyFiltered},
		{"cat: vlan", StrategySubstring},
	}
	for _, tt := range tests {
		fs := &fakeStore{}
		_, got, err := New(fs).Resolve(query.Parse(tt.raw))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "query %q", tt.raw)
	}
}

func TestResolver_Limit(t *testing.T) {
	many := make([]entry.Entry, 80)
	for i := range many {
		many[i] = entry.Entry{ID: int64(i + 1)}
	}

	fs := &fakeStore{filter: many}
	got, _, err := New(fs).Resolve(query.Request{})
	require.NoError(t, err)
	assert.Len(t, got, MaxResults)

	r := &Resolver{Store: fs, Limit: 5}
	got, _, err = r.Resolve(query.Request{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 5, fs.lastLimit)

	r = &Resolver{Store: fs, Limit: 500}
	got, _, err = r.Resolve(query.Request{})
	require.NoError(t, err)
	assert.Len(t, got, MaxResults)
}

// openStore opens a real store holding the given drafts.
func openStore(t *testing.T, drafts ...entry.Draft) *storage.DB {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.CreateMany(drafts)
	require.NoError(t, err)
	return db
}

func assertFavoritesFirst(t *testing.T, entries []entry.Entry) {
	t.Helper()
	seenPlain := false
	for _, e := range entries {
		if !e.IsFavorite {
			seenPlain = true
		} else if seenPlain {
			t.Errorf("favorite %q follows a non-favorite", e.Title)
		}
	}
}

func TestSearch_ExampleScenario(t *testing.T) {
	db := openStore(t,
		entry.Draft{Category: "Cisco", Title: "Show VLAN brief", Command: "show vlan brief", IsFavorite: true},
		entry.Draft{Category: "Linux", Title: "Disk usage", Command: "df -h"},
	)
	r := New(db)

	tests := []struct {
		raw  string
		want []string
	}{
		{"cat:cisco", []string{"Show VLAN brief"}},
		{"fav:", []string{"Show VLAN brief"}},
		{"disk", []string{"Disk usage"}},
		{"", []string{"Show VLAN brief", "Disk usage"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res, err := r.Search(tt.raw)
			require.NoError(t, err)
			var titles []string
			for _, e := range res.Entries {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestSearch_SubstringFallbackCorrectness(t *testing.T) {
	db := openStore(t,
		entry.Draft{Category: "Cisco", Title: "Show VLAN brief", Command: "show vlan brief"},
		entry.Draft{Category: "Cisco", Subcategory: "Switching", Title: "Trunk ports", Command: "show interfaces trunk", Tags: "vlan"},
		entry.Draft{Category: "Linux", Title: "Tagged iface", Command: "ip link add link eth0 name eth0.10 type VLAN id 10"},
		entry.Draft{Category: "Linux", Title: "Disk usage", Command: "df -h"},
		entry.Draft{Category: "Proxmox", Title: "List VMs", Command: "qm list", Description: "all guests"},
		entry.Draft{Category: "Überwachung", Title: "Größe prüfen", Command: "du -sh ."},
	)

	// Without the index every path is substring matching.
	r := New(noIndex{db})

	res, err := r.Search("vlan")
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, res.Strategy)

	all, err := db.ListAll(0)
	require.NoError(t, err)
	var want []int64
	for _, e := range all {
		if containsFold(e, "vlan") {
			want = append(want, e.ID)
		}
	}
	var got []int64
	for _, e := range res.Entries {
		got = append(got, e.ID)
	}
	assert.ElementsMatch(t, want, got)
	assert.Len(t, got, 3)

	// Case folding is not limited to ASCII.
	for raw, strategy := range map[string]Strategy{
		"cat:über":        StrategyFiltered,
		"cat:ÜBER":        StrategyFiltered,
		"cat:Über PRÜFEN": StrategySubstring,
		"größe":           StrategySubstring,
	} {
		res, err := r.Search(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, strategy, res.Strategy, raw)
		require.Len(t, res.Entries, 1, raw)
		assert.Equal(t, "Größe prüfen", res.Entries[0].Title, raw)
	}
}

func TestSearch_FavoritesFirstEveryBranch(t *testing.T) {
	db := openStore(t,
		entry.Draft{Category: "Ansible", Title: "Ping all hosts", Command: "ansible all -m ping"},
		entry.Draft{Category: "Cisco", Title: "Ping gateway", Command: "ping 10.0.0.1", IsFavorite: true},
		entry.Draft{Category: "Linux", Title: "Ping flood test", Command: "ping -f {host}", Tags: "ping"},
		entry.Draft{Category: "Linux", Title: "Trace", Command: "traceroute {host}", IsFavorite: true},
	)

	for _, raw := range []string{"ping", "", "cat:linux", "tag:ping", "host", "zzz-none"} {
		t.Run(raw, func(t *testing.T) {
			res, err := New(db).Search(raw)
			require.NoError(t, err)
			assertFavoritesFirst(t, res.Entries)
		})
	}

	res, err := New(noIndex{db}).Search("ping")
	require.NoError(t, err)
	assertFavoritesFirst(t, res.Entries)
}

func TestSearch_IndexedUsesRealIndex(t *testing.T) {
	db := openStore(t,
		entry.Draft{Category: "Linux", Title: "Disk usage", Command: "df -h"},
		entry.Draft{Category: "Linux", Title: "Memory", Command: "free -h"},
	)

	res, err := New(db).Search("df NOT")
	require.NoError(t, err)
	assert.Equal(t, StrategyIndexed, res.Strategy)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Disk usage", res.Entries[0].Title)
}

// noIndex hides the full-text index of a real store.
type noIndex struct{ *storage.DB }

func (noIndex) IndexAvailable() bool { return false }

func containsFold(e entry.Entry, s string) bool {
	s = strings.ToLower(s)
	for _, f := range []string{e.Title, e.Command, e.Description, e.Tags, e.Category, e.Subcategory} {
		if strings.Contains(strings.ToLower(f), s) {
			return true
		}
	}
	return false
}
