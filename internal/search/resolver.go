// Package search turns a parsed query into an ordered, capped list of entries,
// choosing between the full-text index and substring filtering.
package search

import (
	"strings"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/query"
	"github.com/cmdvault/cv/internal/storage"
	"github.com/rs/zerolog/log"
)

// MaxResults caps every result set.
const MaxResults = 50

// Strategy names the branch that produced a result set.
type Strategy string

const (
	StrategyIndexed   Strategy = "indexed"
	StrategyFiltered  Strategy = "filtered"
	StrategySubstring Strategy = "substring"
	StrategyAll       Strategy = "all"
)

// Store is the subset of the entry store the resolver needs.
type Store interface {
	IndexAvailable() bool
	FullText(terms []string, limit int) ([]entry.Entry, error)
	Filter(c storage.Conditions, limit int) ([]entry.Entry, error)
}

// Resolver resolves queries against a Store.
type Resolver struct {
	Store Store

	// Limit lowers the result cap when positive. It never raises it past
	// MaxResults.
	Limit int
}

// Result is a resolved query.
type Result struct {
	Query    query.Request `json:"query"`
	Strategy Strategy      `json:"strategy"`
	Entries  []entry.Entry `json:"entries"`
}

// New returns a Resolver over store.
func New(store Store) *Resolver {
	return &Resolver{Store: store}
}

func (r *Resolver) limit() int {
	if r.Limit > 0 && r.Limit < MaxResults {
		return r.Limit
	}
	return MaxResults
}

// Search parses raw and resolves it.
func (r *Resolver) Search(raw string) (*Result, error) {
	req := query.Parse(raw)
	entries, strategy, err := r.Resolve(req)
	if err != nil {
		return nil, err
	}
	return &Result{Query: req, Strategy: strategy, Entries: entries}, nil
}

// Resolve returns the entries matching req, favorites first.
//
// The index is only consulted for plain text without structured filters.
// An index failure or an empty indexed result falls through to substring
// matching, so index errors never reach the caller. Store errors from the
// substring path do.
func (r *Resolver) Resolve(req query.Request) ([]entry.Entry, Strategy, error) {
	limit := r.limit()
	conds := storage.Conditions{
		FavoritesOnly: req.Filters.Favorites,
		Category:      req.Filters.Category,
		Subcategory:   req.Filters.Subcategory,
		Tag:           req.Filters.Tag,
	}

	if req.Text != "" && !req.Filters.Any() {
		if entries, ok := r.indexed(req.Text, limit); ok {
			return entries, StrategyIndexed, nil
		}
	}

	strategy := StrategyAll
	switch {
	case req.Text != "":
		conds.Text = req.Text
		strategy = StrategySubstring
	case req.Filters.Any():
		strategy = StrategyFiltered
	}

	entries, err := r.Store.Filter(conds, limit)
	if err != nil {
		return nil, strategy, err
	}

	entries = capped(entries, limit)
	log.Debug().
		Str("query", req.String()).
		Str("strategy", string(strategy)).
		Int("results", len(entries)).
		Msg("resolved query")

	return entries, strategy, nil
}

// indexed tries the full-text index. ok is false when the caller should
// fall back to substring matching.
func (r *Resolver) indexed(text string, limit int) ([]entry.Entry, bool) {
	if !r.Store.IndexAvailable() {
		log.Debug().Msg("full-text index unavailable, using substring match")
		return nil, false
	}

	entries, err := r.Store.FullText(strings.Fields(text), limit)
	if err != nil {
		log.Debug().Err(err).Str("text", text).Msg("indexed search failed, using substring match")
		return nil, false
	}
	if len(entries) == 0 {
		return nil, false
	}
	entries = capped(entries, limit)

	log.Debug().
		Str("text", text).
		Int("results", len(entries)).
		Msg("resolved query from index")
	return entries, true
}

func capped(entries []entry.Entry, limit int) []entry.Entry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
