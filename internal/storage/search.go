package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/cmdvault/cv/internal/entry"
	"modernc.org/sqlite"
)

// foldFunc names the SQL function that lowercases text with Unicode rules.
// SQLite's own LIKE only folds ASCII letters.
const foldFunc = "cv_fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, fold); err != nil {
		panic(err)
	}
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// foldedLike is a case-insensitive LIKE condition on col.
func foldedLike(col string) string {
	return foldFunc + "(" + col + `) LIKE ? ESCAPE '\'`
}

// Conditions narrows a Filter query. All set conditions must hold.
// String conditions are case-insensitive substring matches.
type Conditions struct {
	FavoritesOnly bool
	Category      string
	Subcategory   string
	Tag           string

	// Text matches anywhere in title, command, description, tags,
	// category or subcategory.
	Text string
}

// textColumns are the columns searched by Conditions.Text.
var textColumns = []string{"title", "command", "description", "tags", "category", "subcategory"}

// MatchExpression builds an FTS5 expression that ORs each term as a quoted
// phrase, so operator characters in user input are taken literally.
func MatchExpression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// FullText queries the text index for entries matching any of the terms,
// favorites first and then by relevance. Any index failure is returned
// wrapping ErrIndexUnavailable.
func (d *DB) FullText(terms []string, limit int) ([]entry.Entry, error) {
	match := MatchExpression(terms)
	if match == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT c.id, c.category, c.subcategory, c.title, c.command,
		       c.description, c.tags, c.is_favorite, c.created_at, c.updated_at
		FROM commands_fts f
		JOIN commands c ON c.id = f.rowid
		WHERE commands_fts MATCH ?
		ORDER BY c.is_favorite DESC, f.rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return entries, nil
}

// Filter returns entries satisfying all conditions, favorites first and
// then by category, subcategory and title.
func (d *DB) Filter(c Conditions, limit int) ([]entry.Entry, error) {
	var where []string
	var args []interface{}

	if c.FavoritesOnly {
		where = append(where, "is_favorite = 1")
	}
	for _, cond := range []struct{ col, val string }{
		{"category", c.Category},
		{"subcategory", c.Subcategory},
		{"tags", c.Tag},
	} {
		if cond.val != "" {
			where = append(where, foldedLike(cond.col))
			args = append(args, likePattern(strings.ToLower(cond.val)))
		}
	}
	if c.Text != "" {
		pattern := likePattern(strings.ToLower(c.Text))
		ors := make([]string, len(textColumns))
		for i, col := range textColumns {
			ors[i] = foldedLike(col)
			args = append(args, pattern)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	query := `SELECT ` + selectEntryFields + ` FROM commands`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY is_favorite DESC, category, subcategory, title`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// IndexAvailable reports whether the full-text index can be queried.
func (d *DB) IndexAvailable() bool {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM commands_fts WHERE commands_fts MATCH '"probe"'`).Scan(&n)
	return err == nil
}

// RebuildIndex recreates the index from the commands table, creating the
// index tables first if they are missing.
func (d *DB) RebuildIndex() error {
	if err := createIndexSchema(d.db); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if _, err := d.db.Exec(`INSERT INTO commands_fts(commands_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("%w: rebuilding: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// CheckIndex verifies that the index matches the commands table exactly.
func (d *DB) CheckIndex() error {
	if _, err := d.db.Exec(`INSERT INTO commands_fts(commands_fts, rank) VALUES('integrity-check', 1)`); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}
