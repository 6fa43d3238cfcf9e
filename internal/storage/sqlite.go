package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmdvault/cv/internal/entry"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// selectEntryFields contains the standard field list for SELECT queries.
const selectEntryFields = `id, category, subcategory, title, command,
	description, tags, is_favorite, created_at, updated_at`

// timeLayout is how timestamps are stored. Rows written by SQLite's own
// datetime('now') default use sqliteTimeLayout instead.
const (
	timeLayout       = time.RFC3339Nano
	sqliteTimeLayout = "2006-01-02 15:04:05"
)

// OpenDB opens or creates a SQLite database at the given path.
// The text index is created alongside the table; if that fails the store
// still opens and searches fall back to substring matching.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating directory: %v", ErrUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrUnavailable, err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrUnavailable, err)
	}

	if err := openIndex(db); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("full-text index unavailable, using substring search")
	}

	return &DB{db: db, path: path, now: time.Now}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

func applyPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("setting %q: %w", p, err)
		}
	}
	return nil
}

// createSchema creates the primary table and its lookup indexes.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS commands (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			category    TEXT    NOT NULL,
			subcategory TEXT,
			title       TEXT    NOT NULL,
			command     TEXT    NOT NULL,
			description TEXT,
			tags        TEXT,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_cmd_category ON commands(category);
		CREATE INDEX IF NOT EXISTS idx_cmd_title    ON commands(title);
	`

	_, err := db.Exec(schema)
	return err
}

// openIndex creates the full-text index if it is missing. An index created
// over existing rows is populated from them.
func openIndex(db *sql.DB) error {
	var existing int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'commands_fts'`).Scan(&existing); err != nil {
		return err
	}
	if err := createIndexSchema(db); err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM commands`).Scan(&rows); err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	log.Info().Int("entries", rows).Msg("populating new full-text index")
	_, err := db.Exec(`INSERT INTO commands_fts(commands_fts) VALUES('rebuild')`)
	return err
}

// createIndexSchema creates the external-content FTS5 table and the
// triggers that keep it in lockstep with the commands table.
func createIndexSchema(db *sql.DB) error {
	schema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS commands_fts USING fts5(
			title, command, description, tags, category, subcategory,
			content='commands', content_rowid='id'
		);

		CREATE TRIGGER IF NOT EXISTS commands_ai AFTER INSERT ON commands BEGIN
			INSERT INTO commands_fts(rowid, title, command, description, tags, category, subcategory)
			VALUES (new.id, new.title, new.command, new.description, new.tags, new.category, new.subcategory);
		END;

		CREATE TRIGGER IF NOT EXISTS commands_ad AFTER DELETE ON commands BEGIN
			INSERT INTO commands_fts(commands_fts, rowid, title, command, description, tags, category, subcategory)
			VALUES ('delete', old.id, old.title, old.command, old.description, old.tags, old.category, old.subcategory);
		END;

		CREATE TRIGGER IF NOT EXISTS commands_au AFTER UPDATE ON commands BEGIN
			INSERT INTO commands_fts(commands_fts, rowid, title, command, description, tags, category, subcategory)
			VALUES ('delete', old.id, old.title, old.command, old.description, old.tags, old.category, old.subcategory);
			INSERT INTO commands_fts(rowid, title, command, description, tags, category, subcategory)
			VALUES (new.id, new.title, new.command, new.description, new.tags, new.category, new.subcategory);
		END;
	`

	_, err := db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// withTx runs fn inside a transaction, committing on success.
func (d *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (d *DB) timestamp() string {
	return d.now().UTC().Format(timeLayout)
}

// Create validates the draft and inserts it, returning the new id.
func (d *DB) Create(draft entry.Draft) (int64, error) {
	return d.insert(d.db, draft)
}

// CreateMany inserts all drafts in a single transaction. Nothing is written
// if any draft fails validation.
func (d *DB) CreateMany(drafts []entry.Draft) ([]int64, error) {
	ids := make([]int64, 0, len(drafts))
	err := d.withTx(func(tx *sql.Tx) error {
		for i, draft := range drafts {
			id, err := d.insert(tx, draft)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i+1, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *DB) insert(ex execer, draft entry.Draft) (int64, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	now := d.timestamp()
	res, err := ex.Exec(`
		INSERT INTO commands (
			category, subcategory, title, command,
			description, tags, is_favorite, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Category, nullableStringValue(draft.Subcategory), draft.Title, draft.Command,
		nullableStringValue(draft.Description), nullableStringValue(draft.Tags),
		boolToInt(draft.IsFavorite), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new id: %w", err)
	}
	return id, nil
}

// Update overwrites all mutable fields of an existing entry.
func (d *DB) Update(id int64, draft entry.Draft) error {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}

	res, err := d.db.Exec(`
		UPDATE commands SET
			category = ?, subcategory = ?, title = ?, command = ?,
			description = ?, tags = ?, is_favorite = ?, updated_at = ?
		WHERE id = ?`,
		draft.Category, nullableStringValue(draft.Subcategory), draft.Title, draft.Command,
		nullableStringValue(draft.Description), nullableStringValue(draft.Tags),
		boolToInt(draft.IsFavorite), d.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("updating entry %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Delete permanently removes an entry.
func (d *DB) Delete(id int64) error {
	res, err := d.db.Exec(`DELETE FROM commands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// ToggleFavorite flips the favorite flag and returns the new state.
// The modification time is refreshed like any other change.
func (d *DB) ToggleFavorite(id int64) (bool, error) {
	var fav bool
	err := d.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE commands
			SET is_favorite = CASE WHEN is_favorite = 1 THEN 0 ELSE 1 END,
			    updated_at = ?
			WHERE id = ?`, d.timestamp(), id)
		if err != nil {
			return fmt.Errorf("toggling favorite on %d: %w", id, err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}
		return tx.QueryRow(`SELECT is_favorite FROM commands WHERE id = ?`, id).Scan(&fav)
	})
	return fav, err
}

// SetFavorite sets the favorite flag explicitly.
func (d *DB) SetFavorite(id int64, fav bool) error {
	res, err := d.db.Exec(`UPDATE commands SET is_favorite = ?, updated_at = ? WHERE id = ?`,
		boolToInt(fav), d.timestamp(), id)
	if err != nil {
		return fmt.Errorf("setting favorite on %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Duplicate copies an entry under a new id. The copy is not a favorite and
// its title carries the copy suffix.
func (d *DB) Duplicate(id int64) (int64, error) {
	var newID int64
	err := d.withTx(func(tx *sql.Tx) error {
		e, err := scanEntry(tx.QueryRow(`SELECT `+selectEntryFields+` FROM commands WHERE id = ?`, id))
		if err != nil {
			return fmt.Errorf("reading entry %d: %w", id, err)
		}
		if e == nil {
			return &NotFoundError{ID: id}
		}
		newID, err = d.insert(tx, e.Copy())
		return err
	})
	return newID, err
}

// GetByID retrieves an entry by id.
func (d *DB) GetByID(id int64) (*entry.Entry, error) {
	e, err := scanEntry(d.db.QueryRow(`SELECT `+selectEntryFields+` FROM commands WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reading entry %d: %w", id, err)
	}
	if e == nil {
		return nil, &NotFoundError{ID: id}
	}
	return e, nil
}

// Count returns the total number of entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM commands").Scan(&count)
	return count, err
}

// CountFavorites returns the number of favorite entries.
func (d *DB) CountFavorites() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM commands WHERE is_favorite = 1").Scan(&count)
	return count, err
}

// Categories returns the distinct categories in alphabetical order.
func (d *DB) Categories() ([]string, error) {
	return d.queryStrings(`SELECT DISTINCT category FROM commands ORDER BY category`)
}

// Subcategories returns the distinct non-empty subcategories of a category.
func (d *DB) Subcategories(category string) ([]string, error) {
	return d.queryStrings(`
		SELECT DISTINCT subcategory FROM commands
		WHERE category = ? AND subcategory IS NOT NULL AND subcategory != ''
		ORDER BY subcategory`, category)
}

func (d *DB) queryStrings(query string, args ...interface{}) ([]string, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAll returns all entries in display order, optionally limited.
func (d *DB) ListAll(limit int) ([]entry.Entry, error) {
	return d.Filter(Conditions{}, limit)
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*entry.Entry, error) {
	var e entry.Entry
	var subcategory, description, tags sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&e.ID, &e.Category, &subcategory, &e.Title, &e.Command,
		&description, &tags, &e.IsFavorite, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	e.Subcategory = subcategory.String
	e.Description = description.String
	e.Tags = tags.String

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for %d: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at for %d: %w", e.ID, err)
	}

	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]entry.Entry, error) {
	var entries []entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// likePattern builds a LIKE pattern matching s anywhere, with LIKE
// wildcards in s taken literally. Use with ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
