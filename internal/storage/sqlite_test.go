package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmdvault/cv/internal/entry"
)

// setupTestDB opens a fresh database holding a small mixed library.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "vault.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	drafts := []entry.Draft{
		{Category: "Cisco", Subcategory: "VLAN", Title: "Show VLAN brief", Command: "show vlan brief", Tags: "vlan,ccna"},
		{Category: "Cisco", Subcategory: "VLAN", Title: "Create VLAN", Command: "vlan {vlan_id}\n name {vlan_name}", Tags: "vlan,config"},
		{Category: "Cisco", Subcategory: "Routing", Title: "Show IP route", Command: "show ip route", Tags: "routing,ccna", IsFavorite: true},
		{Category: "Linux", Subcategory: "Disk", Title: "Disk usage", Command: "df -h", Description: "Filesystem usage", Tags: "disk,storage"},
		{Category: "Proxmox", Title: "List VMs", Command: "qm list", Tags: "vm"},
	}
	if _, err := db.CreateMany(drafts); err != nil {
		t.Fatalf("Failed to seed test DB: %v", err)
	}
	return db
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func titles(entries []entry.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenDB_IndexAvailable(t *testing.T) {
	db := setupTestDB(t)
	if !db.IndexAvailable() {
		t.Fatal("IndexAvailable() = false on a fresh database")
	}
	if err := db.CheckIndex(); err != nil {
		t.Errorf("CheckIndex() error = %v", err)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")

	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	id, err := db.Create(entry.Draft{Category: "Linux", Title: "Uptime", Command: "uptime"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	got, err := db.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Command != "uptime" {
		t.Errorf("Command = %q, want uptime", got.Command)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := setupTestDB(t)
	before, _ := db.Count()

	_, err := db.Create(entry.Draft{Category: "Linux", Title: "  ", Command: "ls"})
	var ve *entry.ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("Create() error = %v, want title ValidationError", err)
	}

	after, _ := db.Count()
	if after != before {
		t.Errorf("Count changed from %d to %d after rejected create", before, after)
	}
}

func TestCreate_TrimsAndStores(t *testing.T) {
	db := setupTestDB(t)
	db.now = fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	id, err := db.Create(entry.Draft{
		Category: " Ansible ",
		Title:    " Ping all ",
		Command:  "ansible all -m ping\n",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Category != "Ansible" || got.Title != "Ping all" || got.Command != "ansible all -m ping" {
		t.Errorf("stored entry = %+v", got)
	}
	if got.Subcategory != "" || got.Description != "" || got.Tags != "" {
		t.Errorf("optional fields should be empty: %+v", got)
	}
	if !got.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestCreateMany_AllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	before, _ := db.Count()

	_, err := db.CreateMany([]entry.Draft{
		{Category: "Linux", Title: "ok", Command: "true"},
		{Category: "Linux", Title: "bad"},
	})
	if err == nil {
		t.Fatal("CreateMany() error = nil, want validation failure")
	}

	after, _ := db.Count()
	if after != before {
		t.Errorf("Count = %d, want %d", after, before)
	}
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	db.now = fixedClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	id, _ := db.Create(entry.Draft{Category: "Linux", Title: "Free memory", Command: "free -m"})
	orig, _ := db.GetByID(id)

	d := orig.Draft()
	d.Command = "free -h"
	d.Tags = "memory"
	if err := db.Update(id, d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := db.GetByID(id)
	if got.Command != "free -h" || got.Tags != "memory" {
		t.Errorf("updated entry = %+v", got)
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", orig.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.After(orig.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", orig.UpdatedAt, got.UpdatedAt)
	}

	// Index follows the update
	hits, err := db.FullText([]string{"memory"}, 10)
	if err != nil {
		t.Fatalf("FullText() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ID != id {
		t.Errorf("FullText(memory) = %v", titles(hits))
	}
	if err := db.CheckIndex(); err != nil {
		t.Errorf("CheckIndex() error = %v", err)
	}
}

func TestUpdate_Errors(t *testing.T) {
	db := setupTestDB(t)

	err := db.Update(9999, entry.Draft{Category: "x", Title: "x", Command: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}

	var ve *entry.ValidationError
	if err := db.Update(1, entry.Draft{Category: "x", Title: "x"}); !errors.As(err, &ve) {
		t.Errorf("Update(invalid) error = %v, want ValidationError", err)
	}
}

func TestDelete_RemovesFromIndex(t *testing.T) {
	db := setupTestDB(t)

	id, _ := db.Create(entry.Draft{Category: "Linux", Title: "Zebra unique", Command: "zebractl status"})
	if hits, _ := db.FullText([]string{"zebractl"}, 10); len(hits) != 1 {
		t.Fatalf("FullText before delete = %v", titles(hits))
	}

	if err := db.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.GetByID(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	hits, err := db.FullText([]string{"zebractl"}, 10)
	if err != nil {
		t.Fatalf("FullText() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("FullText after delete = %v, want none", titles(hits))
	}
	if err := db.CheckIndex(); err != nil {
		t.Errorf("CheckIndex() error = %v", err)
	}

	var nf *NotFoundError
	if err := db.Delete(id); !errors.As(err, &nf) || nf.ID != id {
		t.Errorf("second Delete() error = %v, want NotFoundError{%d}", err, id)
	}
}

func TestToggleFavorite(t *testing.T) {
	db := setupTestDB(t)
	db.now = fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	id, _ := db.Create(entry.Draft{Category: "Linux", Title: "Who", Command: "who"})
	orig, _ := db.GetByID(id)

	fav, err := db.ToggleFavorite(id)
	if err != nil || !fav {
		t.Fatalf("ToggleFavorite() = %v, %v; want true, nil", fav, err)
	}
	got, _ := db.GetByID(id)
	if !got.IsFavorite {
		t.Error("IsFavorite = false after toggle")
	}
	if !got.UpdatedAt.After(orig.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", orig.UpdatedAt, got.UpdatedAt)
	}

	fav, err = db.ToggleFavorite(id)
	if err != nil || fav {
		t.Fatalf("second ToggleFavorite() = %v, %v; want false, nil", fav, err)
	}

	if _, err := db.ToggleFavorite(424242); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleFavorite(missing) error = %v", err)
	}
}

func TestSetFavorite(t *testing.T) {
	db := setupTestDB(t)
	before, _ := db.CountFavorites()

	if err := db.SetFavorite(1, true); err != nil {
		t.Fatalf("SetFavorite() error = %v", err)
	}
	if err := db.SetFavorite(1, true); err != nil {
		t.Fatalf("SetFavorite() repeat error = %v", err)
	}
	after, _ := db.CountFavorites()
	if after != before+1 {
		t.Errorf("CountFavorites = %d, want %d", after, before+1)
	}
	if err := db.SetFavorite(9999, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetFavorite(missing) error = %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	db := setupTestDB(t)

	hits, _ := db.Filter(Conditions{Text: "Show IP route"}, 0)
	if len(hits) != 1 {
		t.Fatalf("setup: found %d entries", len(hits))
	}
	src := hits[0]

	newID, err := db.Duplicate(src.ID)
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if newID == src.ID {
		t.Fatal("Duplicate() reused the source id")
	}

	dup, _ := db.GetByID(newID)
	if dup.Title != "Show IP route (copy)" {
		t.Errorf("Title = %q", dup.Title)
	}
	if dup.IsFavorite {
		t.Error("duplicate should not be a favorite")
	}
	if dup.Command != src.Command || dup.Category != src.Category || dup.Subcategory != src.Subcategory || dup.Tags != src.Tags {
		t.Errorf("duplicate content differs: %+v vs %+v", dup, src)
	}

	if _, err := db.Duplicate(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Duplicate(missing) error = %v", err)
	}
}

func TestIDsNotReused(t *testing.T) {
	db := setupTestDB(t)

	id, _ := db.Create(entry.Draft{Category: "Linux", Title: "tmp", Command: "true"})
	if err := db.Delete(id); err != nil {
		t.Fatal(err)
	}
	next, _ := db.Create(entry.Draft{Category: "Linux", Title: "tmp2", Command: "true"})
	if next <= id {
		t.Errorf("new id %d not greater than deleted id %d", next, id)
	}
}

func TestCategories(t *testing.T) {
	db := setupTestDB(t)

	cats, err := db.Categories()
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if want := []string{"Cisco", "Linux", "Proxmox"}; !equalStrings(cats, want) {
		t.Errorf("Categories() = %v, want %v", cats, want)
	}

	subs, err := db.Subcategories("Cisco")
	if err != nil {
		t.Fatalf("Subcategories() error = %v", err)
	}
	if want := []string{"Routing", "VLAN"}; !equalStrings(subs, want) {
		t.Errorf("Subcategories(Cisco) = %v, want %v", subs, want)
	}

	if subs, _ := db.Subcategories("Proxmox"); len(subs) != 0 {
		t.Errorf("Subcategories(Proxmox) = %v, want none", subs)
	}
}

func TestCounts(t *testing.T) {
	db := setupTestDB(t)

	if n, _ := db.Count(); n != 5 {
		t.Errorf("Count() = %d, want 5", n)
	}
	if n, _ := db.CountFavorites(); n != 1 {
		t.Errorf("CountFavorites() = %d, want 1", n)
	}
}

func TestRebuildIndex(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.db.Exec(`DROP TABLE commands_fts`); err != nil {
		t.Fatalf("dropping index: %v", err)
	}
	if db.IndexAvailable() {
		t.Fatal("IndexAvailable() = true after drop")
	}
	if _, err := db.FullText([]string{"vlan"}, 10); !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("FullText() error = %v, want ErrIndexUnavailable", err)
	}

	if err := db.RebuildIndex(); err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if !db.IndexAvailable() {
		t.Fatal("IndexAvailable() = false after rebuild")
	}

	hits, err := db.FullText([]string{"vlan"}, 10)
	if err != nil {
		t.Fatalf("FullText() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("FullText(vlan) = %v, want 2 hits", titles(hits))
	}
}

func TestOpenDB_PopulatesRecreatedIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateMany([]entry.Draft{
		{Category: "Cisco", Title: "Show VLAN brief", Command: "show vlan brief"},
		{Category: "Cisco", Title: "Create VLAN", Command: "vlan {vlan_id}"},
		{Category: "Linux", Title: "Disk usage", Command: "df -h"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.db.Exec(`DROP TABLE commands_fts`); err != nil {
		t.Fatalf("dropping index: %v", err)
	}
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.CheckIndex(); err != nil {
		t.Errorf("CheckIndex() after reopen error = %v", err)
	}
	if _, err := db.Create(entry.Draft{Category: "Linux", Title: "Tagged iface", Command: "ip link add link eth0 name eth0.10 type vlan id 10"}); err != nil {
		t.Fatal(err)
	}

	hits, err := db.FullText([]string{"vlan"}, 10)
	if err != nil {
		t.Fatalf("FullText() error = %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("FullText(vlan) = %v, want 3 hits", titles(hits))
	}
	if err := db.CheckIndex(); err != nil {
		t.Errorf("CheckIndex() error = %v", err)
	}
}
