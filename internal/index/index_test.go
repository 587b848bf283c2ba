package index

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "arbor-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "This is a hello world note.", []string{"other.md"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"target.md"})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "Old", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "old body", []string{"x.md"})
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body", []string{"y.md"})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "s.md", Title: "Search Me", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestGetNote_RoundTrip(t *testing.T) {
	db := testDB(t)
	created := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(90 * time.Minute).Add(123 * time.Nanosecond)
	row := NoteRow{
		Path:      "docs/a.md",
		ID:        "a",
		Title:     "A",
		Checksum:  "c",
		Tags:      []string{"x"},
		Parent:    "Root Note",
		Order:     2,
		Color:     "#112233",
		Blocks:    models.Blocks{models.HeadingBlock{Level: 1, Text: "A"}, models.TextBlock{Text: "see [[b]]"}},
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if err := db.UpsertNote(row, "body", []string{"b"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	got, err := db.GetNote("docs/a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.ID != "a" || got.Parent != "Root Note" || got.Order != 2 || got.Color != "#112233" {
		t.Errorf("row = %+v", got)
	}
	if !got.UpdatedAt.Equal(updated) || !got.CreatedAt.Equal(created) {
		t.Errorf("times = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if len(got.Blocks) != 2 || got.Blocks[1].Kind() != models.KindText {
		t.Errorf("blocks = %#v", got.Blocks)
	}

	byID, err := db.GetNoteByID("a")
	if err != nil || byID.Path != "docs/a.md" {
		t.Errorf("GetNoteByID = %+v, %v", byID, err)
	}
	if _, err := db.GetNote("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetNote missing: err = %v", err)
	}
}

func TestListNotes(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []NoteRow{
		{Path: "b.md", ID: "b", Title: "beta", Tags: []string{"go"}},
		{Path: "a.md", ID: "a", Title: "Gamma", Tags: []string{"rust"}},
		{Path: "c.md", ID: "c", Title: "alpha", Tags: []string{"go", "db"}},
	} {
		r.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := db.UpsertNote(r, "", nil); err != nil {
			t.Fatal(err)
		}
	}

	paths := func(rows []NoteRow) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.Path
		}
		return out
	}

	tests := []struct {
		name  string
		q     ListQuery
		want  []string
		total int
	}{
		{"default path order", ListQuery{}, []string{"a.md", "b.md", "c.md"}, 3},
		{"title", ListQuery{Sort: "title"}, []string{"c.md", "b.md", "a.md"}, 3},
		{"updated", ListQuery{Sort: "updated"}, []string{"c.md", "a.md", "b.md"}, 3},
		{"tag", ListQuery{Tag: "go"}, []string{"b.md", "c.md"}, 2},
		{"page", ListQuery{Limit: 1, Offset: 1}, []string{"b.md"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := db.ListNotes(tt.q)
			if err != nil {
				t.Fatalf("ListNotes: %v", err)
			}
			if total != tt.total || !slices.Equal(paths(rows), tt.want) {
				t.Errorf("got %v (total %d), want %v (total %d)", paths(rows), total, tt.want, tt.total)
			}
		})
	}
}

func TestBacklinks_MatchesAnyName(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", ID: "a", UpdatedAt: time.Now()}, "", []string{"Target Note"})
	_ = db.UpsertNote(NoteRow{Path: "b.md", ID: "b", UpdatedAt: time.Now()}, "", []string{"t"})

	bl, err := db.Backlinks("t", "target note")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if !slices.Equal(bl, []string{"a.md", "b.md"}) {
		t.Errorf("backlinks = %v", bl)
	}
	if none, _ := db.Backlinks(); len(none) != 0 {
		t.Errorf("no targets should give no backlinks")
	}
}

func TestSync_NotesResolveHierarchy(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"projects.md":     "# Projects\n",
		"projects/web.md": "---\nparent: \"[[Projects]]\"\norder: 2\n---\n# Web\n",
		"projects/api.md": "---\nid: api\nparent: projects\norder: 1\n---\n# API\nsee [[Web]]\n",
		"stray.md":        "---\nparent: nowhere\n---\n# Stray\n",
	}
	for p, body := range files {
		if err := os.MkdirAll(filepath.Join(dir, filepath.Dir(p)), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, p), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db := testDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	changed, err := Sync(db, store, logger)
	if err != nil || !changed {
		t.Fatalf("Sync = %t, %v", changed, err)
	}
	if again, _ := Sync(db, store, logger); again {
		t.Error("second sync should be a no-op")
	}

	notes, err := db.Notes()
	if err != nil {
		t.Fatalf("Notes: %v", err)
	}
	byID := make(map[string]models.Note)
	for _, n := range notes {
		byID[n.ID] = n
	}
	root, ok := byID["projects"]
	if !ok || !root.IsRoot {
		t.Fatalf("projects note = %+v", root)
	}
	if !slices.Equal(root.ChildrenIDs, []string{"api", "projects/web"}) {
		t.Errorf("children = %v", root.ChildrenIDs)
	}
	web := byID["projects/web"]
	if web.ParentID != "projects" || web.Depth != 1 || !slices.Equal(web.Path, []string{"projects"}) {
		t.Errorf("web = %+v", web)
	}
	stray := byID["stray"]
	if stray.IsRoot || stray.Depth != 0 || stray.ParentID != "nowhere" {
		t.Errorf("stray = %+v", stray)
	}

	_ = os.Remove(filepath.Join(dir, "stray.md"))
	if changed, _ := Sync(db, store, logger); !changed {
		t.Error("removal should be reported as a change")
	}
	if paths, _ := db.AllPaths(); len(paths) != 3 {
		t.Errorf("paths after removal = %v", paths)
	}
}
