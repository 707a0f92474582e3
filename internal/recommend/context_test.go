package recommend

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesargomez89/lavender/internal/domain"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
)

// fakeTagReader serves canned tags keyed by file base name.
type fakeTagReader struct {
	tags map[string]*tagging.Tags
}

func (r *fakeTagReader) Read(path string) (*tagging.Tags, error) {
	if t, ok := r.tags[filepath.Base(path)]; ok {
		return t, nil
	}
	return nil, tagging.ErrNoTags
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return db
}

func writeTempFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadContext(t *testing.T) {
	db := setupTestDB(t)
	id, err := db.InsertSong(&domain.Song{
		AlbumID: 7, Name: "So What", Artist: "Miles Davis",
		Album: "Kind of Blue", Genre: "Jazz",
	})
	if err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	l := NewContextLoader(db, &fakeTagReader{}, logger.Default())

	rc, err := l.LoadContext(id)
	if err != nil {
		t.Fatalf("LoadContext failed: %v", err)
	}
	if rc.ArtistName != "Miles Davis" || rc.Genre != "Jazz" || rc.AlbumID != 7 {
		t.Errorf("Unexpected context: %+v", rc)
	}

	if _, err := l.LoadContext(9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSerializeCatalog(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()

	// Stored genre is empty and the file exists, so the genre comes back
	// from the tag reader at serialization time.
	path := writeTempFile(t, dir, "track.mp3")
	if _, err := db.InsertSong(&domain.Song{
		AlbumID: 1, Name: "Pipe|Song", Artist: "A|B", Album: "Alb", Genre: "", Path: path,
	}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}
	if _, err := db.InsertSong(&domain.Song{
		AlbumID: 2, Name: "Plain", Artist: "C", Album: "Alb2", Genre: "Rock", Path: "/gone.mp3",
	}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	reader := &fakeTagReader{tags: map[string]*tagging.Tags{
		"track.mp3": {Genre: " Funk "},
	}}
	l := NewContextLoader(db, reader, logger.Default())

	lines, err := l.SerializeCatalog()
	if err != nil {
		t.Fatalf("SerializeCatalog failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	fields := strings.Split(lines[0], "|")
	if len(fields) != 7 {
		t.Fatalf("Expected 7 fields, got %d in %q", len(fields), lines[0])
	}
	if fields[1] != "Pipe Song" || fields[2] != "A B" {
		t.Errorf("Embedded pipes must become spaces: %q", lines[0])
	}
	if fields[3] != "Funk" {
		t.Errorf("Expected re-derived genre Funk, got %q", fields[3])
	}

	if !strings.Contains(lines[1], "|Rock|") {
		t.Errorf("Stored genre must pass through: %q", lines[1])
	}
}

func TestDominantAlbumGenre(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()

	paths := []string{
		writeTempFile(t, dir, "a.mp3"),
		writeTempFile(t, dir, "b.mp3"),
		writeTempFile(t, dir, "c.mp3"),
	}
	for _, p := range paths {
		if _, err := db.InsertSong(&domain.Song{AlbumID: 5, Name: filepath.Base(p), Path: p}); err != nil {
			t.Fatalf("InsertSong failed: %v", err)
		}
	}
	// A missing file never contributes.
	if _, err := db.InsertSong(&domain.Song{AlbumID: 5, Name: "gone", Path: "/missing.mp3"}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	reader := &fakeTagReader{tags: map[string]*tagging.Tags{
		"a.mp3": {Genre: "Rock"},
		"b.mp3": {Genre: " rock "},
		"c.mp3": {Genre: "Jazz"},
	}}
	l := NewContextLoader(db, reader, logger.Default())

	if got := l.DominantAlbumGenre(5); got != "rock" {
		t.Errorf("Expected dominant genre rock, got %q", got)
	}
	if got := l.DominantAlbumGenre(999); got != "" {
		t.Errorf("Expected empty genre for unknown album, got %q", got)
	}
}
