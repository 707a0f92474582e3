package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/cesargomez89/lavender/internal/analysis"
	"github.com/cesargomez89/lavender/internal/domain"
	"github.com/cesargomez89/lavender/internal/fingerprint"
	"github.com/cesargomez89/lavender/internal/httpclient"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/recommend"
	"github.com/cesargomez89/lavender/internal/scanner"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
	"github.com/go-chi/chi/v5"
)

type fakeTagReader struct{}

func (fakeTagReader) Read(path string) (*tagging.Tags, error) {
	return nil, tagging.ErrNoTags
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(ctx context.Context, songID, albumID int64, lines []string) (*analysis.Recommendations, error) {
	return &analysis.Recommendations{}, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Generate(ctx context.Context, path string) (*fingerprint.Fingerprint, error) {
	return &fingerprint.Fingerprint{Duration: 123.4, Fingerprint: "AQAA"}, nil
}

func setupServer(t *testing.T) (*httptest.Server, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	log := logger.Default()
	tags := fakeTagReader{}
	sc := scanner.New(db, tags, log)
	governor := httpclient.NewClient(&http.Client{Timeout: time.Second}, time.Millisecond)
	loader := recommend.NewContextLoader(db, tags, log)
	resolver := recommend.NewResolver(loader, fakeAnalyzer{}, governor, "http://unused", nil, log)

	r := chi.NewRouter()
	h := NewHandler(db, sc, resolver, tags, fakeGenerator{}, t.TempDir(), log)
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, db
}

func TestStartScan(t *testing.T) {
	srv, db := setupServer(t)

	resp, err := http.Post(srv.URL+"/api/scan", "", nil)
	if err != nil {
		t.Fatalf("POST /api/scan failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["job"] == "" {
		t.Error("Expected a job id")
	}

	// A populated catalog refuses a rescan without force.
	if _, err := db.InsertSong(&domain.Song{Name: "x"}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}
	resp2, err := http.Post(srv.URL+"/api/scan", "", nil)
	if err != nil {
		t.Fatalf("POST /api/scan failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for populated catalog, got %d", resp2.StatusCode)
	}

	// Wait out the first background scan before forcing another.
	for scanning.Load() {
		time.Sleep(time.Millisecond)
	}

	resp3, err := http.Post(srv.URL+"/api/scan?force=true", "", nil)
	if err != nil {
		t.Fatalf("POST /api/scan failed: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusAccepted {
		t.Errorf("Expected 202 with force=true, got %d", resp3.StatusCode)
	}
}

func TestListSongs(t *testing.T) {
	srv, db := setupServer(t)

	if _, err := db.InsertSong(&domain.Song{Name: "Money", Artist: "Pink Floyd", Genre: "Rock"}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}
	if _, err := db.InsertSong(&domain.Song{Name: "Time", Artist: "Pink Floyd", Genre: "Rock"}); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/songs?genre=Rock&limit=1")
	if err != nil {
		t.Fatalf("GET /api/songs failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var songs []domain.Song
	if err := json.NewDecoder(resp.Body).Decode(&songs); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(songs) != 1 {
		t.Errorf("Expected 1 song with limit=1, got %d", len(songs))
	}
}

func TestGetSong_NotFound(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/songs/999")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestGetSongFingerprint(t *testing.T) {
	srv, db := setupServer(t)

	id, err := db.InsertSong(&domain.Song{Name: "Money", Path: "/music/money.mp3"})
	if err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/songs/" + strconv.FormatInt(id, 10) + "/fingerprint")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var fp fingerprint.Fingerprint
	if err := json.NewDecoder(resp.Body).Decode(&fp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if fp.Fingerprint != "AQAA" {
		t.Errorf("Unexpected fingerprint: %+v", fp)
	}
}

func TestGetRecommendations(t *testing.T) {
	srv, db := setupServer(t)

	id, err := db.InsertSong(&domain.Song{Name: "Money", Artist: "Pink Floyd", Genre: "Rock"})
	if err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/recommendations/" + strconv.FormatInt(id, 10))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result recommend.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	// The fake analyzer returns nothing, so both lists carry the note.
	if len(result.Albums) != 1 || result.Albums[0].Kind != domain.CandidateNote {
		t.Errorf("Expected a single note, got %+v", result.Albums)
	}

	resp404, err := http.Get(srv.URL + "/api/recommendations/99999")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp404.Body.Close()
	if resp404.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown song, got %d", resp404.StatusCode)
	}
}

