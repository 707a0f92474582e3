package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cesargomez89/lavender/internal/fingerprint"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/recommend"
	"github.com/cesargomez89/lavender/internal/scanner"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/form/v4"
)

type Handler struct {
	DB          *store.DB
	Scanner     *scanner.Scanner
	Resolver    *recommend.Resolver
	Tags        tagging.Reader
	Fingerprint fingerprint.Generator
	MusicDir    string
	Log         *logger.Logger

	decoder *form.Decoder
}

func NewHandler(db *store.DB, sc *scanner.Scanner, res *recommend.Resolver, tags tagging.Reader, fp fingerprint.Generator, musicDir string, log *logger.Logger) *Handler {
	return &Handler{
		DB:          db,
		Scanner:     sc,
		Resolver:    res,
		Tags:        tags,
		Fingerprint: fp,
		MusicDir:    musicDir,
		Log:         log.WithComponent("http"),
		decoder:     form.NewDecoder(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/scan", h.StartScan)
	r.Get("/api/albums", h.ListAlbums)
	r.Get("/api/songs", h.ListSongs)
	r.Get("/api/songs/{id}", h.GetSong)
	r.Get("/api/songs/{id}/art", h.GetSongArt)
	r.Get("/api/songs/{id}/fingerprint", h.GetSongFingerprint)
	r.Get("/api/recommendations/{songID}", h.GetRecommendations)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("encoding response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
