package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/cesargomez89/lavender/internal/domain"
	"github.com/cesargomez89/lavender/internal/recommend"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// scanning guards against concurrent scan jobs; rescans are additive so two
// overlapping walks would double every row.
var scanning atomic.Bool

type scanRequest struct {
	Path  string `form:"path"`
	Force bool   `form:"force"`
}

func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := h.decoder.Decode(&req, r.URL.Query()); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	root := req.Path
	if root == "" {
		root = h.MusicDir
	}
	if root == "" {
		h.writeError(w, http.StatusBadRequest, "no scan path configured or provided")
		return
	}

	count, err := h.DB.CountSongs()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if count > 0 && !req.Force {
		h.writeError(w, http.StatusConflict, "library already indexed; pass force=true to rescan")
		return
	}
	if !scanning.CompareAndSwap(false, true) {
		h.writeError(w, http.StatusConflict, "a scan is already running")
		return
	}

	jobID := uuid.NewString()
	log := h.Log.WithScan(jobID, root)
	go func() {
		defer scanning.Store(false)
		if err := h.Scanner.Scan(root); err != nil {
			log.Error("scan failed", "error", err)
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"job": jobID, "path": root})
}

func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.DB.ListAlbums()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if albums == nil {
		albums = []domain.Album{}
	}
	h.writeJSON(w, http.StatusOK, albums)
}

func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	var q store.SongQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	songs, err := h.DB.ListSongs(q)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if songs == nil {
		songs = []domain.Song{}
	}
	h.writeJSON(w, http.StatusOK, songs)
}

func (h *Handler) songFromPath(w http.ResponseWriter, r *http.Request) (*domain.Song, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return nil, false
	}
	song, err := h.DB.GetSong(id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "song not found")
		return nil, false
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return song, true
}

// GetSong returns the catalog row together with tags read fresh from the
// file, so edits made outside the catalog show up without a rescan.
func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	song, ok := h.songFromPath(w, r)
	if !ok {
		return
	}

	resp := struct {
		domain.Song
		Tags *tagging.Tags `json:"tags,omitempty"`
	}{Song: *song}

	if tags, err := h.Tags.Read(song.Path); err == nil {
		resp.Tags = tags
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSongArt(w http.ResponseWriter, r *http.Request) {
	song, ok := h.songFromPath(w, r)
	if !ok {
		return
	}

	art, mime, err := tagging.EmbeddedArt(song.Path)
	if errors.Is(err, tagging.ErrNoArt) {
		h.writeError(w, http.StatusNotFound, "no embedded art")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(art)
}

func (h *Handler) GetSongFingerprint(w http.ResponseWriter, r *http.Request) {
	song, ok := h.songFromPath(w, r)
	if !ok {
		return
	}

	fp, err := h.Fingerprint.Generate(r.Context(), song.Path)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, fp)
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	songID, err := strconv.ParseInt(chi.URLParam(r, "songID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	result, err := h.Resolver.Recommend(r.Context(), songID)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "song not found")
		return
	}
	if errors.Is(err, recommend.ErrSuperseded) {
		h.writeError(w, http.StatusConflict, "superseded by a newer request")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
