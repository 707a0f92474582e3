package domain

import "strings"

// Album is one directory encountered during a library scan. Nested disc
// folders become their own rows; no hierarchy is modelled.
type Album struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Path string `json:"path" db:"path"`
}

// Song is one audio file found directly inside an album directory.
type Song struct {
	ID      int64  `json:"id" db:"id"`
	AlbumID int64  `json:"album_id" db:"album_id"`
	Name    string `json:"name" db:"name"`
	Artist  string `json:"artist" db:"artist"`
	Album   string `json:"album" db:"album"`
	Genre   string `json:"genre" db:"genre"`
	Path    string `json:"path" db:"path"`
}

// RecommendationContext is the seed tuple a resolution session starts from.
// Loaded fresh per request, never persisted.
type RecommendationContext struct {
	SongID     int64  `json:"song_id"`
	SongName   string `json:"song_name"`
	ArtistName string `json:"artist_name"`
	Genre      string `json:"genre"`
	Album      string `json:"album"`
	AlbumID    int64  `json:"album_id"`
}

// CandidateKind distinguishes selectable entries from section headers and
// informational notes in a candidate list.
type CandidateKind string

const (
	CandidateEntry  CandidateKind = "entry"
	CandidateHeader CandidateKind = "header"
	CandidateNote   CandidateKind = "note"
)

// Candidate is one row of a recommendation list. SourceID carries a catalog
// song id (local) or a MusicBrainz id (remote); consumers disambiguate by
// shape, a hyphenated identifier implies external origin.
type Candidate struct {
	Display  string        `json:"display"`
	Artist   string        `json:"artist,omitempty"`
	Genre    string        `json:"genre,omitempty"`
	Year     string        `json:"year,omitempty"`
	SourceID string        `json:"source_id,omitempty"`
	Kind     CandidateKind `json:"kind"`
}

// IsExternal reports whether the candidate's SourceID points at the external
// metadata service rather than the local catalog.
func (c Candidate) IsExternal() bool {
	return strings.Contains(c.SourceID, "-")
}

// AlbumKey is the dedup key for album-level candidates.
func AlbumKey(artist, album string) string {
	return artist + " - " + album
}
