// Package recommend turns a seed song into deduplicated artist and album
// suggestions by combining local catalog statistics with chained lookups
// against the external metadata service.
package recommend

import (
	"fmt"
	"os"
	"strings"

	"github.com/cesargomez89/lavender/internal/domain"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
)

// ContextLoader resolves seed songs and serializes the catalog for the
// analysis collaborator.
type ContextLoader struct {
	db   *store.DB
	tags tagging.Reader
	log  *logger.Logger
}

func NewContextLoader(db *store.DB, tags tagging.Reader, log *logger.Logger) *ContextLoader {
	return &ContextLoader{
		db:   db,
		tags: tags,
		log:  log.WithComponent("context"),
	}
}

// LoadContext resolves a seed song id to its recommendation context.
// Returns store.ErrNotFound when the song does not exist.
func (l *ContextLoader) LoadContext(songID int64) (*domain.RecommendationContext, error) {
	song, err := l.db.GetSong(songID)
	if err != nil {
		return nil, err
	}
	return &domain.RecommendationContext{
		SongID:     song.ID,
		SongName:   song.Name,
		ArtistName: song.Artist,
		Genre:      song.Genre,
		Album:      song.Album,
		AlbumID:    song.AlbumID,
	}, nil
}

// SerializeCatalog renders every song as one pipe-delimited line:
// id|name|artist|genre|album|albumId|path. Embedded pipes are replaced with
// spaces to keep the format unambiguous. A song whose stored genre is empty
// has it re-derived from its file when the file still exists.
func (l *ContextLoader) SerializeCatalog() ([]string, error) {
	songs, err := l.db.ListSongs(store.SongQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	lines := make([]string, 0, len(songs))
	for _, song := range songs {
		genre := song.Genre
		if genre == "" && song.Path != "" {
			if _, statErr := os.Stat(song.Path); statErr == nil {
				if tags, tagErr := l.tags.Read(song.Path); tagErr == nil {
					genre = strings.TrimSpace(tags.Genre)
				}
			}
		}

		lines = append(lines, fmt.Sprintf("%d|%s|%s|%s|%s|%d|%s",
			song.ID,
			depipe(song.Name),
			depipe(song.Artist),
			depipe(genre),
			depipe(song.Album),
			song.AlbumID,
			depipe(song.Path),
		))
	}
	return lines, nil
}

// DominantAlbumGenre reads the genre tags of every song file in an album and
// returns the most frequent one, lowercased, or "" when nothing is readable.
func (l *ContextLoader) DominantAlbumGenre(albumID int64) string {
	songs, err := l.db.SongsByAlbum(albumID)
	if err != nil {
		l.log.Warn("failed to list album songs", "album_id", albumID, "error", err)
		return ""
	}

	counts := make(map[string]int)
	for _, song := range songs {
		if song.Path == "" {
			continue
		}
		if _, err := os.Stat(song.Path); err != nil {
			continue
		}
		tags, err := l.tags.Read(song.Path)
		if err != nil {
			continue
		}
		genre := strings.ToLower(strings.TrimSpace(tags.Genre))
		if genre != "" {
			counts[genre]++
		}
	}

	var dominant string
	var max int
	for genre, count := range counts {
		if count > max {
			max = count
			dominant = genre
		}
	}
	return dominant
}

func depipe(s string) string {
	return strings.ReplaceAll(s, "|", " ")
}
