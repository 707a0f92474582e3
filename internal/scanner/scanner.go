// Package scanner ingests an audio file tree into the catalog. Every
// directory it meets becomes an album row and every tagged audio file
// directly inside becomes a song row; nested disc folders become sibling
// albums, never children.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/lavender/internal/constants"
	"github.com/cesargomez89/lavender/internal/domain"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
)

type Scanner struct {
	db   *store.DB
	tags tagging.Reader
	log  *logger.Logger
}

func New(db *store.DB, tags tagging.Reader, log *logger.Logger) *Scanner {
	return &Scanner{
		db:   db,
		tags: tags,
		log:  log.WithComponent("scanner"),
	}
}

// Scan walks root depth-first and inserts album and song rows.
//
// Scan performs no duplicate detection of its own: running it twice against
// a populated catalog inserts a second copy of every row. Gating a rescan is
// the caller's responsibility. Files directly inside root itself are ignored;
// only its subdirectories are treated as albums.
//
// A missing root or an unusable database aborts with no partial writes.
// Per-file tag failures and per-row insert failures are absorbed.
func (s *Scanner) Scan(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path is not a directory: %s", root)
	}

	if err := s.db.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to prepare catalog schema: %w", err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}

	s.log.Info("scan started", "root", abs)
	s.scanDir(abs)
	s.log.Info("scan finished", "root", abs)
	return nil
}

// scanDir processes the directory entries of dir. Only subdirectories are
// acted on at this level; their files are ingested, then the subdirectory is
// scanned again so nested folders become albums of their own.
func (s *Scanner) scanDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Warn("failed to list directory", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		albumPath := filepath.Join(dir, entry.Name())
		albumID, err := s.db.InsertAlbum(entry.Name(), albumPath)
		if err != nil {
			// A failed album row loses only its own songs; nested albums
			// are independent rows and still get scanned.
			s.log.Warn("album insert failed", "album", entry.Name(), "error", err)
		} else {
			s.log.Debug("album inserted", "album", entry.Name(), "id", albumID)
			s.ingestSongs(albumID, albumPath)
		}
		s.scanDir(albumPath)
	}
}

func (s *Scanner) ingestSongs(albumID int64, albumPath string) {
	entries, err := os.ReadDir(albumPath)
	if err != nil {
		s.log.Warn("failed to list album directory", "dir", albumPath, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !constants.AudioExtensions[ext] {
			continue
		}

		songPath := filepath.Join(albumPath, entry.Name())
		tags, err := s.tags.Read(songPath)
		if err != nil {
			// Unreadable tags mean the file is never recorded, not even
			// as an error.
			if !errors.Is(err, tagging.ErrNoTags) {
				s.log.Debug("tag read failed", "path", songPath, "error", err)
			}
			continue
		}

		genre := tags.Genre
		if genre == "" {
			genre = constants.UnknownGenre
		}

		song := &domain.Song{
			AlbumID: albumID,
			Name:    tags.Title,
			Artist:  tags.Artist,
			Album:   tags.Album,
			Genre:   genre,
			Path:    songPath,
		}
		if _, err := s.db.InsertSong(song); err != nil {
			s.log.Warn("song insert failed", "path", songPath, "error", err)
			continue
		}
		s.log.Debug("song inserted", "title", tags.Title, "id", song.ID)
	}
}
