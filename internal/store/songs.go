package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cesargomez89/lavender/internal/domain"
)

// InsertSong creates a song row. The albumID must refer to an album inserted
// earlier in the same scan pass. Genre must never be empty once persisted;
// the indexer substitutes "Unknown" before calling.
func (db *DB) InsertSong(song *domain.Song) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO songs (album_id, name, artist, album, genre, path) VALUES (?, ?, ?, ?, ?, ?)`,
		song.AlbumID, song.Name, song.Artist, song.Album, song.Genre, song.Path,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read song id: %w", err)
	}
	song.ID = id
	return id, nil
}

func (db *DB) GetSong(id int64) (*domain.Song, error) {
	var song domain.Song
	err := db.Get(&song, `SELECT * FROM songs WHERE id = ?`, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &song, nil
}

// ListSongs returns songs filtered by the non-empty fields of q.
func (db *DB) ListSongs(q SongQuery) ([]domain.Song, error) {
	query := `SELECT * FROM songs WHERE 1=1`
	args := []interface{}{}
	if q.Artist != "" {
		query += ` AND artist LIKE ?`
		args = append(args, "%"+q.Artist+"%")
	}
	if q.Genre != "" {
		query += ` AND genre = ?`
		args = append(args, q.Genre)
	}
	query += ` ORDER BY id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	var songs []domain.Song
	err := db.Select(&songs, query, args...)
	return songs, err
}

// SongQuery filters ListSongs.
type SongQuery struct {
	Artist string `form:"artist"`
	Genre  string `form:"genre"`
	Limit  int    `form:"limit"`
}

func (db *DB) SongsByAlbum(albumID int64) ([]domain.Song, error) {
	var songs []domain.Song
	err := db.Select(&songs, `SELECT * FROM songs WHERE album_id = ? ORDER BY id`, albumID)
	return songs, err
}

func (db *DB) CountSongs() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM songs`)
	return count, err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
