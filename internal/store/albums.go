package store

import (
	"fmt"

	"github.com/cesargomez89/lavender/internal/domain"
)

// InsertAlbum creates an album row. Albums are created once per directory
// seen during a scan and never updated or deleted here; rescans are additive.
func (db *DB) InsertAlbum(name, path string) (int64, error) {
	res, err := db.Exec(`INSERT INTO albums (name, path) VALUES (?, ?)`, name, path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read album id: %w", err)
	}
	return id, nil
}

func (db *DB) GetAlbum(id int64) (*domain.Album, error) {
	var album domain.Album
	err := db.Get(&album, `SELECT * FROM albums WHERE id = ?`, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &album, nil
}

func (db *DB) ListAlbums() ([]domain.Album, error) {
	var albums []domain.Album
	err := db.Select(&albums, `SELECT * FROM albums ORDER BY id`)
	return albums, err
}

func (db *DB) CountAlbums() (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM albums`)
	return count, err
}
