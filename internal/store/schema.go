package store

const createAlbumsTable = `
CREATE TABLE albums (
	id INTEGER PRIMARY KEY,
	name TEXT,
	path TEXT
)`

const createSongsTable = `
CREATE TABLE songs (
	id INTEGER PRIMARY KEY,
	album_id INTEGER,
	name TEXT,
	artist TEXT,
	album TEXT,
	genre TEXT,
	path TEXT
)`
