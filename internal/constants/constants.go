// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort            = "8080"
	DefaultDBFileName      = "lavender.db"
	DefaultAppDirName      = "lavender"
	DefaultMusicBrainzURL  = "https://musicbrainz.org/ws/2"
	DefaultAnalysisCommand = "python3"
	DefaultAnalysisScript  = "scripts/recoEngine.py"
	DefaultFpcalcPath      = "fpcalc"
	DefaultRetryCount      = 3
	DefaultRetryBase       = 1 * time.Second
)

// MusicBrainz client
const (
	UserAgent          = "lavender/1.0 (https://github.com/cesargomez89/lavender)"
	RequestTimeout     = 10 * time.Second
	MinRequestInterval = 1050 * time.Millisecond
	SessionCallLimit   = 20
)

// Recommendation resolver
const (
	BrowseLimit          = 30
	MaxFanoutArtists     = 5
	AlbumsPerArtistFetch = 5
	MaxAlbumsPerArtist   = 3
	MaxAlbumCandidates   = 15
	FanoutTimeout        = 20 * time.Second
	ShortArtistNameLen   = 4
	MinCleanGenreLen     = 3
)

// Analysis bridge
const (
	AnalysisKillWait   = 1 * time.Second
	AnalysisBeginToken = "RECOMMENDATIONS_BEGIN"
	AnalysisEndToken   = "RECOMMENDATIONS_END"
)

// Catalog
const (
	UnknownGenre = "Unknown"
	AlbumsTable  = "albums"
	SongsTable   = "songs"
)

// File Extensions recognised by the indexer
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtWAV  = ".wav"
)

// AudioExtensions maps the lowercase extensions the indexer accepts.
var AudioExtensions = map[string]bool{
	ExtMP3:  true,
	ExtFLAC: true,
	ExtWAV:  true,
}
