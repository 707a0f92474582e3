package recommend

import (
	"fmt"

	"github.com/cesargomez89/lavender/internal/domain"
)

// FallbackAlbum is one entry of the curated terminal list.
type FallbackAlbum struct {
	Title  string
	Artist string
	Year   string
	Genre  string
}

// curatedAlbums is the fixed list emitted when every external stage of the
// genre chain is exhausted. It guarantees the pipeline always terminates
// with a non-empty album list.
var curatedAlbums = []FallbackAlbum{
	{"Thriller", "Michael Jackson", "1982", "Pop"},
	{"The Dark Side of the Moon", "Pink Floyd", "1973", "Rock"},
	{"Back in Black", "AC/DC", "1980", "Hard Rock"},
	{"Abbey Road", "The Beatles", "1969", "Rock"},
	{"Rumours", "Fleetwood Mac", "1977", "Rock"},
	{"Kind of Blue", "Miles Davis", "1959", "Jazz"},
	{"Purple Rain", "Prince", "1984", "Pop"},
	{"Nevermind", "Nirvana", "1991", "Grunge"},
	{"Hotel California", "Eagles", "1976", "Rock"},
	{"Appetite for Destruction", "Guns N' Roses", "1987", "Hard Rock"},
}

// curatedCandidates renders the curated list under its fallback header.
func curatedCandidates() []domain.Candidate {
	out := make([]domain.Candidate, 0, len(curatedAlbums)+2)
	out = append(out, domain.Candidate{
		Display: "fallback - albums you may enjoy",
		Kind:    domain.CandidateHeader,
	})
	for _, album := range curatedAlbums {
		out = append(out, domain.Candidate{
			Display: fmt.Sprintf("%s by %s (%s)", album.Title, album.Artist, album.Year),
			Artist:  album.Artist,
			Genre:   album.Genre,
			Year:    album.Year,
			Kind:    domain.CandidateEntry,
		})
	}
	out = append(out, domain.Candidate{
		Display: "curated based on popular albums",
		Kind:    domain.CandidateNote,
	})
	return out
}
